package api

import "github.com/petmily/petmily-go/users"

// TokenResponse is the shape returned by login, registration, and the
// Kakao token exchange.
type TokenResponse struct {
	AccessToken string         `json:"accessToken"`
	UserID      string         `json:"userId"`
	Username    string         `json:"username"`
	Role        users.RoleType `json:"role"`
	ExpiresIn   int64          `json:"expiresIn"`
}

// User derives the confirmed identity from the token response.
func (tr *TokenResponse) User() *users.User {
	return &users.User{
		AccountID: tr.UserID,
		Username:  tr.Username,
		Role:      tr.Role,
	}
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	ID          string `json:"id"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// KakaoTokenRequest carries a provider access token for the server-side
// exchange at POST /auth/kakao/token.
type KakaoTokenRequest struct {
	AccessToken string `json:"accessToken"`
}
