package api

import (
	"context"
	"net/http"

	"github.com/petmily/petmily-go/users"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: password}, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Register creates a new account. The response shape matches login, but
// registration success does not authenticate the caller.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// ExchangeKakaoToken trades a provider access token for a backend-issued
// bearer token.
func (c *Client) ExchangeKakaoToken(ctx context.Context, accessToken string) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/kakao/token", KakaoTokenRequest{AccessToken: accessToken}, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Me returns the identity behind the current bearer credential.
func (c *Client) Me(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout tells the backend to invalidate the session server-side. Callers
// treat failures as best-effort; the client-side teardown is unconditional.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// DeleteAccount permanently removes the authenticated account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/account", nil, nil)
}
