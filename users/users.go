package users

import (
	"fmt"
	"unicode"
)

// RoleType represents a user role as issued by the backend
type RoleType string

const (
	RoleUser  RoleType = "USER"  // Regular member
	RoleAdmin RoleType = "ADMIN" // Operator with moderation rights
)

// User is the identity as last confirmed by the backend. It carries no
// credential material; the bearer token lives in the credential store.
type User struct {
	AccountID string   `json:"accountId"`          // Unique identifier for the account
	Username  string   `json:"username"`           // Display / login name
	Role      RoleType `json:"role,omitempty"`     // Backend-issued role
	Email     string   `json:"email,omitempty"`    // Email address, when the backend includes it
	Nickname  string   `json:"nickname,omitempty"` // Profile nickname, when set
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
