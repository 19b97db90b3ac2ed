package domain

import "time"

// ============================================================
// Auth
// ============================================================

// UserCredential holds the stored login credential for a user.
type UserCredential struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CompanyID    string     `json:"company_id"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the response to a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}
