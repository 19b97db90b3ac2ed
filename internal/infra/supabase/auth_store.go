package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/nordvik/treasury-go/internal/domain"
)

// ============================================================
// Credential store
// ============================================================

type credentialRow struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CompanyID    string `json:"company_id"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
	LastLoginAt  string `json:"last_login_at,omitempty"`
}

func (c *Client) GetCredentialByEmail(ctx context.Context, email string) (*domain.UserCredential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentialByEmail")
	defer span.End()

	path := fmt.Sprintf("user_credentials?email=eq.%s&limit=1", url.QueryEscape(email))
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/credentials", Err: err}
	}
	var rows []credentialRow
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode user_credentials: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "user_credential", ID: email}
	}
	r := rows[0]
	return &domain.UserCredential{
		UserID:       r.UserID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CompanyID:    r.CompanyID,
		Role:         r.Role,
		IsActive:     r.IsActive,
		LastLoginAt:  parseDatePtr(r.LastLoginAt),
	}, nil
}

func (c *Client) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.RecordLogin")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("user_credentials?user_id=eq.%s", userID), map[string]any{
		"last_login_at": at.Format(time.RFC3339),
	})
}
