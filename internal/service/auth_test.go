package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/service"
)

type mockCredentialStore struct {
	credential *domain.UserCredential
	err        error

	logins []string
}

func (m *mockCredentialStore) GetCredentialByEmail(_ context.Context, _ string) (*domain.UserCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.credential, nil
}

func (m *mockCredentialStore) RecordLogin(_ context.Context, userID string, _ time.Time) error {
	m.logins = append(m.logins, userID)
	return nil
}

func testCredential(t *testing.T, password string) *domain.UserCredential {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &domain.UserCredential{
		UserID:       "user-1",
		Email:        "cfo@nordvik.example",
		PasswordHash: string(hash),
		CompanyID:    "co-1",
		Role:         "treasurer",
		IsActive:     true,
	}
}

func newAuthService(store *mockCredentialStore) *service.AuthService {
	// Token validation compares expiry against the wall clock, so the
	// test clock must not sit in the past.
	return service.NewAuthService(store, fixedClock{now: time.Now().UTC()}, "test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
}

func TestLogin_Success(t *testing.T) {
	store := &mockCredentialStore{credential: testCredential(t, "hunter2hunter2")}
	svc := newAuthService(store)

	pair, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "cfo@nordvik.example",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got '%s'", pair.TokenType)
	}
	if len(store.logins) != 1 || store.logins[0] != "user-1" {
		t.Errorf("expected login recorded for user-1, got %v", store.logins)
	}

	claims, err := svc.VerifyToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject 'user-1', got '%s'", claims.Subject)
	}
	if claims.CompanyID != "co-1" {
		t.Errorf("expected company 'co-1', got '%s'", claims.CompanyID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := &mockCredentialStore{credential: testCredential(t, "hunter2hunter2")}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "cfo@nordvik.example",
		Password: "wrong",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	store := &mockCredentialStore{err: &domain.ErrNotFound{Resource: "user_credential", ID: "nobody"}}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@nordvik.example",
		Password: "whatever",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	cred := testCredential(t, "hunter2hunter2")
	cred.IsActive = false
	svc := newAuthService(&mockCredentialStore{credential: cred})

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "cfo@nordvik.example",
		Password: "hunter2hunter2",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newAuthService(&mockCredentialStore{})
	if _, err := svc.VerifyToken("not-a-token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}
