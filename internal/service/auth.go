package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/port"
)

// AuthService handles login and token issuance.
type AuthService struct {
	credentials port.CredentialStore
	clock       port.Clock
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	logger      *zap.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(credentials port.CredentialStore, clock port.Clock, secret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		credentials: credentials,
		clock:       clock,
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		logger:      logger,
	}
}

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies the credentials and issues a token pair. Lookup
// failures and bad passwords both surface as the same unauthorized
// error, so the endpoint never confirms which emails exist.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if req.Email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email and password are required"}
	}

	cred, err := s.credentials.GetCredentialByEmail(ctx, req.Email)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if !cred.IsActive {
		return nil, &domain.ErrUnauthorized{Message: "account disabled"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	now := s.clock.Now()
	access, err := s.signToken(cred, now, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(cred, now, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.credentials.RecordLogin(ctx, cred.UserID, now); err != nil {
		s.logger.Warn("failed to record login", zap.String("user_id", cred.UserID), zap.Error(err))
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// VerifyToken parses and validates an access token.
func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "unexpected signing method"}
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	return claims, nil
}

func (s *AuthService) signToken(cred *domain.UserCredential, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		CompanyID: cred.CompanyID,
		Role:      cred.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "treasury-go",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
