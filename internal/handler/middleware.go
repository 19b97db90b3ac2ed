package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/service"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	companyIDKey contextKey = "companyID"
)

// JWTAuthMiddleware validates Bearer tokens and injects the user and
// company identity into the request context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing authentication token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := authSvc.VerifyToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, companyIDKey, claims.CompanyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// CompanyIDFromContext extracts the authenticated company ID from context.
func CompanyIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(companyIDKey).(string)
	return v
}
