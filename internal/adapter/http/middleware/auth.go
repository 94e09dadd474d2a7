package middleware

import (
	"net/http"
	"strings"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/infrastructure/auth"
)

// Auth verifies the bearer token and injects the identity into the request
// context for audit attribution and ownership checks.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromHeader(jwtManager, r)
			if err != nil {
				http.Error(w, "invalid or missing token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.ContextWithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth injects the identity when a valid token is present and passes
// the request through untouched otherwise.
func OptionalAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := userFromHeader(jwtManager, r); err == nil {
				r = r.WithContext(domain.ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSettler rejects identities whose role may not move money. Without an
// identity in context the check is skipped; the engine trusts its caller when
// auth is disabled.
func RequireSettler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := domain.UserFromContext(r.Context()); ok && !user.Role.CanSettle() {
			http.Error(w, "insufficient permissions", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromHeader(jwtManager *auth.JWTManager, r *http.Request) (*domain.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, domain.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := jwtManager.Verify(parts[1])
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
