package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/whisperly-api/internal/domain"
	jwtinfra "github.com/whisperly-api/internal/infrastructure/jwt"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the resolved caller identity injected into the request context.
// It is built from the live user record, not just the token claims, so a
// token whose identity has since been deleted never reaches a handler.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type userResolver interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Auth returns middleware that validates the Bearer JWT, resolves it back to
// the stored identity and injects an Identity value into the context.
func Auth(provider tokenVerifier, users userResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			u, err := users.Get(r.Context(), claims.UserID)
			if err != nil {
				// Token may be structurally valid while the identity is gone.
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ident := &Identity{UserID: u.UserID, Email: u.Email, Role: u.Role}
			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the resolved identity from the request context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*Identity)
	return ident, ok
}
