package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/GioMjds/savoury-api/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// accessTokenCookie mirrors session.AccessTokenCookie; the middleware reads
// the same carrier the login handler writes.
const accessTokenCookie = "access_token"

// TokenVerifier verifies a signed access token.
type TokenVerifier interface {
	VerifyAccess(token string) (*jwtinfra.AccessClaims, error)
}

// Auth returns middleware that validates the access token (cookie first,
// Authorization Bearer fallback) and injects its claims into the context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				http.Error(w, `{"error":"unauthorized - no session found"}`, http.StatusUnauthorized)
				return
			}
			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthUnavailable rejects every request. Installed in place of Auth when the
// process started without a signing secret, so protected routes fail closed.
func AuthUnavailable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"authentication is not configured"}`, http.StatusServiceUnavailable)
	})
}

// ClaimsFromContext extracts verified access token claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.AccessClaims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.AccessClaims)
	return c, ok
}

func extractToken(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
