package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/harunrashid4419/doctors-portal-server/internal/auth"
	"github.com/harunrashid4419/doctors-portal-server/internal/transport"
)

type emailKey struct{}

// RoleLookup resolves the stored role for an email. The guard never
// trusts a role claimed by the client.
type RoleLookup func(ctx context.Context, email string) (string, error)

// RequireAuth demands an `Authorization: Bearer <token>` header, verifies
// the token and attaches the embedded email to the request context.
// Missing credential is 401, invalid or expired is 403.
func RequireAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized access", nil)
				return
			}
			// Scheme matching is case-insensitive per RFC 7235.
			const prefix = "Bearer "
			if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized access", nil)
				return
			}
			token := header[len(prefix):]

			email, err := manager.Verify(token)
			if err != nil {
				transport.WriteError(w, http.StatusForbidden, "forbidden access", nil)
				return
			}

			ctx := context.WithValue(r.Context(), emailKey{}, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must be composed after RequireAuth: it looks up the stored
// role for the verified email and rejects everything but "admin".
func RequireAdmin(lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := EmailFromContext(r.Context())
			if email == "" {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized access", nil)
				return
			}

			role, err := lookup(r.Context(), email)
			if err != nil || role != "admin" {
				transport.WriteError(w, http.StatusForbidden, "forbidden access", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func EmailFromContext(ctx context.Context) string {
	if v := ctx.Value(emailKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
