package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rostralabs/rostra/internal/port/identity"
)

type authUserCtxKey struct{}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":               true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
}

// SessionAuth returns middleware that resolves the bearer session credential
// and stores the resulting user ID in the request context. The realtime
// endpoint is exempt: its authentication happens in-band after the upgrade.
func SessionAuth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			credential := bearerCredential(r)
			if credential == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			userID, err := resolver.Resolve(r.Context(), credential)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authUserCtxKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerCredential extracts the session credential from the Authorization
// header.
func bearerCredential(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return after
	}
	return ""
}

// UserIDFromContext returns the authenticated user ID, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(authUserCtxKey{}).(string)
	return id
}

// WithUserID returns a context carrying an authenticated user ID. Used by
// tests and internal callers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, authUserCtxKey{}, userID)
}
