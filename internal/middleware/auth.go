package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ledgerlink/backend/internal/models"
)

type contextKey string

const authContextKey contextKey = "authContext"

// Authenticator resolves a raw API key to the identity it represents.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*models.AuthContext, error)
}

// Auth extracts the credential from X-Api-Key, falling back to
// Authorization: Bearer, authenticates it and injects the resolved
// AuthContext into the request context.
func Auth(keys Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("X-Api-Key")
			if rawKey == "" {
				authHeader := r.Header.Get("Authorization")
				if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
					rawKey = after
				}
			}
			if strings.TrimSpace(rawKey) == "" {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required")
				return
			}

			auth, err := keys.Authenticate(r.Context(), rawKey)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), authContextKey, *auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards the admin subtree. Mount after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, ok := AuthFrom(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required")
			return
		}
		if !auth.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "admin role is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthFrom returns the AuthContext injected by Auth.
func AuthFrom(ctx context.Context) (models.AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(models.AuthContext)
	return auth, ok
}

// WithAuth is a test helper for handlers below the middleware.
func WithAuth(ctx context.Context, auth models.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
