package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gatherline/server/internal/auth"
	"github.com/rs/zerolog"
)

type contextKeyAuth string

const principalKey contextKeyAuth = "principal"

// RequireAuth verifies the bearer token and stores the resolved principal
// in the request context. Requests without a valid token get 401.
func RequireAuth(manager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				denyAuth(w, r, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				denyAuth(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to principals holding one of the given roles.
// Must run inside RequireAuth.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				denyAuth(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if !auth.HasRole(principal.Role, roles...) {
				denyAuth(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(auth.Principal)
	return principal, ok
}

// WithPrincipal is a test hook for seeding an authenticated context.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func denyAuth(w http.ResponseWriter, r *http.Request, status int, message string) {
	zerolog.Ctx(r.Context()).Debug().
		Int("status", status).
		Str("path", r.URL.Path).
		Msg("request denied")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
