package middleware

import (
	"net/http"
	"strings"

	"github.com/campusfeed/backend/internal/auth"
	"github.com/campusfeed/backend/internal/respond"
)

// TokenVerifier decodes a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth is middleware that validates the bearer token and injects the
// caller identity into the request context.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Message(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			id, err := tokens.Verify(token)
			if err != nil {
				respond.Message(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not listed.
// It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			if !ok {
				respond.Message(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				respond.Message(w, http.StatusForbidden, "Forbidden: insufficient rights")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
