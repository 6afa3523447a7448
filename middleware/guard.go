package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/jwtauth"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by a guard.
func ClaimsFromContext(ctx context.Context) (*jwtauth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*jwtauth.Claims)
	return c, ok && c != nil
}

// RequireAccessToken rejects requests that do not carry a valid access token.
func RequireAccessToken(svc *jwtauth.Service) func(http.Handler) http.Handler {
	return Guard(svc, jwtauth.TokenAccess)
}

// Guard verifies the bearer token and requires its token_type to equal typ. Any failure
// answers 401 without detail.
func Guard(svc *jwtauth.Service, typ jwtauth.TokenType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := svc.VerifyToken(r.Context(), token)
			if err != nil || claims.TokenType != typ {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
