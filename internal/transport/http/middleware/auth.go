package middleware

import (
	"net/http"
	"strings"

	"hrify/internal/domain/auth"
	"hrify/internal/domain/tenant"
)

// Auth attaches the session from the session cookie or a bearer token.
// Invalid or expired tokens, and sessions issued for another tenant than the
// one resolved from the host, leave the request anonymous. Tenant must run first.
func Auth(secret, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if tenant.FromLabel(claims.Tenant) != GetTenant(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), auth.SessionFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
