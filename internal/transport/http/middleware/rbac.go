package middleware

import (
	"net/http"

	"hrify/internal/domain/auth"
	"hrify/internal/transport/http/api"
)

// RequireRole rejects API calls without a session (401) or with a role
// outside allowed (403). Unknown role claims are rejected.
func RequireRole(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}

			role, ok := user.Role()
			if !ok || !role.In(allowed) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects anonymous API calls.
func RequireSession(next http.Handler) http.Handler {
	return RequireRole(auth.Roles...)(next)
}
