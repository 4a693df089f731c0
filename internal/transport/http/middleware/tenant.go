package middleware

import (
	"net/http"

	"hrify/internal/domain/tenant"
)

// Tenant resolves the tenant from the host and exposes it on the request
// headers and context. Inbound x-tenant headers are overwritten.
func Tenant(baseDomain string, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := tenant.FromRequest(r, baseDomain, trustProxy)
			t.Apply(r.Header)
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}
