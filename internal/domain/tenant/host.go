package tenant

import (
	"net/http"
	"strings"
)

// EffectiveHost returns the hostname the client addressed. X-Forwarded-Host is
// honoured only behind a trusted proxy.
func EffectiveHost(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if h := forwardedHost(r); h != "" {
			return NormalizeHostname(h)
		}
	}
	return NormalizeHostname(r.Host)
}

func forwardedHost(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("X-Forwarded-Host"))
	if raw == "" {
		return ""
	}
	first, _, ok := strings.Cut(raw, ",")
	if ok {
		raw = first
	}
	return strings.TrimSpace(raw)
}

func FromRequest(r *http.Request, baseDomain string, trustProxy bool) Tenant {
	return Resolve(EffectiveHost(r, trustProxy), baseDomain)
}
