package middleware

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"hrify/internal/domain/access"
	"hrify/internal/domain/auth"
	"hrify/internal/platform/metrics"
	"hrify/internal/platform/requestctx"
)

// EdgeGuard applies the dashboard path policy to every page request. API,
// asset and health check paths pass through untouched.
func EdgeGuard(guard *access.Guard, m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipEdgeGuard(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestctx.WithLocale(r.Context(), guard.Locale(r.URL.Path))
			decision := guard.CheckPath(SessionPtr(ctx), r.URL.Path)
			if !decision.Allow {
				redirect(w, r, decision, m)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleProtected guards a page subtree for the given roles, redirecting the
// way ProtectRoute decides.
func RoleProtected(defaultLocale string, m *metrics.Collector, allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := requestctx.GetLocale(r.Context(), defaultLocale)
			decision := access.ProtectRoute(SessionPtr(r.Context()), locale, allowed)
			if !decision.Allow {
				redirect(w, r, decision, m)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, decision access.Decision, m *metrics.Collector) {
	m.GuardRedirect(decision.Reason)
	slog.Info("guard redirect",
		"path", r.URL.Path,
		"to", decision.Redirect,
		"reason", decision.Reason,
		"requestId", GetRequestID(r.Context()),
	)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, decision.Redirect, http.StatusFound)
}

var edgeBypassPrefixes = []string{"/api/", "/_next/", "/static/", "/assets/", "/icons/", "/healthz", "/readyz", "/metrics"}

func skipEdgeGuard(p string) bool {
	if p == "/api" {
		return true
	}
	for _, prefix := range edgeBypassPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	switch path.Base(p) {
	case "sw.js", "manifest.json", "favicon.ico", "robots.txt", "offline.html":
		return true
	}
	return path.Ext(p) != "" && !strings.Contains(p, "/dashboard/")
}
