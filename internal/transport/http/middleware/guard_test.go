package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"hrify/internal/domain/access"
	"hrify/internal/domain/auth"
	"hrify/internal/platform/metrics"
	"hrify/internal/platform/requestctx"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func withRole(r *http.Request, role string) *http.Request {
	return r.WithContext(WithUser(r.Context(), auth.Session{UserID: "u1", Tenant: "acme", RoleClaim: role}))
}

func TestEdgeGuardRedirects(t *testing.T) {
	guard, err := access.NewGuard([]string{"en", "ar"}, "en")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	handler := EdgeGuard(guard, metrics.New())(okHandler())

	tests := []struct {
		name     string
		role     string
		path     string
		status   int
		location string
	}{
		{name: "anonymous dashboard", path: "/ar/dashboard/admin/overview", status: http.StatusFound, location: "/ar/sign-in"},
		{name: "admin on employee", role: "admin", path: "/en/dashboard/employee/overview", status: http.StatusFound, location: "/en/dashboard/admin/overview"},
		{name: "employee own subtree", role: "employee", path: "/en/dashboard/employee/loans", status: http.StatusNoContent},
		{name: "api bypass", path: "/api/users", status: http.StatusNoContent},
		{name: "asset bypass", path: "/_next/static/chunk.js", status: http.StatusNoContent},
		{name: "service worker bypass", path: "/sw.js", status: http.StatusNoContent},
		{name: "public page", path: "/en/sign-in", status: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.role != "" {
				req = withRole(req, tc.role)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tc.location {
				t.Fatalf("expected location %q, got %q", tc.location, got)
			}
		})
	}
}

func TestRoleProtected(t *testing.T) {
	handler := RoleProtected("en", nil, auth.RoleEmployee)(okHandler())

	req := withRole(httptest.NewRequest(http.MethodGet, "/ar/dashboard/employee/overview", nil), "admin")
	req = req.WithContext(requestctx.WithLocale(req.Context(), "ar"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/ar/dashboard/admin/overview" {
		t.Fatalf("unexpected redirect %d %q", rec.Code, rec.Header().Get("Location"))
	}

	anon := httptest.NewRequest(http.MethodGet, "/en/dashboard/employee/overview", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, anon)
	if rec.Header().Get("Location") != "/en/sign-in" {
		t.Fatalf("expected sign-in, got %q", rec.Header().Get("Location"))
	}

	ok := withRole(httptest.NewRequest(http.MethodGet, "/en/dashboard/employee/overview", nil), "employee")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, ok)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(auth.RoleAdmin)(okHandler())

	tests := []struct {
		name   string
		role   string
		anon   bool
		status int
	}{
		{name: "anonymous", anon: true, status: http.StatusUnauthorized},
		{name: "employee", role: "employee", status: http.StatusForbidden},
		{name: "unknown role", role: "owner", status: http.StatusForbidden},
		{name: "admin", role: "admin", status: http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if !tc.anon {
			req = withRole(req, tc.role)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}
}
