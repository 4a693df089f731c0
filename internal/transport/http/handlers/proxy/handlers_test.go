package proxyhandler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrify/internal/backend"
	"hrify/internal/domain/auth"
	"hrify/internal/domain/tenant"
	"hrify/internal/transport/http/middleware"
)

func TestProxyRelaysUpstream(t *testing.T) {
	var gotPath, gotQuery, gotTenant, gotAuth, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		gotTenant, gotAuth = r.Header.Get(tenant.HeaderTenant), r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"queued":true}`))
	}))
	defer upstream.Close()

	client, err := backend.New(upstream.URL, time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	r := chi.NewRouter()
	r.Use(middleware.Tenant("hr-ify.com", false))
	NewHandler(backend.NewProxy(client)).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "http://acme.hr-ify.com/excel-payroll/upload?month=3", strings.NewReader(`{"rows":1}`))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.Session{UserID: "u1", Tenant: "acme", RoleClaim: "admin", BackendToken: "bt-9"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted || rec.Body.String() != `{"queued":true}` {
		t.Fatalf("unexpected relay %d %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/excel-payroll/upload" || gotQuery != "month=3" || gotBody != `{"rows":1}` {
		t.Fatalf("unexpected upstream request %s?%s %s", gotPath, gotQuery, gotBody)
	}
	if gotTenant != "acme" || gotAuth != "Bearer bt-9" {
		t.Fatalf("unexpected upstream headers tenant=%q auth=%q", gotTenant, gotAuth)
	}
}

func TestProxyUpstreamUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	base := upstream.URL
	upstream.Close()

	client, err := backend.New(base, time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	r := chi.NewRouter()
	NewHandler(backend.NewProxy(client)).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/company/subdomain/acme", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"upstream_unavailable"`) {
		t.Fatalf("expected 500 upstream_unavailable, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestProxyAdminOnlyPrefixes(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/migration/run", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
