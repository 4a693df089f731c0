package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrify/internal/domain/auth"
	"hrify/internal/domain/tenant"
)

func TestAuthMiddlewareSetsUserFromBearer(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Tenant: "acme", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Auth(secret, "hrify_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.Tenant != "acme" {
			t.Fatalf("unexpected user: %+v", user)
		}
		if role, ok := user.Role(); !ok || role != auth.RoleAdmin {
			t.Fatalf("unexpected role: %v", user.RoleClaim)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithTenant(req.Context(), tenant.FromLabel("acme")))
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("handler not called")
	}
}

func TestAuthMiddlewareReadsCookie(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u2", Tenant: "base", Role: "employee"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret, "hrify_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := GetUser(r.Context()); !ok || user.UserID != "u2" {
			t.Fatalf("expected cookie session, got %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "hrify_session", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareMissingOrInvalidToken(t *testing.T) {
	handler := Auth("secret", "hrify_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.Header.Set("Authorization", "Bearer not-a-jwt")
	handler.ServeHTTP(httptest.NewRecorder(), forged)
}

func TestAuthMiddlewareRejectsForeignTenantSession(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Tenant: "acme", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Tenant("hr-ify.com", false)(Auth(secret, "hrify_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})))

	cases := []struct {
		host string
		want int
	}{
		{"http://acme.hr-ify.com/", http.StatusOK},
		{"http://beta.hr-ify.com/", http.StatusUnauthorized},
		{"http://hr-ify.com/", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.host, nil)
		req.AddCookie(&http.Cookie{Name: "hrify_session", Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.host, tc.want, rec.Code)
		}
	}
}
