package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hrify/internal/domain/auth"
	"hrify/internal/domain/tenant"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, 2*time.Second, WithGetRetries(2, time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

var acmeScope = Scope{Token: "bt-1", Tenant: tenant.Tenant{Label: "acme", Type: tenant.TypeCompany}, RequestID: "req-1"}

func TestClientSendsScopeHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/employee/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer bt-1" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get("x-tenant") != "acme" || r.Header.Get("x-tenant-type") != "company" {
			t.Errorf("missing tenant headers: %v", r.Header)
		}
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Errorf("missing request id")
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"42","name":"Ada","email":"ada@acme.test"}}`)
	})

	emp, err := client.GetEmployee(context.Background(), acmeScope, "42")
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if emp.ID != "42" || emp.Name != "Ada" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
}

func TestClientNonSuccessIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"email already exists"}`)
	})

	_, err := client.CreateEmployee(context.Background(), acmeScope, EmployeeInput{Email: "ada@acme.test"})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message() != "email already exists" {
		t.Fatalf("unexpected api error: %+v %q", apiErr, apiErr.Message())
	}
}

func TestClientRetriesGetOnGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1}]`)
	})

	out, err := client.ListUsers(context.Background(), acmeScope, nil)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if calls.Load() != 3 || string(out) != `[{"id":1}]` {
		t.Fatalf("unexpected result after %d calls: %s", calls.Load(), out)
	}
}

func TestClientDoesNotRetryMutations(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.CreateLoan(context.Background(), acmeScope, LoanInput{Amount: 100}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestClientDoesNotRetryUndecodableBody(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"data": {not json`)
	})

	_, err := client.GetEmployee(context.Background(), acmeScope, "7")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := AsAPIError(err); ok {
		t.Fatalf("decode failure must not look like an api error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestRetryableClassifiesTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gateway", &APIError{Status: http.StatusBadGateway}, true},
		{"conflict", &APIError{Status: http.StatusConflict}, false},
		{"transport", &url.Error{Op: "Get", URL: "http://backend", Err: errors.New("connection refused")}, true},
		{"canceled", &url.Error{Op: "Get", URL: "http://backend", Err: context.Canceled}, false},
		{"decode", &json.SyntaxError{}, false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		if got := retryable(tc.err); got != tc.want {
			t.Fatalf("%s: retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClientSendsJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/loan/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body LoanInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Amount != 250 || body.Installments != 5 {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = io.WriteString(w, `{"id":7}`)
	})

	out, err := client.UpdateLoan(context.Background(), acmeScope, "7", LoanInput{Amount: 250, Installments: 5})
	if err != nil {
		t.Fatalf("update loan: %v", err)
	}
	if string(out) != `{"id":7}` {
		t.Fatalf("unexpected body: %s", out)
	}
}

func TestAuthenticate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body signInRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Header.Get("x-tenant") != "acme" {
			t.Errorf("expected tenant header on sign-in")
		}
		if body.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"bad credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"token":"bt-9","user":{"id":9,"email":"Ada@Acme.test","name":"Ada","role":"ADMIN"}}}`)
	})

	identity, err := client.Authenticate(context.Background(), auth.Credentials{Email: "ada@acme.test", Password: "right", Tenant: "acme"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != "9" || identity.BackendToken != "bt-9" || identity.Email != "ada@acme.test" || identity.Role != "ADMIN" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	_, err = client.Authenticate(context.Background(), auth.Credentials{Email: "ada@acme.test", Password: "wrong", Tenant: "acme"})
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("ftp://backend", time.Second); err == nil {
		t.Fatal("expected scheme error")
	}
}

func TestURLJoin(t *testing.T) {
	client, err := New("http://backend:4000/api/", time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := client.URL("/loan/1", nil); got != "http://backend:4000/api/loan/1" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := client.URL("user/users", map[string][]string{"page": {"2"}}); !strings.HasSuffix(got, "/api/user/users?page=2") {
		t.Fatalf("unexpected url %q", got)
	}
}
