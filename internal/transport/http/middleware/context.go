package middleware

import (
	"context"
	"net/http"

	"hrify/internal/backend"
	"hrify/internal/domain/auth"
	"hrify/internal/domain/tenant"
	"hrify/internal/platform/requestctx"
)

type ctxKey string

const (
	ctxKeyUser   ctxKey = "user"
	ctxKeyTenant ctxKey = "tenant"
)

func WithUser(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, ctxKeyUser, session)
}

func GetUser(ctx context.Context) (auth.Session, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.Session)
	return user, ok
}

// SessionPtr is GetUser shaped for the access guards, nil when absent.
func SessionPtr(ctx context.Context) *auth.Session {
	if user, ok := GetUser(ctx); ok {
		return &user
	}
	return nil
}

func WithTenant(ctx context.Context, t tenant.Tenant) context.Context {
	return context.WithValue(ctx, ctxKeyTenant, t)
}

// GetTenant falls back to the base tenant when resolution did not run.
func GetTenant(ctx context.Context) tenant.Tenant {
	if t, ok := ctx.Value(ctxKeyTenant).(tenant.Tenant); ok {
		return t
	}
	return tenant.Base
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}

// BackendScope is the upstream identity of r: the session's backend token,
// the host tenant and the request id.
func BackendScope(r *http.Request) backend.Scope {
	scope := backend.Scope{
		Tenant:    GetTenant(r.Context()),
		RequestID: GetRequestID(r.Context()),
	}
	if user, ok := GetUser(r.Context()); ok {
		scope.Token = user.BackendToken
	}
	return scope
}
