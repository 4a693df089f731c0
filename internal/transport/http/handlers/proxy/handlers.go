package proxyhandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrify/internal/backend"
	"hrify/internal/domain/auth"
	"hrify/internal/platform/requestctx"
	"hrify/internal/transport/http/api"
	"hrify/internal/transport/http/middleware"
)

// Forwarder relays one request upstream. Nothing is written on error.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, upstreamPath string, scope backend.Scope) error
}

type Handler struct {
	Proxy Forwarder
}

func NewHandler(p Forwarder) *Handler {
	return &Handler{Proxy: p}
}

// RegisterRoutes mounts the pass-through prefixes. Subdomain lookups run
// before sign-in; payroll uploads and migration are admin only.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/company/subdomain/*", h.forward("/company/subdomain"))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.HandleFunc("/migration/*", h.forward("/migration"))
		r.HandleFunc("/excel-payroll/*", h.forward("/excel-payroll"))
		r.HandleFunc("/lambda-payroll/*", h.forward("/lambda-payroll"))
	})
}

func (h *Handler) forward(upstreamPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upstreamPath := upstreamPrefix + "/" + chi.URLParam(r, "*")
		if err := h.Proxy.Forward(w, r, upstreamPath, middleware.BackendScope(r)); err != nil {
			requestID := requestctx.GetRequestID(r.Context())
			slog.Warn("proxy forward failed", "path", r.URL.Path, "upstream", upstreamPath, "err", err, "requestId", requestID)
			api.Fail(w, http.StatusInternalServerError, "upstream_unavailable", "upstream service unavailable", requestID)
		}
	}
}
