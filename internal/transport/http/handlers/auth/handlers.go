package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrify/internal/domain/access"
	"hrify/internal/domain/auth"
	"hrify/internal/platform/requestctx"
	"hrify/internal/transport/http/api"
	"hrify/internal/transport/http/middleware"
	"hrify/internal/transport/http/shared"
)

type Handler struct {
	Provider      auth.Provider
	Secret        string
	CookieName    string
	TTL           time.Duration
	SecureCookie  bool
	Locales       []string
	DefaultLocale string
}

func NewHandler(provider auth.Provider, secret, cookieName string, ttl time.Duration) *Handler {
	return &Handler{
		Provider:      provider,
		Secret:        secret,
		CookieName:    cookieName,
		TTL:           ttl,
		Locales:       []string{"en"},
		DefaultLocale: "en",
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/sign-in", h.HandleSignIn)
	r.Post("/auth/sign-out", h.HandleSignOut)
	r.With(middleware.RequireSession).Get("/auth/session", h.HandleSession)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
	Locale   string `json:"locale"`
}

type sessionUser struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	Tenant string `json:"tenant"`
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload signInRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	validator := shared.NewValidator()
	validator.Required("email", payload.Email, "is required")
	validator.Required("password", payload.Password, "is required")
	if validator.Reject(w, requestID) {
		return
	}

	t := middleware.GetTenant(r.Context())
	identity, err := h.Provider.Authenticate(r.Context(), auth.Credentials{
		Email:    strings.TrimSpace(payload.Email),
		Password: payload.Password,
		MFACode:  strings.TrimSpace(payload.MFACode),
		Tenant:   t.Label,
	})
	switch {
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
		return
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	case err != nil:
		slog.Warn("sign-in provider failed", "tenant", t.Label, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusBadGateway, "upstream_unavailable", "sign-in service unavailable", requestID)
		return
	}

	role, ok := auth.ParseRole(identity.Role)
	if !ok {
		slog.Warn("sign-in rejected unknown role", "userId", identity.UserID, "role", identity.Role, "requestId", requestID)
		api.Fail(w, http.StatusForbidden, "forbidden", "account role is not supported", requestID)
		return
	}

	claims := auth.Claims{
		UserID:       identity.UserID,
		Email:        identity.Email,
		Name:         identity.Name,
		Role:         role.String(),
		Tenant:       t.Label,
		BackendToken: identity.BackendToken,
	}
	token, err := auth.GenerateToken(h.Secret, claims, h.TTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.TTL.Seconds()),
	})

	api.Success(w, map[string]any{
		"token":    token,
		"user":     userView(auth.SessionFromClaims(&claims)),
		"redirect": access.LandingPath(h.locale(payload.Locale), role),
	}, requestID)
}

func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	api.Success(w, map[string]string{"status": "signed_out"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, userView(user), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) locale(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range h.Locales {
		if candidate == raw {
			return raw
		}
	}
	return h.DefaultLocale
}

func userView(s auth.Session) sessionUser {
	return sessionUser{ID: s.UserID, Email: s.Email, Name: s.Name, Role: s.RoleClaim, Tenant: s.Tenant}
}
