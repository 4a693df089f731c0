package wizardhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrify/internal/backend"
	"hrify/internal/domain/auth"
	"hrify/internal/domain/draft"
	"hrify/internal/domain/wizard"
	"hrify/internal/platform/metrics"
	"hrify/internal/platform/requestctx"
	"hrify/internal/transport/http/api"
	"hrify/internal/transport/http/middleware"
	"hrify/internal/transport/http/shared"
)

const submitEndpoint = "employee-wizard.submit"

// Drafts is the draft service as seen by the wizard API.
type Drafts interface {
	wizard.Drafts
	History(ctx context.Context, owner draft.Owner, limit int) ([]draft.Event, error)
}

type Handler struct {
	Drafts      Drafts
	Submitter   *wizard.Submitter
	Idempotency middleware.Idempotency
	Metrics     *metrics.Collector
	Now         func() time.Time
}

func NewHandler(drafts Drafts, submitter *wizard.Submitter, idem middleware.Idempotency, m *metrics.Collector) *Handler {
	return &Handler{Drafts: drafts, Submitter: submitter, Idempotency: idem, Metrics: m, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employee-wizard", func(r chi.Router) {
		r.Get("/nav", h.HandleNav)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/draft", h.HandleGetDraft)
			r.Put("/draft/{step}", h.HandleSaveStep)
			r.Delete("/draft", h.HandleResetDraft)
			r.Get("/history", h.HandleHistory)
			r.Get("/summary.pdf", h.HandleSummary)
			r.Post("/submit", h.HandleSubmit)
			r.Post("/prefill/{employeeID}", h.HandlePrefill)
		})
	})
}

type draftResponse struct {
	Stored  bool        `json:"stored"`
	Version int64       `json:"version"`
	Draft   draft.Draft `json:"draft"`
}

type submitRequest struct {
	Mode       string `json:"mode"`
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) HandleNav(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if strings.TrimSpace(path) == "" {
		shared.FailValidation(w, requestctx.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "path", Reason: "is required"}})
		return
	}
	api.Success(w, wizard.Resolve(path), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetDraft(w http.ResponseWriter, r *http.Request) {
	session := h.open(r)
	api.Success(w, sessionView(session), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleSaveStep(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	step, err := draft.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "unknown_step", err.Error(), requestID)
		return
	}

	validator := shared.NewValidator()
	data, err := decodeStep(r.Body, step, targetFromQuery(r), validator)
	if err != nil {
		h.Metrics.DraftSave(string(step), "invalid")
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if validator.Reject(w, requestID) {
		h.Metrics.DraftSave(string(step), "invalid")
		return
	}

	session := h.open(r)
	if err := session.UpdateFormData(r.Context(), step, data); err != nil {
		slog.Warn("draft save failed", "owner", session.Owner().Key(), "step", step, "err", err, "requestId", requestID)
		h.Metrics.DraftSave(string(step), "error")
		if errors.Is(err, draft.ErrConflict) {
			api.Fail(w, http.StatusConflict, "draft_conflict", "draft was changed concurrently, retry", requestID)
			return
		}
		api.Fail(w, http.StatusServiceUnavailable, "draft_unavailable", "draft could not be saved", requestID)
		return
	}
	h.Metrics.DraftSave(string(step), "ok")
	api.Success(w, sessionView(session), requestID)
}

func (h *Handler) HandleResetDraft(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	session := h.open(r)
	if err := session.ResetForm(r.Context()); err != nil {
		slog.Warn("draft reset failed", "owner", session.Owner().Key(), "err", err, "requestId", requestID)
		api.Fail(w, http.StatusServiceUnavailable, "draft_unavailable", "draft could not be cleared", requestID)
		return
	}
	api.Success(w, sessionView(session), requestID)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "limit", Reason: "must be between 1 and 200"}})
			return
		}
		limit = parsed
	}
	events, err := h.Drafts.History(r.Context(), ownerOf(r), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_failed", "failed to load draft history", requestID)
		return
	}
	if events == nil {
		events = []draft.Event{}
	}
	api.Success(w, events, requestID)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	session := h.open(r)
	var buf bytes.Buffer
	if err := wizard.RenderSummary(session.FormData(), targetFromQuery(r), h.Now(), &buf); err != nil {
		slog.Warn("summary render failed", "owner", session.Owner().Key(), "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to render summary", requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="employee-summary.pdf"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	var payload submitRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return
		}
	}
	target, ok := parseTarget(payload.Mode, payload.EmployeeID)
	if !ok {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "mode", Reason: "must be create or edit"}})
		return
	}

	owner := ownerOf(r)
	key := strings.TrimSpace(r.Header.Get(middleware.HeaderIdempotencyKey))
	hash := middleware.RequestHash(body)
	if key != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), owner.Tenant, owner.UserID, submitEndpoint, key, hash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different request", requestID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "failed to check idempotency key", requestID)
			return
		}
		if found {
			h.Metrics.Submission(string(target.Mode), "replayed")
			api.Raw(w, http.StatusOK, stored)
			return
		}
	}

	session := h.open(r)
	result, err := h.Submitter.Submit(r.Context(), middleware.BackendScope(r), session, target)
	if err != nil {
		h.Metrics.Submission(string(target.Mode), submitOutcome(err))
		h.failSubmit(w, r, err)
		return
	}
	h.Metrics.Submission(string(target.Mode), "ok")

	encoded, err := json.Marshal(api.Envelope{Success: true, Data: result, RequestID: requestID})
	if err != nil {
		api.Success(w, result, requestID)
		return
	}
	if key != "" && h.Idempotency != nil {
		if err := h.Idempotency.Save(r.Context(), owner.Tenant, owner.UserID, submitEndpoint, key, hash, encoded); err != nil {
			slog.Warn("idempotency save failed", "owner", owner.Key(), "err", err, "requestId", requestID)
		}
	}
	api.Raw(w, http.StatusOK, encoded)
}

func (h *Handler) HandlePrefill(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	session := h.open(r)
	if _, err := h.Submitter.Prefill(r.Context(), middleware.BackendScope(r), session, chi.URLParam(r, "employeeID")); err != nil {
		h.failSubmit(w, r, err)
		return
	}
	api.Success(w, sessionView(session), requestID)
}

func (h *Handler) failSubmit(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())
	var ruleErr *wizard.RuleError
	switch {
	case errors.As(err, &ruleErr):
		issues := make([]shared.ValidationIssue, 0, len(ruleErr.Violations))
		for _, v := range ruleErr.Violations {
			issues = append(issues, shared.ValidationIssue{Field: v.Field, Reason: v.Reason})
		}
		shared.FailValidation(w, requestID, issues)
		return
	case errors.Is(err, wizard.ErrMissingEmployeeID):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "employeeId", Reason: "is required in edit mode"}})
		return
	case errors.Is(err, draft.ErrConflict):
		api.Fail(w, http.StatusConflict, "draft_conflict", "draft was changed concurrently, retry", requestID)
		return
	}
	if apiErr, ok := backend.AsAPIError(err); ok {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		api.Fail(w, status, "backend_error", apiErr.Message(), requestID)
		return
	}
	slog.Warn("employee submission failed", "err", err, "requestId", requestID)
	api.Fail(w, http.StatusBadGateway, "upstream_unavailable", "employee service unavailable", requestID)
}

func (h *Handler) open(r *http.Request) *wizard.Session {
	return wizard.OpenSession(r.Context(), h.Drafts, ownerOf(r), h.Now())
}

func ownerOf(r *http.Request) draft.Owner {
	user, _ := middleware.GetUser(r.Context())
	return draft.Owner{Tenant: user.Tenant, UserID: user.UserID}
}

func sessionView(s *wizard.Session) draftResponse {
	data := s.FormData()
	return draftResponse{Stored: s.Stored(), Version: data.Version, Draft: data}
}

func targetFromQuery(r *http.Request) wizard.Target {
	target, ok := parseTarget(r.URL.Query().Get("mode"), r.URL.Query().Get("employeeId"))
	if !ok {
		return wizard.Target{Mode: wizard.ModeCreate}
	}
	return target
}

func parseTarget(mode, employeeID string) (wizard.Target, bool) {
	switch wizard.Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case "", wizard.ModeCreate:
		return wizard.Target{Mode: wizard.ModeCreate}, true
	case wizard.ModeEdit:
		return wizard.Target{Mode: wizard.ModeEdit, EmployeeID: strings.TrimSpace(employeeID)}, true
	}
	return wizard.Target{}, false
}

func submitOutcome(err error) string {
	var ruleErr *wizard.RuleError
	switch {
	case errors.As(err, &ruleErr), errors.Is(err, wizard.ErrMissingEmployeeID):
		return "rejected"
	}
	if _, ok := backend.AsAPIError(err); ok {
		return "backend_error"
	}
	return "error"
}
