package dashboardhandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrify/internal/backend"
	"hrify/internal/domain/auth"
	"hrify/internal/platform/requestctx"
	"hrify/internal/transport/http/api"
	"hrify/internal/transport/http/middleware"
	"hrify/internal/transport/http/shared"
)

// Backend is the typed client surface the dashboard pages call through.
type Backend interface {
	GetEmployee(ctx context.Context, scope backend.Scope, id string) (backend.Employee, error)
	ListUsers(ctx context.Context, scope backend.Scope, query url.Values) (json.RawMessage, error)
	CreateLoan(ctx context.Context, scope backend.Scope, input backend.LoanInput) (json.RawMessage, error)
	UpdateLoan(ctx context.Context, scope backend.Scope, id string, input backend.LoanInput) (json.RawMessage, error)
	DeleteLoan(ctx context.Context, scope backend.Scope, id string) error
	ListSalaryIncrements(ctx context.Context, scope backend.Scope, employeeID string) (json.RawMessage, error)
	CreateSalaryIncrement(ctx context.Context, scope backend.Scope, input backend.SalaryIncrementInput) (json.RawMessage, error)
}

type Handler struct {
	Backend Backend
}

func NewHandler(b Backend) *Handler {
	return &Handler{Backend: b}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/users", h.HandleListUsers)
		r.Get("/employees/{id}", h.HandleGetEmployee)
		r.Post("/loans", h.HandleCreateLoan)
		r.Patch("/loans/{id}", h.HandleUpdateLoan)
		r.Delete("/loans/{id}", h.HandleDeleteLoan)
		r.Get("/salary-increments/employee/{employeeID}", h.HandleListSalaryIncrements)
		r.Post("/salary-increments", h.HandleCreateSalaryIncrement)
	})
}

type loanRequest struct {
	EmployeeID   string  `json:"employeeId"`
	Amount       float64 `json:"amount"`
	Installments int     `json:"installments"`
	StartDate    string  `json:"startDate"`
	Reason       string  `json:"reason"`
}

type salaryIncrementRequest struct {
	EmployeeID    string  `json:"employeeId"`
	Amount        float64 `json:"amount"`
	EffectiveDate string  `json:"effectiveDate"`
	Note          string  `json:"note"`
}

var userFilters = []string{"search", "role", "status"}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	query := url.Values{}
	query.Set("limit", strconv.Itoa(page.Limit))
	query.Set("offset", strconv.Itoa(page.Offset))
	for _, key := range userFilters {
		if value := strings.TrimSpace(r.URL.Query().Get(key)); value != "" {
			query.Set(key, value)
		}
	}
	out, err := h.Backend.ListUsers(r.Context(), middleware.BackendScope(r), query)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.Success(w, out, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	emp, err := h.Backend.GetEmployee(r.Context(), middleware.BackendScope(r), id)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	emp.Password = ""
	api.Success(w, emp, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateLoan(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	input, ok := decodeLoan(w, r, true)
	if !ok {
		return
	}
	out, err := h.Backend.CreateLoan(r.Context(), middleware.BackendScope(r), input)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.Created(w, out, requestID)
}

func (h *Handler) HandleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	input, ok := decodeLoan(w, r, false)
	if !ok {
		return
	}
	out, err := h.Backend.UpdateLoan(r.Context(), middleware.BackendScope(r), chi.URLParam(r, "id"), input)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.Success(w, out, requestID)
}

func (h *Handler) HandleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.Backend.DeleteLoan(r.Context(), middleware.BackendScope(r), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleListSalaryIncrements(w http.ResponseWriter, r *http.Request) {
	out, err := h.Backend.ListSalaryIncrements(r.Context(), middleware.BackendScope(r), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.Success(w, out, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleCreateSalaryIncrement(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload salaryIncrementRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "is required")
	if payload.Amount <= 0 {
		validator.Add("amount", "must be greater than zero")
	}
	effective, _ := validator.Date("effectiveDate", payload.EffectiveDate)
	if validator.Reject(w, requestID) {
		return
	}
	out, err := h.Backend.CreateSalaryIncrement(r.Context(), middleware.BackendScope(r), backend.SalaryIncrementInput{
		EmployeeID:    strings.TrimSpace(payload.EmployeeID),
		Amount:        payload.Amount,
		EffectiveDate: effective.Format("2006-01-02"),
		Note:          strings.TrimSpace(payload.Note),
	})
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.Created(w, out, requestID)
}

func decodeLoan(w http.ResponseWriter, r *http.Request, create bool) (backend.LoanInput, bool) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload loanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return backend.LoanInput{}, false
	}
	validator := shared.NewValidator()
	if create {
		validator.Required("employeeId", payload.EmployeeID, "is required")
	}
	if payload.Amount <= 0 {
		validator.Add("amount", "must be greater than zero")
	}
	if payload.Installments <= 0 {
		validator.Add("installments", "must be at least 1")
	}
	var startDate string
	if strings.TrimSpace(payload.StartDate) != "" {
		if parsed, ok := validator.Date("startDate", payload.StartDate); ok {
			startDate = parsed.Format("2006-01-02")
		}
	}
	if validator.Reject(w, requestID) {
		return backend.LoanInput{}, false
	}
	return backend.LoanInput{
		EmployeeID:   strings.TrimSpace(payload.EmployeeID),
		Amount:       payload.Amount,
		Installments: payload.Installments,
		StartDate:    startDate,
		Reason:       strings.TrimSpace(payload.Reason),
	}, true
}

// writeBackendError forwards the backend status with its message. Network
// failures become 502 upstream_unavailable.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())
	if apiErr, ok := backend.AsAPIError(err); ok {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		api.Fail(w, status, "backend_error", apiErr.Message(), requestID)
		return
	}
	slog.Warn("backend call failed", "path", r.URL.Path, "err", err, "requestId", requestID)
	api.Fail(w, http.StatusBadGateway, "upstream_unavailable", "backend unavailable", requestID)
}
