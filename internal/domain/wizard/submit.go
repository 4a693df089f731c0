package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"hrify/internal/backend"
	"hrify/internal/domain/draft"
)

var ErrMissingEmployeeID = errors.New("edit mode requires an employee id")

// EmployeeAPI is the part of the backend the wizard writes through.
type EmployeeAPI interface {
	GetEmployee(ctx context.Context, scope backend.Scope, id string) (backend.Employee, error)
	CreateEmployee(ctx context.Context, scope backend.Scope, input backend.EmployeeInput) (json.RawMessage, error)
	UpdateEmployee(ctx context.Context, scope backend.Scope, id string, input backend.EmployeeInput) (json.RawMessage, error)
}

type Result struct {
	Target   Target          `json:"target"`
	Employee json.RawMessage `json:"employee,omitempty"`
}

type Submitter struct {
	api   EmployeeAPI
	rules []Rule
}

func NewSubmitter(api EmployeeAPI) *Submitter {
	return &Submitter{api: api, rules: SubmitRules}
}

// Submit checks the cross-step rules, sends the assembled payload and clears
// the draft once the backend accepted it. Any failure leaves the draft intact.
// In edit mode, steps the draft never touched are taken from the server record.
func (s *Submitter) Submit(ctx context.Context, scope backend.Scope, session *Session, target Target) (Result, error) {
	if target.Mode == ModeEdit && strings.TrimSpace(target.EmployeeID) == "" {
		return Result{}, ErrMissingEmployeeID
	}
	data := session.FormData()
	if target.Mode == ModeEdit {
		if absent := session.absentSteps(); len(absent) > 0 {
			emp, err := s.api.GetEmployee(ctx, scope, target.EmployeeID)
			if err != nil {
				return Result{}, err
			}
			for _, current := range StepsFromEmployee(emp) {
				if slices.Contains(absent, current.Step()) {
					data.Apply(current)
				}
			}
		}
	}
	violations, err := CheckRules(s.rules, data, target)
	if err != nil {
		return Result{}, err
	}
	if len(violations) > 0 {
		return Result{}, &RuleError{Violations: violations}
	}
	payload, err := BuildPayload(data, target)
	if err != nil {
		return Result{}, err
	}

	var resp json.RawMessage
	if target.Mode == ModeEdit {
		resp, err = s.api.UpdateEmployee(ctx, scope, target.EmployeeID, payload)
	} else {
		resp, err = s.api.CreateEmployee(ctx, scope, payload)
	}
	if err != nil {
		return Result{}, err
	}

	if err := session.complete(ctx); err != nil {
		slog.Warn("draft cleanup after submit failed", "owner", session.Owner().Key(), "err", err)
	}
	return Result{Target: target, Employee: resp}, nil
}

// Prefill loads the server record of employeeID into every step so an edit
// session starts from current values.
func (s *Submitter) Prefill(ctx context.Context, scope backend.Scope, session *Session, employeeID string) (draft.Draft, error) {
	if strings.TrimSpace(employeeID) == "" {
		return draft.Draft{}, ErrMissingEmployeeID
	}
	emp, err := s.api.GetEmployee(ctx, scope, employeeID)
	if err != nil {
		return draft.Draft{}, err
	}
	for _, data := range StepsFromEmployee(emp) {
		if err := session.UpdateFormData(ctx, data.Step(), data); err != nil {
			return session.FormData(), err
		}
	}
	return session.FormData(), nil
}
