package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"hrify/internal/backend"
	"hrify/internal/domain/draft"
)

type fakeEmployees struct {
	created []backend.EmployeeInput
	updated map[string]backend.EmployeeInput
	record  backend.Employee
	err     error
}

func (f *fakeEmployees) GetEmployee(_ context.Context, _ backend.Scope, id string) (backend.Employee, error) {
	if f.err != nil {
		return backend.Employee{}, f.err
	}
	rec := f.record
	rec.ID = id
	return rec, nil
}

func (f *fakeEmployees) CreateEmployee(_ context.Context, _ backend.Scope, input backend.EmployeeInput) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	return json.RawMessage(`{"id":"new-1"}`), nil
}

func (f *fakeEmployees) UpdateEmployee(_ context.Context, _ backend.Scope, id string, input backend.EmployeeInput) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = map[string]backend.EmployeeInput{}
	}
	f.updated[id] = input
	return json.RawMessage(`{"id":"` + id + `"}`), nil
}

func seededSession(t *testing.T, drafts *draft.Service) *Session {
	t.Helper()
	ctx := context.Background()
	session := OpenSession(ctx, drafts, owner, time.Now())
	d := completeDraft()
	for _, step := range draft.Steps {
		if err := session.UpdateFormData(ctx, step, d.Get(step)); err != nil {
			t.Fatalf("seed %s: %v", step, err)
		}
	}
	return session
}

func TestSubmitCreateClearsDraft(t *testing.T) {
	ctx := context.Background()
	drafts := draft.NewService(draft.NewMemoryStore())
	api := &fakeEmployees{}
	session := seededSession(t, drafts)

	result, err := NewSubmitter(api).Submit(ctx, backend.Scope{}, session, Target{Mode: ModeCreate})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(api.created) != 1 || api.created[0].Email != "ada@acme.test" {
		t.Fatalf("unexpected create calls: %+v", api.created)
	}
	if string(result.Employee) != `{"id":"new-1"}` {
		t.Fatalf("unexpected result: %s", result.Employee)
	}
	if drafts.Load(ctx, owner) != nil {
		t.Fatal("expected draft cleared after submit")
	}
}

func TestSubmitEditUsesUpdate(t *testing.T) {
	drafts := draft.NewService(draft.NewMemoryStore())
	api := &fakeEmployees{}
	session := seededSession(t, drafts)

	if _, err := NewSubmitter(api).Submit(context.Background(), backend.Scope{}, session, Target{Mode: ModeEdit, EmployeeID: "7"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok := api.updated["7"]; !ok || len(api.created) != 0 {
		t.Fatalf("expected update of 7, got created=%d updated=%v", len(api.created), api.updated)
	}
}

func TestSubmitEditKeepsServerValuesForUntouchedSteps(t *testing.T) {
	ctx := context.Background()
	drafts := draft.NewService(draft.NewMemoryStore())
	api := &fakeEmployees{record: backend.Employee{EmployeeInput: backend.EmployeeInput{
		Name: "Grace", Email: "grace@acme.test", Role: "employee", JobTitle: "Analyst",
		EmployeeID: "E-42", Phone: "5550100", Address: "2 Side St", SickLeaves: 4,
	}}}
	session := OpenSession(ctx, drafts, owner, time.Now())
	if err := session.UpdateFormData(ctx, draft.StepContact, draft.ContactDetails{Phone: "5550199", Address: "3 New Rd"}); err != nil {
		t.Fatalf("save contact: %v", err)
	}

	if _, err := NewSubmitter(api).Submit(ctx, backend.Scope{}, session, Target{Mode: ModeEdit, EmployeeID: "42"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got := api.updated["42"]
	if got.Phone != "5550199" || got.Address != "3 New Rd" {
		t.Fatalf("edited step not sent: %+v", got)
	}
	if got.Name != "Grace" || got.JobTitle != "Analyst" || got.EmployeeID != "E-42" || got.SickLeaves != 4 {
		t.Fatalf("untouched steps must keep server values: %+v", got)
	}
	if got.Password != "" {
		t.Fatal("edit without a new password must not send one")
	}
}

func TestSubmitEditFailsWhenServerRecordUnavailable(t *testing.T) {
	ctx := context.Background()
	drafts := draft.NewService(draft.NewMemoryStore())
	upstream := &backend.APIError{Status: http.StatusNotFound}
	session := OpenSession(ctx, drafts, owner, time.Now())
	if err := session.UpdateFormData(ctx, draft.StepContact, draft.ContactDetails{Phone: "5550199", Address: "3 New Rd"}); err != nil {
		t.Fatalf("save contact: %v", err)
	}

	api := &fakeEmployees{err: upstream}
	if _, err := NewSubmitter(api).Submit(ctx, backend.Scope{}, session, Target{Mode: ModeEdit, EmployeeID: "42"}); !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(api.updated) != 0 || drafts.Load(ctx, owner) == nil {
		t.Fatal("no update may be sent and the draft must survive")
	}
}

func TestSubmitFailuresKeepDraft(t *testing.T) {
	ctx := context.Background()
	drafts := draft.NewService(draft.NewMemoryStore())
	upstream := &backend.APIError{Status: http.StatusConflict, Body: []byte(`{"message":"duplicate"}`)}
	session := seededSession(t, drafts)

	_, err := NewSubmitter(&fakeEmployees{err: upstream}).Submit(ctx, backend.Scope{}, session, Target{Mode: ModeCreate})
	if _, ok := backend.AsAPIError(err); !ok {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if drafts.Load(ctx, owner) == nil {
		t.Fatal("draft must survive a failed submission")
	}
}

func TestSubmitRuleViolations(t *testing.T) {
	ctx := context.Background()
	drafts := draft.NewService(draft.NewMemoryStore())
	api := &fakeEmployees{}
	session := OpenSession(ctx, drafts, owner, time.Now())

	_, err := NewSubmitter(api).Submit(ctx, backend.Scope{}, session, Target{Mode: ModeCreate})
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || len(ruleErr.Violations) == 0 {
		t.Fatalf("expected rule error, got %v", err)
	}
	if len(api.created) != 0 {
		t.Fatal("backend must not be called when rules fail")
	}

	if _, err := NewSubmitter(api).Submit(ctx, backend.Scope{}, session, Target{Mode: ModeEdit}); !errors.Is(err, ErrMissingEmployeeID) {
		t.Fatalf("expected ErrMissingEmployeeID, got %v", err)
	}
}

func TestPrefillWritesAllSteps(t *testing.T) {
	ctx := context.Background()
	drafts := draft.NewService(draft.NewMemoryStore())
	api := &fakeEmployees{record: backend.Employee{EmployeeInput: backend.EmployeeInput{
		Name: "Grace", Email: "grace@acme.test", Phone: "5550100", SickLeaves: 3,
	}}}
	session := OpenSession(ctx, drafts, owner, time.Now())

	d, err := NewSubmitter(api).Prefill(ctx, backend.Scope{}, session, "42")
	if err != nil {
		t.Fatalf("prefill: %v", err)
	}
	if d.PersonalDetails.Name != "Grace" || d.ContactDetails.Phone != "5550100" || d.LeavesCountDetails.SickLeaves != "3" {
		t.Fatalf("unexpected prefilled draft: %+v", d)
	}
	stored := drafts.Load(ctx, owner)
	if stored == nil || stored.Version != int64(len(draft.Steps)) {
		t.Fatalf("expected every step persisted, got %+v", stored)
	}
}

func TestRenderSummaryOmitsPassword(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(completeDraft(), Target{Mode: ModeCreate}, time.Now(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected a PDF document")
	}
	if bytes.Contains(buf.Bytes(), []byte("initial-pass")) {
		t.Fatal("password must not be printed")
	}
}
