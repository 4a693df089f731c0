package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidatorRejectWritesFields(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "is required")
	v.Enum("role", "owner", []string{"admin", "employee"}, "must be admin or employee")
	v.Length("phone", "12", 7, 20, "must be 7 to 20 characters")
	v.Pattern("machineId", "12a", func(s string) bool { return s == "12" }, "must contain digits only")
	if _, ok := v.Date("joiningDate", "31/12/2026"); ok {
		t.Fatal("expected invalid date")
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected reject")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error.Code != "validation_error" || body.RequestID != "req-1" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if len(body.Error.Details.Fields) != 5 || body.Error.Details.Fields[0].Field != "joiningDate" {
		t.Fatalf("expected sorted field issues, got %+v", body.Error.Details.Fields)
	}
}

func TestValidatorNoIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", "Ada", "is required")
	v.Enum("role", "Admin", []string{"admin", "employee"}, "bad role")
	v.Length("phone", "", 7, 20, "bad length")
	rec := httptest.NewRecorder()
	if v.Reject(rec, "") {
		t.Fatal("did not expect reject")
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/users?limit=500&offset=20", nil)
	p := ParsePagination(r, 25, 100)
	if p.Limit != 100 || p.Offset != 20 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}
