package wizardhandler

import (
	"encoding/json"
	"io"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hrify/internal/domain/draft"
	"hrify/internal/domain/wizard"
	"hrify/internal/transport/http/shared"
)

var (
	phonePattern  = regexp.MustCompile(`^\+?[0-9][0-9 \-]*$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

const minPasswordLength = 8

type personalForm struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	JobTitle    string `json:"jobTitle"`
	Avatar      string `json:"avatar"`
	JoiningDate string `json:"joiningDate"`
}

type accountForm struct {
	Email      string `json:"email"`
	EmployeeID string `json:"employeeId"`
	MachineID  string `json:"machineId"`
	Password   string `json:"password"`
}

type contactForm struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type emergencyForm struct {
	Phone1    string `json:"phone1"`
	Relation1 string `json:"relation1"`
	Phone2    string `json:"phone2"`
	Relation2 string `json:"relation2"`
	Address   string `json:"address"`
}

type leavesForm struct {
	ExpiryDate   string `json:"expiryDate"`
	SickLeaves   string `json:"sickLeaves"`
	CasualLeaves string `json:"casualLeaves"`
	AnnualLeaves string `json:"annualLeaves"`
}

// decodeStep reads the form of one step and validates it. Issues land in v;
// the returned data is nil whenever v has issues or the body is unreadable.
func decodeStep(body io.Reader, step draft.Step, target wizard.Target, v *shared.Validator) (draft.StepData, error) {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	switch step {
	case draft.StepPersonal:
		var form personalForm
		if err := dec.Decode(&form); err != nil {
			return nil, err
		}
		return form.validate(v), nil
	case draft.StepAccount:
		var form accountForm
		if err := dec.Decode(&form); err != nil {
			return nil, err
		}
		return form.validate(v, target), nil
	case draft.StepContact:
		var form contactForm
		if err := dec.Decode(&form); err != nil {
			return nil, err
		}
		return form.validate(v), nil
	case draft.StepEmergencyContact:
		var form emergencyForm
		if err := dec.Decode(&form); err != nil {
			return nil, err
		}
		return form.validate(v), nil
	case draft.StepLeavesCount:
		var form leavesForm
		if err := dec.Decode(&form); err != nil {
			return nil, err
		}
		return form.validate(v), nil
	}
	return nil, draft.ErrUnknownStep
}

func (f personalForm) validate(v *shared.Validator) draft.StepData {
	v.Required("name", f.Name, "is required")
	v.Required("role", f.Role, "is required")
	v.Enum("role", f.Role, []string{"admin", "employee"}, "must be admin or employee")
	v.Required("jobTitle", f.JobTitle, "is required")
	joining := optionalDate(v, "joiningDate", f.JoiningDate)
	if v.HasIssues() {
		return nil
	}
	return draft.PersonalDetails{
		Name:        strings.TrimSpace(f.Name),
		Role:        strings.ToLower(strings.TrimSpace(f.Role)),
		JobTitle:    strings.TrimSpace(f.JobTitle),
		Avatar:      strings.TrimSpace(f.Avatar),
		JoiningDate: joining,
	}
}

func (f accountForm) validate(v *shared.Validator, target wizard.Target) draft.StepData {
	v.Required("email", f.Email, "is required")
	v.Pattern("email", f.Email, validEmail, "must be a valid email address")
	v.Required("employeeId", f.EmployeeID, "is required")
	v.Pattern("machineId", f.MachineID, digitsPattern.MatchString, "must contain digits only")
	if target.Mode != wizard.ModeEdit {
		v.Required("password", f.Password, "is required")
	}
	if f.Password != "" && len([]rune(f.Password)) < minPasswordLength {
		v.Add("password", "must be at least 8 characters")
	}
	if v.HasIssues() {
		return nil
	}
	return draft.AccountDetails{
		Email:      strings.TrimSpace(f.Email),
		EmployeeID: strings.TrimSpace(f.EmployeeID),
		MachineID:  strings.TrimSpace(f.MachineID),
		Password:   f.Password,
	}
}

func (f contactForm) validate(v *shared.Validator) draft.StepData {
	validatePhone(v, "phone", f.Phone, true)
	v.Required("address", f.Address, "is required")
	if v.HasIssues() {
		return nil
	}
	return draft.ContactDetails{Phone: strings.TrimSpace(f.Phone), Address: strings.TrimSpace(f.Address)}
}

func (f emergencyForm) validate(v *shared.Validator) draft.StepData {
	validatePhone(v, "phone1", f.Phone1, true)
	v.Required("relation1", f.Relation1, "is required")
	validatePhone(v, "phone2", f.Phone2, false)
	phone2, relation2 := strings.TrimSpace(f.Phone2), strings.TrimSpace(f.Relation2)
	if phone2 == "" && relation2 != "" {
		v.Add("phone2", "is required when relation2 is set")
	}
	if phone2 != "" && relation2 == "" {
		v.Add("relation2", "is required when phone2 is set")
	}
	if v.HasIssues() {
		return nil
	}
	return draft.EmergencyContactDetails{
		Phone1:    strings.TrimSpace(f.Phone1),
		Relation1: strings.TrimSpace(f.Relation1),
		Phone2:    phone2,
		Relation2: relation2,
		Address:   strings.TrimSpace(f.Address),
	}
}

func (f leavesForm) validate(v *shared.Validator) draft.StepData {
	var expiry *time.Time
	if parsed, ok := v.Date("expiryDate", f.ExpiryDate); ok {
		expiry = &parsed
	}
	sick := leaveField(v, "sickLeaves", f.SickLeaves)
	casual := leaveField(v, "casualLeaves", f.CasualLeaves)
	annual := leaveField(v, "annualLeaves", f.AnnualLeaves)
	if v.HasIssues() {
		return nil
	}
	return draft.LeavesCountDetails{ExpiryDate: expiry, SickLeaves: sick, CasualLeaves: casual, AnnualLeaves: annual}
}

func optionalDate(v *shared.Validator, field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, ok := v.Date(field, raw)
	if !ok {
		return nil
	}
	return &parsed
}

func validatePhone(v *shared.Validator, field, value string, required bool) {
	if required {
		v.Required(field, value, "is required")
	}
	v.Pattern(field, value, phonePattern.MatchString, "may contain digits, +, spaces and dashes only")
	v.Length(field, value, 7, 20, "must be between 7 and 20 characters")
}

func leaveField(v *shared.Validator, field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0"
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		v.Add(field, "must be a non-negative whole number")
		return raw
	}
	return strconv.Itoa(n)
}

func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}
