package wizard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"hrify/internal/domain/draft"
)

// Rule is a cross-step check evaluated only at final submission. Expr must
// evaluate to true for the draft to pass.
type Rule struct {
	Field   string
	Message string
	Expr    string
}

type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// RuleError carries every failed rule of a submission.
type RuleError struct {
	Violations []Violation
}

func (e *RuleError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return "submission rules failed: " + strings.Join(parts, "; ")
}

var SubmitRules = []Rule{
	{
		Field:   "personalDetails.name",
		Message: "name is required",
		Expr:    `draft.personalDetails.name != ""`,
	},
	{
		Field:   "accountDetails.email",
		Message: "email is required",
		Expr:    `draft.accountDetails.email != ""`,
	},
	{
		Field:   "accountDetails.password",
		Message: "password is required for new employees",
		Expr:    `draft.mode != "create" || draft.accountDetails.password != ""`,
	},
	{
		Field:   "leavesCountDetails.expiryDate",
		Message: "must be on or after personalDetails.joiningDate",
		Expr:    `draft.personalDetails.joiningDate == "" || draft.leavesCountDetails.expiryDate == "" || draft.leavesCountDetails.expiryDate >= draft.personalDetails.joiningDate`,
	},
	{
		Field:   "emergencyContactDetails.phone2",
		Message: "must differ from emergencyContactDetails.phone1",
		Expr:    `draft.emergencyContactDetails.phone2 == "" || draft.emergencyContactDetails.phone2 != draft.emergencyContactDetails.phone1`,
	},
}

var (
	ruleEnv = sync.OnceValues(func() (*cel.Env, error) {
		return cel.NewEnv(cel.Variable("draft", cel.MapType(cel.StringType, cel.DynType)))
	})
	ruleProgramCache sync.Map
)

// CheckRules evaluates rules against d and returns the failed ones.
func CheckRules(rules []Rule, d draft.Draft, target Target) ([]Violation, error) {
	view := ruleView(d, target)
	var out []Violation
	for _, rule := range rules {
		ok, err := evalRule(rule.Expr, view)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Field, err)
		}
		if !ok {
			out = append(out, Violation{Field: rule.Field, Reason: rule.Message})
		}
	}
	return out, nil
}

func evalRule(expr string, view map[string]any) (bool, error) {
	program, err := loadOrCompileRule(expr)
	if err != nil {
		return false, err
	}
	out, _, err := program.Eval(map[string]any{"draft": view})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("rule did not evaluate to bool")
	}
	return v, nil
}

func loadOrCompileRule(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("expression required")
	}
	if cached, ok := ruleProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := ruleEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.New("expression output type mismatch")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	ruleProgramCache.Store(expr, program)
	return program, nil
}

// ruleView is the map the rule expressions see. Every key is present so
// expressions never hit missing fields; absent steps read as empty strings.
func ruleView(d draft.Draft, target Target) map[string]any {
	p, a, c, e, l := draft.PersonalDetails{}, draft.AccountDetails{}, draft.ContactDetails{}, draft.EmergencyContactDetails{}, draft.LeavesCountDetails{}
	if d.PersonalDetails != nil {
		p = *d.PersonalDetails
	}
	if d.AccountDetails != nil {
		a = *d.AccountDetails
	}
	if d.ContactDetails != nil {
		c = *d.ContactDetails
	}
	if d.EmergencyContactDetails != nil {
		e = *d.EmergencyContactDetails
	}
	if d.LeavesCountDetails != nil {
		l = *d.LeavesCountDetails
	}
	t := strings.TrimSpace
	return map[string]any{
		"mode":       string(target.Mode),
		"employeeId": target.EmployeeID,
		"personalDetails": map[string]string{
			"name":        t(p.Name),
			"role":        t(p.Role),
			"jobTitle":    t(p.JobTitle),
			"avatar":      t(p.Avatar),
			"joiningDate": formatDay(p.JoiningDate),
		},
		"accountDetails": map[string]string{
			"email":      t(a.Email),
			"employeeId": t(a.EmployeeID),
			"machineId":  t(a.MachineID),
			"password":   a.Password,
		},
		"contactDetails": map[string]string{
			"phone":   t(c.Phone),
			"address": t(c.Address),
		},
		"emergencyContactDetails": map[string]string{
			"phone1":    t(e.Phone1),
			"relation1": t(e.Relation1),
			"phone2":    t(e.Phone2),
			"relation2": t(e.Relation2),
			"address":   t(e.Address),
		},
		"leavesCountDetails": map[string]string{
			"expiryDate":   formatDay(l.ExpiryDate),
			"sickLeaves":   t(l.SickLeaves),
			"casualLeaves": t(l.CasualLeaves),
			"annualLeaves": t(l.AnnualLeaves),
		},
	}
}
