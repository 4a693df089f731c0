package backend

import "encoding/json"

type EmergencyContact struct {
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// EmployeeInput is the single creation/update payload assembled from a draft.
type EmployeeInput struct {
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Role              string             `json:"role"`
	JobTitle          string             `json:"jobTitle"`
	Avatar            string             `json:"avatar,omitempty"`
	JoiningDate       string             `json:"joiningDate,omitempty"`
	EmployeeID        string             `json:"employeeId"`
	MachineID         string             `json:"machineId,omitempty"`
	Password          string             `json:"password,omitempty"`
	Phone             string             `json:"phone"`
	Address           string             `json:"address"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts"`
	EmergencyAddress  string             `json:"emergencyAddress,omitempty"`
	LeaveExpiryDate   string             `json:"leaveExpiryDate,omitempty"`
	SickLeaves        int                `json:"sickLeaves"`
	CasualLeaves      int                `json:"casualLeaves"`
	AnnualLeaves      int                `json:"annualLeaves"`
}

type Employee struct {
	ID string `json:"id"`
	EmployeeInput
}

type LoanInput struct {
	EmployeeID   string  `json:"employeeId,omitempty"`
	Amount       float64 `json:"amount"`
	Installments int     `json:"installments"`
	StartDate    string  `json:"startDate,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

type SalaryIncrementInput struct {
	EmployeeID    string  `json:"employeeId"`
	Amount        float64 `json:"amount"`
	EffectiveDate string  `json:"effectiveDate"`
	Note          string  `json:"note,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Tenant   string `json:"tenant,omitempty"`
}

type signInResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	User        struct {
		ID    json.RawMessage `json:"id"`
		Email string          `json:"email"`
		Name  string          `json:"name"`
		Role  string          `json:"role"`
	} `json:"user"`
}

// idString accepts numeric or string ids.
func idString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
