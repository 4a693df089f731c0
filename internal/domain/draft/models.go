package draft

import (
	"errors"
	"fmt"
	"time"
)

// StorageKey is the fixed per-owner key the draft lives under.
const StorageKey = "employee_creation_form_data"

var (
	ErrUnknownStep  = errors.New("unknown draft step")
	ErrStepMismatch = errors.New("step data does not match step")
)

type Step string

const (
	StepPersonal         Step = "personalDetails"
	StepAccount          Step = "accountDetails"
	StepContact          Step = "contactDetails"
	StepEmergencyContact Step = "emergencyContactDetails"
	StepLeavesCount      Step = "leavesCountDetails"
)

var Steps = []Step{StepPersonal, StepAccount, StepContact, StepEmergencyContact, StepLeavesCount}

func ParseStep(raw string) (Step, error) {
	for _, step := range Steps {
		if string(step) == raw {
			return step, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, raw)
}

// StepData is one slice of the draft. Each form writes exactly one.
type StepData interface {
	Step() Step
}

type PersonalDetails struct {
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	JobTitle    string     `json:"jobTitle"`
	Avatar      string     `json:"avatar"`
	JoiningDate *time.Time `json:"joiningDate,omitempty"`
}

type AccountDetails struct {
	Email      string `json:"email"`
	EmployeeID string `json:"employeeId"`
	MachineID  string `json:"machineId"`
	Password   string `json:"password"`
}

type ContactDetails struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type EmergencyContactDetails struct {
	Phone1    string `json:"phone1"`
	Relation1 string `json:"relation1"`
	Phone2    string `json:"phone2"`
	Relation2 string `json:"relation2"`
	Address   string `json:"address"`
}

type LeavesCountDetails struct {
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	SickLeaves   string     `json:"sickLeaves"`
	CasualLeaves string     `json:"casualLeaves"`
	AnnualLeaves string     `json:"annualLeaves"`
}

func (PersonalDetails) Step() Step         { return StepPersonal }
func (AccountDetails) Step() Step          { return StepAccount }
func (ContactDetails) Step() Step          { return StepContact }
func (EmergencyContactDetails) Step() Step { return StepEmergencyContact }
func (LeavesCountDetails) Step() Step      { return StepLeavesCount }

// Draft is the in-progress employee form. Any step may be nil until its form
// is submitted. The JSON form is the persisted document.
type Draft struct {
	PersonalDetails         *PersonalDetails         `json:"personalDetails,omitempty"`
	AccountDetails          *AccountDetails          `json:"accountDetails,omitempty"`
	ContactDetails          *ContactDetails          `json:"contactDetails,omitempty"`
	EmergencyContactDetails *EmergencyContactDetails `json:"emergencyContactDetails,omitempty"`
	LeavesCountDetails      *LeavesCountDetails      `json:"leavesCountDetails,omitempty"`

	Version   int64     `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Apply replaces one whole step.
func (d *Draft) Apply(data StepData) {
	switch v := data.(type) {
	case PersonalDetails:
		d.PersonalDetails = &v
	case AccountDetails:
		d.AccountDetails = &v
	case ContactDetails:
		d.ContactDetails = &v
	case EmergencyContactDetails:
		d.EmergencyContactDetails = &v
	case LeavesCountDetails:
		d.LeavesCountDetails = &v
	}
}

// Get returns the stored step or nil.
func (d *Draft) Get(step Step) StepData {
	switch step {
	case StepPersonal:
		if d.PersonalDetails != nil {
			return *d.PersonalDetails
		}
	case StepAccount:
		if d.AccountDetails != nil {
			return *d.AccountDetails
		}
	case StepContact:
		if d.ContactDetails != nil {
			return *d.ContactDetails
		}
	case StepEmergencyContact:
		if d.EmergencyContactDetails != nil {
			return *d.EmergencyContactDetails
		}
	case StepLeavesCount:
		if d.LeavesCountDetails != nil {
			return *d.LeavesCountDetails
		}
	}
	return nil
}

func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := &Draft{Version: d.Version, UpdatedAt: d.UpdatedAt}
	for _, step := range Steps {
		if data := d.Get(step); data != nil {
			out.Apply(data)
		}
	}
	return out
}

// Owner scopes a draft to one authenticated principal within a tenant.
type Owner struct {
	Tenant string
	UserID string
}

func (o Owner) Key() string {
	return o.Tenant + ":" + o.UserID + ":" + StorageKey
}

func (o Owner) Valid() bool {
	return o.Tenant != "" && o.UserID != ""
}
