package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hrify/internal/backend"
	"hrify/internal/domain/draft"
)

const dayLayout = "2006-01-02"

// BuildPayload flattens every step into one employee payload. Missing steps
// contribute empty values; leave counts must be non-negative integers.
func BuildPayload(d draft.Draft, target Target) (backend.EmployeeInput, error) {
	var in backend.EmployeeInput
	if p := d.PersonalDetails; p != nil {
		in.Name = strings.TrimSpace(p.Name)
		in.Role = strings.ToLower(strings.TrimSpace(p.Role))
		in.JobTitle = strings.TrimSpace(p.JobTitle)
		in.Avatar = strings.TrimSpace(p.Avatar)
		in.JoiningDate = formatDay(p.JoiningDate)
	}
	if a := d.AccountDetails; a != nil {
		in.Email = strings.ToLower(strings.TrimSpace(a.Email))
		in.EmployeeID = strings.TrimSpace(a.EmployeeID)
		in.MachineID = strings.TrimSpace(a.MachineID)
		in.Password = a.Password
	}
	if target.Mode == ModeEdit && strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	if c := d.ContactDetails; c != nil {
		in.Phone = strings.TrimSpace(c.Phone)
		in.Address = strings.TrimSpace(c.Address)
	}
	in.EmergencyContacts = []backend.EmergencyContact{}
	if e := d.EmergencyContactDetails; e != nil {
		for _, contact := range []backend.EmergencyContact{
			{Phone: strings.TrimSpace(e.Phone1), Relation: strings.TrimSpace(e.Relation1)},
			{Phone: strings.TrimSpace(e.Phone2), Relation: strings.TrimSpace(e.Relation2)},
		} {
			if contact.Phone != "" {
				in.EmergencyContacts = append(in.EmergencyContacts, contact)
			}
		}
		in.EmergencyAddress = strings.TrimSpace(e.Address)
	}
	if l := d.LeavesCountDetails; l != nil {
		in.LeaveExpiryDate = formatDay(l.ExpiryDate)
		var err error
		if in.SickLeaves, err = leaveCount("sickLeaves", l.SickLeaves); err != nil {
			return backend.EmployeeInput{}, err
		}
		if in.CasualLeaves, err = leaveCount("casualLeaves", l.CasualLeaves); err != nil {
			return backend.EmployeeInput{}, err
		}
		if in.AnnualLeaves, err = leaveCount("annualLeaves", l.AnnualLeaves); err != nil {
			return backend.EmployeeInput{}, err
		}
	}
	return in, nil
}

func leaveCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", field)
	}
	return n, nil
}

func formatDay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

// parseDay accepts YYYY-MM-DD or RFC3339 as sent by the backend.
func parseDay(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{dayLayout, time.RFC3339, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}

// StepsFromEmployee splits a backend record into the five draft steps.
func StepsFromEmployee(emp backend.Employee) []draft.StepData {
	emergency := draft.EmergencyContactDetails{Address: emp.EmergencyAddress}
	if len(emp.EmergencyContacts) > 0 {
		emergency.Phone1 = emp.EmergencyContacts[0].Phone
		emergency.Relation1 = emp.EmergencyContacts[0].Relation
	}
	if len(emp.EmergencyContacts) > 1 {
		emergency.Phone2 = emp.EmergencyContacts[1].Phone
		emergency.Relation2 = emp.EmergencyContacts[1].Relation
	}
	return []draft.StepData{
		draft.PersonalDetails{
			Name:        emp.Name,
			Role:        emp.Role,
			JobTitle:    emp.JobTitle,
			Avatar:      emp.Avatar,
			JoiningDate: parseDay(emp.JoiningDate),
		},
		draft.AccountDetails{
			Email:      emp.Email,
			EmployeeID: emp.EmployeeID,
			MachineID:  emp.MachineID,
		},
		draft.ContactDetails{Phone: emp.Phone, Address: emp.Address},
		emergency,
		draft.LeavesCountDetails{
			ExpiryDate:   parseDay(emp.LeaveExpiryDate),
			SickLeaves:   strconv.Itoa(emp.SickLeaves),
			CasualLeaves: strconv.Itoa(emp.CasualLeaves),
			AnnualLeaves: strconv.Itoa(emp.AnnualLeaves),
		},
	}
}
