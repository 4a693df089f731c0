package wizard

import "hrify/internal/domain/draft"

// StepInfo describes one screen of the employee wizard.
type StepInfo struct {
	Step  draft.Step `json:"step"`
	Label string     `json:"label"`
	Icon  string     `json:"icon"`
	Slug  string     `json:"slug"`
}

// Steps is the fixed screen order. Navigation never enforces it.
var Steps = []StepInfo{
	{Step: draft.StepPersonal, Label: "Personal Details", Icon: "user", Slug: "personal-details"},
	{Step: draft.StepAccount, Label: "Account Details", Icon: "lock", Slug: "account-details"},
	{Step: draft.StepContact, Label: "Contact Details", Icon: "phone", Slug: "contact-details"},
	{Step: draft.StepEmergencyContact, Label: "Emergency Contact", Icon: "alert", Slug: "emergency-contact-details"},
	{Step: draft.StepLeavesCount, Label: "Leaves Count", Icon: "calendar", Slug: "leaves-count-details"},
}

func indexOf(step draft.Step) int {
	for i, info := range Steps {
		if info.Step == step {
			return i
		}
	}
	return -1
}

func BySlug(slug string) (StepInfo, bool) {
	for _, info := range Steps {
		if info.Slug == slug {
			return info, true
		}
	}
	return StepInfo{}, false
}

// Next returns the following step; ok is false on the last one.
func Next(step draft.Step) (StepInfo, bool) {
	i := indexOf(step)
	if i < 0 || i+1 >= len(Steps) {
		return StepInfo{}, false
	}
	return Steps[i+1], true
}

func Prev(step draft.Step) (StepInfo, bool) {
	i := indexOf(step)
	if i <= 0 {
		return StepInfo{}, false
	}
	return Steps[i-1], true
}

func IsLast(step draft.Step) bool {
	return indexOf(step) == len(Steps)-1
}
