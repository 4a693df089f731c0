package wizard

import (
	"strings"

	"hrify/internal/domain/draft"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

const (
	addSegment  = "add-employee"
	editSegment = "edit-employee"
)

// Target tells forms and the submitter whether they create or update.
type Target struct {
	Mode       Mode   `json:"mode"`
	EmployeeID string `json:"employeeId,omitempty"`
}

type NavStep struct {
	StepInfo
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// NavLink points at a neighbouring step of the active one.
type NavLink struct {
	Step draft.Step `json:"step"`
	Path string     `json:"path"`
}

type Nav struct {
	Target
	InWizard bool      `json:"inWizard"`
	Prefix   string    `json:"prefix"`
	Steps    []NavStep `json:"steps"`
	Prev     *NavLink  `json:"prev,omitempty"`
	Next     *NavLink  `json:"next,omitempty"`
	// Last means the active step is the final one and the shell offers submit.
	Last bool `json:"last"`
}

// Active returns the active step, if any.
func (n Nav) Active() (NavStep, bool) {
	for _, step := range n.Steps {
		if step.Active {
			return step, true
		}
	}
	return NavStep{}, false
}

// Resolve computes the step shell for a dashboard path. Edit mode needs the
// segment after edit-employee as the employee id. The bare add-employee path
// counts as Personal Details.
func Resolve(path string) Nav {
	var segments []string
	if trimmed := strings.Trim(path, "/"); trimmed != "" {
		segments = strings.Split(trimmed, "/")
	}

	nav := Nav{Target: Target{Mode: ModeCreate}}
	var rest []string
	for i, segment := range segments {
		if segment == editSegment && i+1 < len(segments) && segments[i+1] != "" {
			nav.Target = Target{Mode: ModeEdit, EmployeeID: segments[i+1]}
			nav.Prefix = joinPrefix(segments[:i])
			nav.InWizard = true
			rest = segments[i+2:]
			break
		}
	}
	if !nav.InWizard {
		for i, segment := range segments {
			if segment == addSegment {
				nav.Prefix = joinPrefix(segments[:i])
				nav.InWizard = true
				rest = segments[i+1:]
				break
			}
		}
	}
	if !nav.InWizard {
		nav.Prefix = joinPrefix(segments)
	}

	var active StepInfo
	found := false
	switch {
	case !nav.InWizard:
	case len(rest) == 0:
		active, found = Steps[0], nav.Mode == ModeCreate
	case len(rest) == 1:
		active, found = BySlug(rest[0])
	}

	nav.Steps = make([]NavStep, len(Steps))
	for i, info := range Steps {
		nav.Steps[i] = NavStep{
			StepInfo: info,
			Path:     StepPath(nav.Prefix, nav.Target, info),
			Active:   found && info.Step == active.Step,
		}
	}
	if !found {
		return nav
	}
	if prev, ok := Prev(active.Step); ok {
		nav.Prev = &NavLink{Step: prev.Step, Path: StepPath(nav.Prefix, nav.Target, prev)}
	}
	if next, ok := Next(active.Step); ok {
		nav.Next = &NavLink{Step: next.Step, Path: StepPath(nav.Prefix, nav.Target, next)}
	}
	nav.Last = IsLast(active.Step)
	return nav
}

// StepPath builds the URL of one step under prefix for target.
func StepPath(prefix string, target Target, info StepInfo) string {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	if target.Mode == ModeEdit {
		return prefix + "/" + editSegment + "/" + target.EmployeeID + "/" + info.Slug
	}
	return prefix + "/" + addSegment + "/" + info.Slug
}

func joinPrefix(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return "/" + strings.Join(segments, "/")
}
