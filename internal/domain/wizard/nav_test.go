package wizard

import (
	"testing"

	"hrify/internal/domain/draft"
)

func activeSteps(nav Nav) []draft.Step {
	var out []draft.Step
	for _, step := range nav.Steps {
		if step.Active {
			out = append(out, step.Step)
		}
	}
	return out
}

func TestResolveBareAddEmployeeIsPersonal(t *testing.T) {
	nav := Resolve("/dashboard/admin/add-employee")
	if nav.Mode != ModeCreate || nav.EmployeeID != "" {
		t.Fatalf("unexpected target: %+v", nav.Target)
	}
	active := activeSteps(nav)
	if len(active) != 1 || active[0] != draft.StepPersonal {
		t.Fatalf("expected personal details active, got %v", active)
	}
	if nav.Steps[1].Path != "/dashboard/admin/add-employee/account-details" {
		t.Fatalf("unexpected create path %q", nav.Steps[1].Path)
	}
}

func TestResolveEditModeContactStep(t *testing.T) {
	nav := Resolve("/dashboard/admin/edit-employee/123/contact-details")
	if nav.Mode != ModeEdit || nav.EmployeeID != "123" {
		t.Fatalf("unexpected target: %+v", nav.Target)
	}
	active := activeSteps(nav)
	if len(active) != 1 || active[0] != draft.StepContact {
		t.Fatalf("expected only contact details active, got %v", active)
	}
	for _, step := range nav.Steps {
		want := "/dashboard/admin/edit-employee/123/" + step.Slug
		if step.Path != want {
			t.Fatalf("expected %q, got %q", want, step.Path)
		}
	}
}

func TestResolveVariants(t *testing.T) {
	tests := []struct {
		path     string
		mode     Mode
		id       string
		active   []draft.Step
		inWizard bool
	}{
		{path: "/en/dashboard/admin/add-employee/leaves-count-details/", mode: ModeCreate, active: []draft.Step{draft.StepLeavesCount}, inWizard: true},
		{path: "/dashboard/admin/add-employee/unknown", mode: ModeCreate, inWizard: true},
		{path: "/dashboard/admin/edit-employee/9", mode: ModeEdit, id: "9", inWizard: true},
		{path: "/dashboard/admin/edit-employee", mode: ModeCreate},
		{path: "/dashboard/admin/overview", mode: ModeCreate},
		{path: "/", mode: ModeCreate},
	}
	for _, tc := range tests {
		nav := Resolve(tc.path)
		if nav.Mode != tc.mode || nav.EmployeeID != tc.id || nav.InWizard != tc.inWizard {
			t.Fatalf("Resolve(%q) = %+v", tc.path, nav)
		}
		active := activeSteps(nav)
		if len(active) != len(tc.active) {
			t.Fatalf("Resolve(%q) active = %v, want %v", tc.path, active, tc.active)
		}
		for i := range active {
			if active[i] != tc.active[i] {
				t.Fatalf("Resolve(%q) active = %v, want %v", tc.path, active, tc.active)
			}
		}
	}
}

func TestStepOrderHelpers(t *testing.T) {
	next, ok := Next(draft.StepPersonal)
	if !ok || next.Step != draft.StepAccount {
		t.Fatalf("unexpected next: %+v", next)
	}
	if _, ok := Next(draft.StepLeavesCount); ok {
		t.Fatal("expected no step after leaves count")
	}
	prev, ok := Prev(draft.StepContact)
	if !ok || prev.Step != draft.StepAccount {
		t.Fatalf("unexpected prev: %+v", prev)
	}
	if _, ok := Prev(draft.StepPersonal); ok {
		t.Fatal("expected no step before personal details")
	}
	if !IsLast(draft.StepLeavesCount) || IsLast(draft.StepAccount) {
		t.Fatal("unexpected IsLast")
	}
	info, ok := BySlug("emergency-contact-details")
	if !ok || info.Step != draft.StepEmergencyContact {
		t.Fatalf("unexpected slug lookup: %+v", info)
	}
}

func TestStepPath(t *testing.T) {
	edit := StepPath("/en/dashboard/admin", Target{Mode: ModeEdit, EmployeeID: "7"}, Steps[2])
	if edit != "/en/dashboard/admin/edit-employee/7/contact-details" {
		t.Fatalf("unexpected edit path %q", edit)
	}
	create := StepPath("en/dashboard/admin/", Target{Mode: ModeCreate}, Steps[0])
	if create != "/en/dashboard/admin/add-employee/personal-details" {
		t.Fatalf("unexpected create path %q", create)
	}
}

func TestResolveLinksNeighbouringSteps(t *testing.T) {
	nav := Resolve("/en/dashboard/admin/edit-employee/7/contact-details")
	if nav.Prev == nil || nav.Prev.Step != draft.StepAccount || nav.Prev.Path != "/en/dashboard/admin/edit-employee/7/account-details" {
		t.Fatalf("unexpected prev: %+v", nav.Prev)
	}
	if nav.Next == nil || nav.Next.Path != "/en/dashboard/admin/edit-employee/7/emergency-contact-details" {
		t.Fatalf("unexpected next: %+v", nav.Next)
	}
	if nav.Last {
		t.Fatal("contact details is not the last step")
	}

	first := Resolve("/en/dashboard/admin/add-employee")
	if first.Prev != nil || first.Next == nil || first.Next.Path != "/en/dashboard/admin/add-employee/account-details" {
		t.Fatalf("unexpected links on first step: prev=%+v next=%+v", first.Prev, first.Next)
	}

	last := Resolve("/en/dashboard/admin/add-employee/leaves-count-details")
	if last.Next != nil || !last.Last || last.Prev == nil || last.Prev.Step != draft.StepEmergencyContact {
		t.Fatalf("unexpected links on last step: %+v", last)
	}

	outside := Resolve("/en/dashboard/admin/overview")
	if outside.Prev != nil || outside.Next != nil || outside.Last {
		t.Fatalf("expected no links outside the wizard: %+v", outside)
	}
}
