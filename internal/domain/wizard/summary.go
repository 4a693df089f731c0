package wizard

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrify/internal/domain/draft"
)

type summaryLine struct {
	label string
	value string
}

// RenderSummary writes a one-page onboarding sheet for the draft. The
// password is never printed.
func RenderSummary(d draft.Draft, target Target, generatedAt time.Time, w io.Writer) error {
	title := "New employee onboarding summary"
	if target.Mode == ModeEdit {
		title = fmt.Sprintf("Employee %s update summary", target.EmployeeID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+generatedAt.UTC().Format(time.RFC1123))
	pdf.Ln(10)

	for _, info := range Steps {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, info.Label)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		lines := summaryLines(d, info.Step)
		if len(lines) == 0 {
			pdf.Cell(0, 7, "Not provided")
			pdf.Ln(7)
		}
		for _, line := range lines {
			pdf.CellFormat(55, 7, line.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, tr(line.value), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func summaryLines(d draft.Draft, step draft.Step) []summaryLine {
	switch step {
	case draft.StepPersonal:
		if p := d.PersonalDetails; p != nil {
			return []summaryLine{
				{"Name", p.Name},
				{"Role", p.Role},
				{"Job title", p.JobTitle},
				{"Joining date", formatDay(p.JoiningDate)},
			}
		}
	case draft.StepAccount:
		if a := d.AccountDetails; a != nil {
			password := "not set"
			if a.Password != "" {
				password = "set"
			}
			return []summaryLine{
				{"Email", a.Email},
				{"Employee ID", a.EmployeeID},
				{"Machine ID", a.MachineID},
				{"Initial password", password},
			}
		}
	case draft.StepContact:
		if c := d.ContactDetails; c != nil {
			return []summaryLine{{"Phone", c.Phone}, {"Address", c.Address}}
		}
	case draft.StepEmergencyContact:
		if e := d.EmergencyContactDetails; e != nil {
			return []summaryLine{
				{"Primary contact", contactLine(e.Phone1, e.Relation1)},
				{"Secondary contact", contactLine(e.Phone2, e.Relation2)},
				{"Address", e.Address},
			}
		}
	case draft.StepLeavesCount:
		if l := d.LeavesCountDetails; l != nil {
			return []summaryLine{
				{"Leave bank expiry", formatDay(l.ExpiryDate)},
				{"Sick leaves", l.SickLeaves},
				{"Casual leaves", l.CasualLeaves},
				{"Annual leaves", l.AnnualLeaves},
			}
		}
	}
	return nil
}

func contactLine(phone, relation string) string {
	if phone == "" {
		return ""
	}
	if relation == "" {
		return phone
	}
	return phone + " (" + relation + ")"
}
