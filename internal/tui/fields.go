package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/mccheck/internal/verification"
)

type formField int

const (
	fieldMC formField = iota
	fieldCarrier
	fieldAmount
	fieldApproved
	fieldUser
	fieldDate
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldMC:       "MC#",
	fieldCarrier:  "Carrier",
	fieldAmount:   "Amount",
	fieldApproved: "Approved",
	fieldUser:     "User",
	fieldDate:     "Date entered",
	fieldNotes:    "Notes",
}

var fieldPlaceholders = [fieldCount]string{
	fieldMC:      "MC123456",
	fieldCarrier: "Carrier name",
	fieldAmount:  "0.00",
	fieldUser:    "Your name",
	fieldDate:    "YYYY-MM-DD",
	fieldNotes:   "Optional",
}

// fieldKeys maps validation field keys back to inputs for highlighting.
var fieldKeys = map[string]formField{
	verification.FieldMCNumber:    fieldMC,
	verification.FieldCarrier:     fieldCarrier,
	verification.FieldAmount:      fieldAmount,
	verification.FieldEnteredBy:   fieldUser,
	verification.FieldDateEntered: fieldDate,
}

// fieldSet is the editable state behind the entry form and the modal's edit
// mode. The approved slot has no text input.
type fieldSet struct {
	inputs   [fieldCount]textinput.Model
	approved bool
	focus    formField
	invalid  map[formField]bool
}

func newFieldSet(f verification.Form) fieldSet {
	var fs fieldSet
	for i := formField(0); i < fieldCount; i++ {
		if i == fieldApproved {
			continue
		}
		inp := textinput.New()
		inp.Prompt = ""
		inp.Placeholder = fieldPlaceholders[i]
		inp.CharLimit = 120
		inp.Width = 32
		fs.inputs[i] = inp
	}
	fs.inputs[fieldDate].CharLimit = 10
	fs.inputs[fieldNotes].CharLimit = 500
	fs.setForm(f)
	fs.focusField(fieldMC)
	return fs
}

func (fs *fieldSet) setForm(f verification.Form) {
	fs.inputs[fieldMC].SetValue(f.MCNumber)
	fs.inputs[fieldCarrier].SetValue(f.Carrier)
	fs.inputs[fieldAmount].SetValue(f.Amount)
	fs.inputs[fieldUser].SetValue(f.EnteredBy)
	fs.inputs[fieldDate].SetValue(f.DateEntered)
	fs.inputs[fieldNotes].SetValue(f.Notes)
	fs.approved = f.Approved
	fs.invalid = nil
}

func (fs fieldSet) form() verification.Form {
	return verification.Form{
		MCNumber:    fs.inputs[fieldMC].Value(),
		Carrier:     fs.inputs[fieldCarrier].Value(),
		Amount:      fs.inputs[fieldAmount].Value(),
		Approved:    fs.approved,
		EnteredBy:   fs.inputs[fieldUser].Value(),
		Notes:       fs.inputs[fieldNotes].Value(),
		DateEntered: fs.inputs[fieldDate].Value(),
	}
}

func (fs *fieldSet) focusField(f formField) tea.Cmd {
	for i := range fs.inputs {
		if formField(i) != fieldApproved {
			fs.inputs[i].Blur()
		}
	}
	fs.focus = f
	if f == fieldApproved {
		return nil
	}
	return fs.inputs[f].Focus()
}

func (fs *fieldSet) next() tea.Cmd { return fs.focusField((fs.focus + 1) % fieldCount) }

func (fs *fieldSet) prev() tea.Cmd { return fs.focusField((fs.focus + fieldCount - 1) % fieldCount) }

func (fs *fieldSet) blur() {
	for i := range fs.inputs {
		if formField(i) != fieldApproved {
			fs.inputs[i].Blur()
		}
	}
}

// markInvalid highlights the fields named by errs.
func (fs *fieldSet) markInvalid(errs []verification.FieldError) {
	fs.invalid = make(map[formField]bool, len(errs))
	for _, e := range errs {
		if f, ok := fieldKeys[e.Field]; ok {
			fs.invalid[f] = true
		}
	}
}

// update routes a key to the focused input. Space toggles the approved flag
// when it has focus.
func (fs *fieldSet) update(msg tea.KeyMsg) tea.Cmd {
	if fs.focus == fieldApproved {
		switch msg.String() {
		case " ", "space", "x", "y":
			fs.approved = !fs.approved
		}
		return nil
	}
	var cmd tea.Cmd
	fs.inputs[fs.focus], cmd = fs.inputs[fs.focus].Update(msg)
	return cmd
}

func (fs *fieldSet) setWidth(w int) {
	w = max(10, w)
	for i := range fs.inputs {
		if formField(i) != fieldApproved {
			fs.inputs[i].Width = w
		}
	}
}

func checkbox(on bool) string {
	if on {
		return approvedStyle.Render("[x] yes")
	}
	return pendingStyle.Render("[ ] no")
}

// view renders one labelled row per field.
func (fs fieldSet) view() string {
	const labelWidth = 14
	var b strings.Builder
	for i := formField(0); i < fieldCount; i++ {
		style := labelStyle
		marker := "  "
		if i == fs.focus {
			style = focusedLabelStyle
			marker = cursorStyle.Render("› ")
		}
		label := fieldLabels[i]
		if fs.invalid[i] {
			label += " !"
			if i != fs.focus {
				style = errorStyle
			}
		}
		b.WriteString(marker + style.Render(cell(label, labelWidth)))
		if i == fieldApproved {
			b.WriteString(checkbox(fs.approved))
			if i == fs.focus {
				b.WriteString(mutedStyle.Render("  (space to toggle)"))
			}
		} else {
			b.WriteString(fs.inputs[i].View())
		}
		if i < fieldCount-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
