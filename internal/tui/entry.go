package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/store"
	"github.com/jask/mccheck/internal/verification"
)

const (
	suggestLimit    = 5
	suggestDistance = 2
	msgSaving       = "Saving…"
)

// entryModel is the "Enter MC Verification" tab.
type entryModel struct {
	fields     fieldSet
	submitting bool
	message    string
	messageErr bool
	// suggestIdx is the next suggestion ctrl+f fills in.
	suggestIdx int
}

func newEntryModel(now time.Time) entryModel {
	return entryModel{fields: newFieldSet(verification.EmptyForm(now))}
}

type addDoneMsg struct {
	err  error
	snap service.Snapshot
}

// suggestions ranks known carriers against the carrier input.
func (e entryModel) suggestions(known []string) []string {
	input := strings.TrimSpace(e.fields.inputs[fieldCarrier].Value())
	if input == "" {
		return nil
	}
	out := listview.SuggestCarriers(known, input, suggestLimit, suggestDistance)
	// Hide the list once the input already matches exactly.
	if len(out) == 1 && strings.EqualFold(out[0], input) {
		return nil
	}
	return out
}

func (a App) updateEntry(msg tea.KeyMsg) (App, tea.Cmd) {
	e := &a.entry
	switch a.keys.ActionFor(msg.String(), scopeEntry) {
	case actionNext:
		return a, e.fields.next()
	case actionPrev:
		return a, e.fields.prev()
	case actionSubmit:
		return a.submitEntry()
	case actionClear:
		e.fields.setForm(verification.EmptyForm(a.now().In(a.loc)))
		e.message = ""
		e.suggestIdx = 0
		return a, e.fields.focusField(fieldMC)
	case actionFill:
		if e.fields.focus != fieldCarrier {
			return a, nil
		}
		sugg := e.suggestions(a.svc.KnownCarriers())
		if len(sugg) == 0 {
			return a, nil
		}
		e.fields.inputs[fieldCarrier].SetValue(sugg[e.suggestIdx%len(sugg)])
		e.fields.inputs[fieldCarrier].CursorEnd()
		e.suggestIdx++
		return a, nil
	}
	before := e.fields.inputs[fieldCarrier].Value()
	cmd := e.fields.update(msg)
	if e.fields.inputs[fieldCarrier].Value() != before {
		e.suggestIdx = 0
	}
	return a, cmd
}

// submitEntry validates the form and starts the insert. Submits are ignored
// while the list is loading or a save is in flight.
func (a App) submitEntry() (App, tea.Cmd) {
	e := &a.entry
	if e.submitting || a.snap.Loading() {
		return a, nil
	}
	res := e.fields.form().Validate()
	if !res.OK() {
		e.fields.markInvalid(res.Errors)
		e.message = res.Message()
		e.messageErr = true
		return a, nil
	}
	e.fields.invalid = nil
	e.submitting = true
	e.message = msgSaving
	e.messageErr = false
	return a, addCmd(a.ctx, a.svc, res.Record)
}

func (a App) handleAddDone(msg addDoneMsg) (App, tea.Cmd) {
	e := &a.entry
	e.submitting = false
	a.applySnapshot(msg.snap)
	if msg.err != nil {
		e.message = store.Message(msg.err, service.MsgSaveFailed)
		e.messageErr = true
		return a, nil
	}
	e.fields.setForm(verification.EmptyForm(a.now().In(a.loc)))
	e.suggestIdx = 0
	e.message = verification.MsgAdded
	e.messageErr = false
	return a, e.fields.focusField(fieldMC)
}

func (a App) entryView(width int) string {
	e := a.entry
	var b strings.Builder
	b.WriteString(titleStyle.Render("Enter MC Verification"))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(10, min(width, 60)))))
	b.WriteString("\n")
	b.WriteString(e.fields.view())
	b.WriteString("\n")

	if e.fields.focus == fieldCarrier {
		if sugg := e.suggestions(a.svc.KnownCarriers()); len(sugg) > 0 {
			b.WriteString("\n" + mutedStyle.Render("Known carriers (ctrl+f): ") + infoStyle.Render(strings.Join(sugg, " · ")) + "\n")
		}
	}

	b.WriteString("\n")
	btn := buttonStyle
	if !e.submitting && !a.snap.Loading() {
		btn = focusedButtonStyle
	}
	label := "Save verification"
	if e.submitting {
		label = msgSaving
	}
	b.WriteString(btn.Render(label))

	if e.message != "" && !(e.submitting && e.message == msgSaving) {
		style := successStyle
		if e.messageErr {
			style = errorStyle
		}
		b.WriteString("\n\n" + style.Render(e.message))
	}
	return b.String()
}
