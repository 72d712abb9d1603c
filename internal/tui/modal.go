package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/store"
	"github.com/jask/mccheck/internal/verification"
)

type modalMode string

const (
	modeView          modalMode = "view"
	modeEdit          modalMode = "edit"
	modeConfirmDelete modalMode = "confirmDelete"
)

// detailModal shows one record. Edits live in fields until saved; leaving
// edit mode or closing from any mode discards them.
type detailModal struct {
	record  verification.Record
	mode    modalMode
	fields  fieldSet
	busy    bool
	message string
}

func newDetailModal(r verification.Record) *detailModal {
	return &detailModal{record: r, mode: modeView}
}

type updateDoneMsg struct {
	id   string
	err  error
	snap service.Snapshot
}

type deleteDoneMsg struct {
	id   string
	err  error
	snap service.Snapshot
}

func (m *detailModal) scope() string {
	switch m.mode {
	case modeEdit:
		return scopeModalEdit
	case modeConfirmDelete:
		return scopeModalConfirm
	}
	return scopeModalView
}

func (a App) updateModal(msg tea.KeyMsg) (App, tea.Cmd) {
	m := a.modal
	if m.busy {
		return a, nil
	}
	action := a.keys.ActionFor(msg.String(), m.scope())

	switch m.mode {
	case modeView:
		switch action {
		case actionEdit:
			m.fields = newFieldSet(verification.FormFrom(m.record))
			m.mode = modeEdit
			m.message = ""
			return a, m.fields.focusField(fieldMC)
		case actionDelete:
			m.mode = modeConfirmDelete
			m.message = ""
		case actionClose:
			a.modal = nil
		}
		return a, nil

	case modeEdit:
		switch action {
		case actionNext:
			return a, m.fields.next()
		case actionPrev:
			return a, m.fields.prev()
		case actionCancel:
			m.fields.blur()
			m.mode = modeView
			m.message = ""
			return a, nil
		case actionClose:
			a.modal = nil
			return a, nil
		case actionSave:
			res := m.fields.form().Validate()
			if !res.OK() {
				m.fields.markInvalid(res.Errors)
				m.message = res.Message()
				return a, nil
			}
			m.fields.invalid = nil
			m.busy = true
			m.message = ""
			return a, updateCmd(a.ctx, a.svc, m.record.ID, verification.ChangesFrom(res.Record))
		}
		return a, m.fields.update(msg)

	case modeConfirmDelete:
		switch action {
		case actionConfirm:
			m.busy = true
			m.message = ""
			return a, deleteCmd(a.ctx, a.svc, m.record.ID)
		case actionCancel:
			m.mode = modeView
			m.message = ""
		case actionClose:
			a.modal = nil
		}
	}
	return a, nil
}

func (a App) handleUpdateDone(msg updateDoneMsg) (App, tea.Cmd) {
	a.applySnapshot(msg.snap)
	m := a.modal
	if m == nil || m.record.ID != msg.id {
		return a, nil
	}
	m.busy = false
	if msg.err != nil {
		m.message = store.Message(msg.err, service.MsgUpdateFailed)
		return a, nil
	}
	a.modal = nil
	a.status = verification.MsgUpdated
	return a, nil
}

func (a App) handleDeleteDone(msg deleteDoneMsg) (App, tea.Cmd) {
	a.applySnapshot(msg.snap)
	m := a.modal
	if m == nil || m.record.ID != msg.id {
		return a, nil
	}
	m.busy = false
	if msg.err != nil {
		m.message = store.Message(msg.err, service.MsgDeleteFailed)
		return a, nil
	}
	a.modal = nil
	a.status = verification.MsgDeleted
	return a, nil
}

func (a App) modalView() string {
	m := a.modal
	var b strings.Builder
	title := "MC Verification"
	switch m.mode {
	case modeEdit:
		title = "Edit MC Verification"
	case modeConfirmDelete:
		title = "Delete MC Verification"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	switch m.mode {
	case modeEdit:
		b.WriteString(m.fields.view())
		if m.busy {
			b.WriteString("\n\n" + infoStyle.Render(msgSaving))
		}
	case modeConfirmDelete:
		b.WriteString(a.detailRows(m.record))
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("Delete this verification? This cannot be undone."))
		b.WriteString("\n" + mutedStyle.Render("y to delete · n to cancel"))
		if m.busy {
			b.WriteString("\n\n" + infoStyle.Render("Deleting…"))
		}
	default:
		b.WriteString(a.detailRows(m.record))
	}
	if m.message != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.message))
	}
	return b.String()
}

func (a App) detailRows(r verification.Record) string {
	const labelWidth = 14
	row := func(label, value string) string {
		return labelStyle.Render(cell(label, labelWidth)) + valueStyle.Render(value)
	}
	notes := r.NotesText()
	if notes == "" {
		notes = "—"
	}
	approved := pendingStyle.Render("No")
	if r.Approved {
		approved = approvedStyle.Render("Yes")
	}
	lines := []string{
		row("MC#", r.MCNumber),
		row("Carrier", r.Carrier),
		row("Amount", r.AmountText()),
		labelStyle.Render(cell("Approved", labelWidth)) + approved,
		row("User", r.EnteredBy),
		row("Notes", notes),
		row("Date entered", verification.FormatDate(r.DateEntered, a.dateFormat, a.loc)),
		row("Created", verification.FormatTimestamp(r.CreatedAt, a.dateTimeFormat, a.loc)),
	}
	return strings.Join(lines, "\n")
}
