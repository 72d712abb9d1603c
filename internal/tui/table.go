package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/verification"
)

const (
	// wideMinWidth is the narrowest terminal that gets the full table;
	// anything smaller renders cards.
	wideMinWidth = 100
	cardHeight   = 4

	msgEmpty     = "No verifications yet."
	msgNoMatches = "No results match your search."
)

// listModel is the "Verification List" tab.
type listModel struct {
	search    textinput.Model
	searching bool
	sort      listview.Sort
	cursor    int
	top       int
}

func newListModel() listModel {
	s := textinput.New()
	s.Prompt = "/ "
	s.Placeholder = "Search MC#, carrier, user, amount, notes"
	s.CharLimit = 100
	s.Width = 40
	return listModel{search: s, sort: listview.DefaultSort()}
}

// rows returns the filtered and sorted view of the cached list.
func (a App) rows() []verification.Record {
	return listview.Apply(a.snap.Records, a.list.search.Value(), a.list.sort)
}

func (a App) wide() bool { return a.width == 0 || a.width >= wideMinWidth }

// visibleRows is how many rows (or cards) fit in the list body.
func (a App) visibleRows() int {
	if a.height == 0 {
		return 20
	}
	// header, tab bar, title, search, column header, separator, status, footer
	body := a.height - 10
	if !a.wide() {
		return max(1, body/cardHeight)
	}
	return max(1, body)
}

func (l *listModel) clamp(n, visible int) {
	if n == 0 {
		l.cursor, l.top = 0, 0
		return
	}
	l.cursor = max(0, min(l.cursor, n-1))
	if l.cursor < l.top {
		l.top = l.cursor
	}
	if l.cursor >= l.top+visible {
		l.top = l.cursor - visible + 1
	}
	l.top = max(0, min(l.top, max(0, n-visible)))
}

func (a App) updateList(msg tea.KeyMsg) (App, tea.Cmd) {
	l := &a.list
	if l.searching {
		switch a.keys.ActionFor(msg.String(), scopeSearch) {
		case actionDone:
			l.searching = false
			l.search.Blur()
			return a, nil
		case actionClear:
			l.search.SetValue("")
			l.cursor, l.top = 0, 0
			return a, nil
		}
		before := l.search.Value()
		var cmd tea.Cmd
		l.search, cmd = l.search.Update(msg)
		if l.search.Value() != before {
			l.cursor, l.top = 0, 0
		}
		return a, cmd
	}

	rows := a.rows()
	visible := a.visibleRows()
	b := a.keys.Lookup(msg.String(), scopeList)
	if b == nil {
		return a, nil
	}
	switch b.Action {
	case actionUp:
		l.cursor--
	case actionDown:
		l.cursor++
	case actionTop:
		l.cursor = 0
	case actionBottom:
		l.cursor = len(rows) - 1
	case actionSearch:
		l.searching = true
		return a, l.search.Focus()
	case actionSort:
		for i, k := range sortKeys {
			if k == msg.String() {
				l.sort = l.sort.Toggle(listview.Columns()[i])
				l.cursor, l.top = 0, 0
			}
		}
		return a, saveSortCmd(a.saveSort, l.sort)
	case actionRetry:
		if a.snap.Loading() {
			return a, nil
		}
		a.snap.Status = service.StatusLoading
		return a, tea.Batch(refetchCmd(a.ctx, a.svc), a.spinner.Tick)
	case actionOpen:
		if l.cursor >= 0 && l.cursor < len(rows) {
			a.modal = newDetailModal(rows[l.cursor])
		}
		return a, nil
	case actionQuit:
		return a, tea.Quit
	case actionTabEntry:
		return a.switchTab(tabEntry)
	}
	l.clamp(len(rows), visible)
	return a, nil
}

func (a App) listView(width int) string {
	l := a.list
	var b strings.Builder
	b.WriteString(titleStyle.Render("Verification List"))
	b.WriteString("  " + mutedStyle.Render(fmt.Sprintf("sorted by %s %s", l.sort.Column.Label(), l.sort.Arrow())))
	b.WriteString("\n")
	if l.searching || l.search.Value() != "" {
		b.WriteString(l.search.View())
	} else {
		b.WriteString(mutedStyle.Render("/ to search"))
	}
	b.WriteString("\n")

	switch a.snap.Status {
	case service.StatusLoading:
		b.WriteString("\n" + a.spinner.View() + " " + infoStyle.Render("Loading verifications…"))
		return b.String()
	case service.StatusError:
		b.WriteString("\n" + errorStyle.Render(a.snap.Err))
		b.WriteString("\n" + mutedStyle.Render("Press r to retry."))
		return b.String()
	}

	if len(a.snap.Records) == 0 {
		b.WriteString("\n" + mutedStyle.Render(msgEmpty))
		return b.String()
	}
	rows := a.rows()
	if len(rows) == 0 {
		b.WriteString("\n" + mutedStyle.Render(msgNoMatches))
		return b.String()
	}

	visible := a.visibleRows()
	l.clamp(len(rows), visible)
	end := min(len(rows), l.top+visible)
	if a.wide() {
		b.WriteString(a.renderTable(rows[l.top:end], l.cursor-l.top, width))
	} else {
		b.WriteString(a.renderCards(rows[l.top:end], l.cursor-l.top, width))
	}
	if len(rows) > visible {
		b.WriteString("\n" + scrollStyle.Render(fmt.Sprintf("%d–%d of %d", l.top+1, end, len(rows))))
	}
	return b.String()
}

type columnLayout struct {
	col   listview.Column
	width int
	right bool
}

func tableLayout(width int) []columnLayout {
	const fixed = 12 + 12 + 9 + 12 + 12 + 20
	flex := max(16, width-fixed-len(listview.Columns())-2)
	carrier := max(8, flex*45/100)
	notes := max(8, flex-carrier)
	return []columnLayout{
		{listview.ColMCNumber, 12, false},
		{listview.ColCarrier, carrier, false},
		{listview.ColAmount, 12, true},
		{listview.ColApproved, 9, false},
		{listview.ColEnteredBy, 12, false},
		{listview.ColNotes, notes, false},
		{listview.ColDateEntered, 12, false},
		{listview.ColCreatedAt, 20, false},
	}
}

func (a App) cellText(r verification.Record, col listview.Column) string {
	switch col {
	case listview.ColMCNumber:
		return r.MCNumber
	case listview.ColCarrier:
		return r.Carrier
	case listview.ColAmount:
		return r.AmountText()
	case listview.ColApproved:
		if r.Approved {
			return "yes"
		}
		return "no"
	case listview.ColEnteredBy:
		return r.EnteredBy
	case listview.ColNotes:
		if r.Notes == nil {
			return "—"
		}
		return strings.ReplaceAll(*r.Notes, "\n", " ")
	case listview.ColDateEntered:
		return verification.FormatDate(r.DateEntered, a.dateFormat, a.loc)
	case listview.ColCreatedAt:
		return verification.FormatTimestamp(r.CreatedAt, a.dateTimeFormat, a.loc)
	}
	return ""
}

func alignCell(s string, width int, right bool) string {
	s = truncate(s, width)
	if right {
		return strings.Repeat(" ", max(0, width-lipgloss.Width(s))) + s
	}
	return padRight(s, width)
}

func (a App) renderTable(rows []verification.Record, cursor, width int) string {
	layout := tableLayout(width)
	var header []string
	for i, c := range layout {
		label := fmt.Sprintf("%s %s", sortKeys[i], c.col.Label())
		style := tableHeaderStyle
		if c.col == a.list.sort.Column {
			label += " " + a.list.sort.Arrow()
			style = sortedHeaderStyle
		}
		header = append(header, style.Render(alignCell(label, c.width, c.right)))
	}
	lines := []string{"  " + strings.Join(header, " ")}
	lines = append(lines, separatorStyle.Render(strings.Repeat("─", max(10, width))))

	for i, r := range rows {
		cells := make([]string, 0, len(layout))
		for _, c := range layout {
			text := alignCell(a.cellText(r, c.col), c.width, c.right)
			switch c.col {
			case listview.ColApproved:
				if r.Approved {
					text = approvedStyle.Render(text)
				} else {
					text = pendingStyle.Render(text)
				}
			case listview.ColAmount:
				text = amountStyle.Render(text)
			}
			cells = append(cells, text)
		}
		line := strings.Join(cells, " ")
		if i == cursor {
			line = cursorStyle.Render("› ") + selectedRowStyle.Render(line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a App) renderCards(rows []verification.Record, cursor, width int) string {
	inner := max(20, width-4)
	var cards []string
	for i, r := range rows {
		marker := "  "
		if i == cursor {
			marker = cursorStyle.Render("› ")
		}
		status := pendingStyle.Render("pending")
		if r.Approved {
			status = approvedStyle.Render("approved")
		}
		amount := amountStyle.Render(r.AmountText())
		head := truncate(r.MCNumber+" · "+r.Carrier, max(8, inner-lipgloss.Width(r.AmountText())-1))
		line1 := marker + valueStyle.Render(padRight(head, inner-lipgloss.Width(r.AmountText()))) + amount
		line2 := "  " + mutedStyle.Render(truncate(fmt.Sprintf("%s · %s · ", r.EnteredBy, a.cellText(r, listview.ColDateEntered)), inner-10)) + status
		line3 := "  " + mutedStyle.Render(truncate(a.cellText(r, listview.ColNotes), inner))
		cards = append(cards, line1+"\n"+line2+"\n"+line3)
	}
	header := mutedStyle.Render(fmt.Sprintf("sort: 1-8 · %s %s", a.list.sort.Column.Label(), a.list.sort.Arrow()))
	return header + "\n" + strings.Join(cards, "\n\n")
}
