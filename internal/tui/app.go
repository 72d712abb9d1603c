package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/verification"
)

const (
	appName     = "MC-Check"
	appSubtitle = "MC verification entries"
)

type tab int

const (
	tabEntry tab = iota
	tabList
)

var tabNames = []string{"Enter MC Verification", "Verification List"}

// Options carries display settings.
type Options struct {
	Location       *time.Location
	DateFormat     string
	DateTimeFormat string
	// Now is the clock used for "today"; defaults to time.Now.
	Now func() time.Time
	// Sort is the initial list order; nil means newest first.
	Sort *listview.Sort
	// SaveSort, when set, is called off the UI loop whenever the sort changes.
	SaveSort func(listview.Sort)
}

// App is the root model: a header with two tabs, the active tab's body, a
// status line and the key help footer. The detail modal overlays the list.
type App struct {
	ctx  context.Context
	svc  *service.Verifications
	keys *KeyRegistry

	help    help.Model
	spinner spinner.Model

	tab    tab
	width  int
	height int
	snap   service.Snapshot
	status string

	entry entryModel
	list  listModel
	modal *detailModal

	now            func() time.Time
	saveSort       func(listview.Sort)
	loc            *time.Location
	dateFormat     string
	dateTimeFormat string
}

// snapshotMsg delivers a service state transition.
type snapshotMsg service.Snapshot

// SnapshotMsg wraps s for tea.Program.Send; wire it with svc.OnChange.
func SnapshotMsg(s service.Snapshot) tea.Msg { return snapshotMsg(s) }

func New(ctx context.Context, svc *service.Verifications, opts Options) App {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DateFormat == "" {
		opts.DateFormat = "01/02/2006"
	}
	if opts.DateTimeFormat == "" {
		opts.DateTimeFormat = "01/02/2006 3:04:05 PM"
	}

	h := help.New()
	h.Styles.ShortKey = helpKeyStyle
	h.Styles.ShortDesc = helpDescStyle
	h.Styles.ShortSeparator = mutedStyle

	list := newListModel()
	if opts.Sort != nil {
		list.sort = *opts.Sort
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return App{
		ctx:            ctx,
		svc:            svc,
		keys:           NewKeyRegistry(),
		help:           h,
		spinner:        sp,
		tab:            tabEntry,
		snap:           svc.Snapshot(),
		entry:          newEntryModel(opts.Now().In(opts.Location)),
		list:           list,
		now:            opts.Now,
		saveSort:       opts.SaveSort,
		loc:            opts.Location,
		dateFormat:     opts.DateFormat,
		dateTimeFormat: opts.DateTimeFormat,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(startCmd(a.ctx, a.svc), a.spinner.Tick, textinput.Blink)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func startCmd(ctx context.Context, svc *service.Verifications) tea.Cmd {
	return func() tea.Msg {
		svc.Start(ctx)
		return snapshotMsg(svc.Snapshot())
	}
}

func refetchCmd(ctx context.Context, svc *service.Verifications) tea.Cmd {
	return func() tea.Msg {
		svc.Refetch(ctx)
		return snapshotMsg(svc.Snapshot())
	}
}

func addCmd(ctx context.Context, svc *service.Verifications, rec verification.NewRecord) tea.Cmd {
	return func() tea.Msg {
		err := svc.Add(ctx, rec)
		return addDoneMsg{err: err, snap: svc.Snapshot()}
	}
}

func updateCmd(ctx context.Context, svc *service.Verifications, id string, ch verification.Changes) tea.Cmd {
	return func() tea.Msg {
		err := svc.Update(ctx, id, ch)
		return updateDoneMsg{id: id, err: err, snap: svc.Snapshot()}
	}
}

func saveSortCmd(save func(listview.Sort), s listview.Sort) tea.Cmd {
	if save == nil {
		return nil
	}
	return func() tea.Msg {
		save(s)
		return nil
	}
}

func deleteCmd(ctx context.Context, svc *service.Verifications, id string) tea.Cmd {
	return func() tea.Msg {
		err := svc.Delete(ctx, id)
		return deleteDoneMsg{id: id, err: err, snap: svc.Snapshot()}
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		w := min(48, max(10, msg.Width-24))
		a.entry.fields.setWidth(w)
		if a.modal != nil && a.modal.mode == modeEdit {
			a.modal.fields.setWidth(w)
		}
		a.list.search.Width = max(10, min(60, msg.Width-8))
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case snapshotMsg:
		a.applySnapshot(service.Snapshot(msg))
		return a, nil
	case addDoneMsg:
		return a.handleAddDone(msg)
	case updateDoneMsg:
		return a.handleUpdateDone(msg)
	case deleteDoneMsg:
		return a.handleDeleteDone(msg)
	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Forward anything else (cursor blink) to the focused input.
	var cmd tea.Cmd
	switch {
	case a.modal != nil && a.modal.mode == modeEdit && a.modal.fields.focus != fieldApproved:
		f := a.modal.fields.focus
		a.modal.fields.inputs[f], cmd = a.modal.fields.inputs[f].Update(msg)
	case a.tab == tabList && a.list.searching:
		a.list.search, cmd = a.list.search.Update(msg)
	case a.tab == tabEntry && a.entry.fields.focus != fieldApproved:
		f := a.entry.fields.focus
		a.entry.fields.inputs[f], cmd = a.entry.fields.inputs[f].Update(msg)
	}
	return a, cmd
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.modal != nil {
		return a.updateModal(msg)
	}
	switch a.keys.ActionFor(msg.String(), scopeGlobal) {
	case actionTabEntry:
		return a.switchTab(tabEntry)
	case actionTabList:
		return a.switchTab(tabList)
	}
	a.status = ""
	if a.tab == tabList {
		return a.updateList(msg)
	}
	return a.updateEntry(msg)
}

func (a App) switchTab(t tab) (App, tea.Cmd) {
	a.tab = t
	a.status = ""
	if t == tabEntry {
		a.list.searching = false
		a.list.search.Blur()
		return a, a.entry.fields.focusField(a.entry.fields.focus)
	}
	a.entry.fields.blur()
	return a, nil
}

// applySnapshot adopts s unless a newer one has already been seen.
func (a *App) applySnapshot(s service.Snapshot) {
	if s.Version != 0 && s.Version < a.snap.Version {
		return
	}
	a.snap = s
	a.list.clamp(len(a.rows()), a.visibleRows())
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (a App) View() string {
	header := a.renderHeader()
	contentWidth := a.contentWidth()

	var body string
	if a.tab == tabList {
		body = a.listView(contentWidth)
	} else {
		body = a.entryView(contentWidth)
	}
	section := sectionStyle.Width(contentWidth + 2).Render(body)

	base := header + "\n" + section
	if a.height > 0 {
		base = lipgloss.PlaceVertical(a.height-2, lipgloss.Top, base)
	}
	view := base + "\n" + a.renderStatus() + "\n" + a.renderFooter()

	if a.modal != nil {
		modalWidth := min(64, max(30, a.width-8))
		card := modalStyle.Width(modalWidth).Render(a.modalView())
		if a.width == 0 || a.height == 0 {
			return view + "\n\n" + card
		}
		return centerOverlay(view, card, a.width, a.height)
	}
	return view
}

func (a App) contentWidth() int {
	if a.width == 0 {
		return 110
	}
	return max(20, a.width-4)
}

func (a App) renderHeader() string {
	name := headerAppStyle.Render(appName) + headerSubStyle.Render("  "+appSubtitle)
	var tabs []string
	for i, t := range tabNames {
		label := []string{"F1 ", "F2 "}[i] + t
		if tab(i) == a.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	tabBar := tabSepStyle.Render(" ") + strings.Join(tabs, tabSepStyle.Render("│"))
	style := headerBarStyle
	if a.width > 0 {
		style = style.Width(a.width)
	}
	return style.Render(name) + "\n" + style.Render(tabBar)
}

func (a App) renderStatus() string {
	text := a.status
	switch {
	case a.snap.Status == service.StatusLoading:
		text = a.spinner.View() + " Loading…"
	case a.snap.Status == service.StatusError && a.tab == tabEntry:
		text = errorStyle.Render(a.snap.Err)
	case text == "":
		n := len(a.snap.Records)
		text = mutedStyle.Render(pluralize(n, "verification", "verifications"))
	default:
		text = successStyle.Render(text)
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(text)
}

func (a App) footerScope() string {
	switch {
	case a.modal != nil:
		return a.modal.scope()
	case a.tab == tabList && a.list.searching:
		return scopeSearch
	case a.tab == tabList:
		return scopeList
	}
	return scopeEntry
}

func (a App) renderFooter() string {
	content := a.help.ShortHelpView(a.keys.HelpBindings(a.footerScope()))
	if a.width == 0 {
		return footerStyle.Render(content)
	}
	return footerStyle.Width(a.width).Render(truncate(content, a.width-4))
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
