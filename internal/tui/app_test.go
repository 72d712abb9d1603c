package tui

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/mccheck/internal/database"
	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/store"
	"github.com/jask/mccheck/internal/verification"
)

var testNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestApp(t *testing.T, c store.Client) App {
	t.Helper()
	svc := service.NewVerifications(c, zerolog.Nop())
	a := New(context.Background(), svc, Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	return run(t, a, startCmd(a.ctx, a.svc))
}

func newSeededApp(t *testing.T) (App, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	n, err := database.SeedSamples(context.Background(), db, testNow)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	return newTestApp(t, store.NewSQLite(db)), db
}

func step(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	require.True(t, ok)
	return next, cmd
}

// run executes cmd synchronously and feeds its message back into a.
func run(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	require.NotNil(t, cmd)
	a, _ = step(t, a, cmd())
	return a
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		a, _ = step(t, a, keyMsg(k))
	}
	return a
}

func typeText(t *testing.T, a App, s string) App {
	t.Helper()
	for _, r := range s {
		a, _ = step(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return a
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "f1":
		return tea.KeyMsg{Type: tea.KeyF1}
	case "f2":
		return tea.KeyMsg{Type: tea.KeyF2}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func fillEntry(t *testing.T, a App) App {
	t.Helper()
	a = typeText(t, a, "MC777")
	a = press(t, a, "tab")
	a = typeText(t, a, "Delta Carriers")
	a = press(t, a, "tab")
	a = typeText(t, a, "99.5")
	a = press(t, a, "tab", "space", "tab")
	a = typeText(t, a, "carol")
	return a
}

func TestEntrySubmitAddsAndClears(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, store.NewSQLite(openTestDB(t)))
	require.Equal(t, service.StatusReady, a.snap.Status)

	a = fillEntry(t, a)
	a, cmd := step(t, a, keyMsg("enter"))
	require.True(t, a.entry.submitting)
	require.Equal(t, msgSaving, a.entry.message)

	// A second submit while saving is ignored.
	_, again := step(t, a, keyMsg("enter"))
	require.Nil(t, again)

	a = run(t, a, cmd)
	require.False(t, a.entry.submitting)
	require.Equal(t, verification.MsgAdded, a.entry.message)
	require.False(t, a.entry.messageErr)
	require.Equal(t, verification.Form{DateEntered: "2024-06-15"}, a.entry.fields.form())
	require.Equal(t, fieldMC, a.entry.fields.focus)

	require.Len(t, a.snap.Records, 1)
	got := a.snap.Records[0]
	require.Equal(t, "MC777", got.MCNumber)
	require.Equal(t, "Delta Carriers", got.Carrier)
	require.Equal(t, "99.50", got.AmountText())
	require.True(t, got.Approved)
	require.Equal(t, "carol", got.EnteredBy)
	require.Nil(t, got.Notes)
	require.Equal(t, "2024-06-15", got.DateEntered)
}

func TestEntryValidationNeverReachesStore(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	a := newTestApp(t, store.NewSQLite(db))

	a, cmd := step(t, a, keyMsg("enter"))
	require.Nil(t, cmd)
	require.Equal(t, verification.MsgRequired, a.entry.message)
	require.True(t, a.entry.messageErr)
	require.True(t, a.entry.fields.invalid[fieldMC])

	a = typeText(t, a, "MC1")
	a = press(t, a, "tab")
	a = typeText(t, a, "Acme")
	a = press(t, a, "tab")
	a = typeText(t, a, "-5")
	a = press(t, a, "tab", "tab")
	a = typeText(t, a, "bob")
	a, cmd = step(t, a, keyMsg("enter"))
	require.Nil(t, cmd)
	require.Equal(t, verification.MsgAmount, a.entry.message)
	require.Equal(t, "MC1", a.entry.fields.form().MCNumber, "fields keep their values")

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM mc_verifications`).Scan(&n))
	require.Zero(t, n)
}

func TestEntryIgnoredWhileLoading(t *testing.T) {
	t.Parallel()
	svc := service.NewVerifications(store.NewSQLite(openTestDB(t)), zerolog.Nop())
	a := New(context.Background(), svc, Options{Location: time.UTC, Now: func() time.Time { return testNow }})
	require.True(t, a.snap.Loading())

	a = fillEntry(t, a)
	a, cmd := step(t, a, keyMsg("enter"))
	require.Nil(t, cmd)
	require.False(t, a.entry.submitting)
}

func TestEntryFailedAddKeepsValues(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, store.Disabled{})
	require.Equal(t, service.StatusError, a.snap.Status)
	require.Equal(t, store.ErrNotConfigured.Error(), a.snap.Err)

	a = fillEntry(t, a)
	a, cmd := step(t, a, keyMsg("enter"))
	a = run(t, a, cmd)
	require.True(t, a.entry.messageErr)
	require.Equal(t, store.ErrNotConfigured.Error(), a.entry.message)
	require.Equal(t, "MC777", a.entry.fields.form().MCNumber)
	require.Equal(t, "carol", a.entry.fields.form().EnteredBy)
	require.Empty(t, a.snap.Records)
}

func TestEntryCarrierSuggestions(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)

	a = press(t, a, "tab")
	a = typeText(t, a, "acm")
	require.Equal(t, []string{"Acme Freight"}, a.entry.suggestions(a.svc.KnownCarriers()))
	require.Contains(t, a.View(), "Acme Freight")

	a = press(t, a, "ctrl+f")
	require.Equal(t, "Acme Freight", a.entry.fields.form().Carrier)
	require.Empty(t, a.entry.suggestions(a.svc.KnownCarriers()))
}

func TestTabSwitching(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	require.Equal(t, tabEntry, a.tab)
	require.Contains(t, a.View(), "Enter MC Verification")

	a = press(t, a, "f2")
	require.Equal(t, tabList, a.tab)
	a, _ = step(t, a, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, tabEntry, a.tab)

	// q types into the entry form rather than quitting.
	a = press(t, a, "q")
	require.Equal(t, "q", a.entry.fields.form().MCNumber)

	_, cmd := step(t, a, keyMsg("ctrl+c"))
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestListDefaultOrderSortAndSearch(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = press(t, a, "f2")

	mcs := func(a App) []string {
		var out []string
		for _, r := range a.rows() {
			out = append(out, r.MCNumber)
		}
		return out
	}
	require.Equal(t, []string{"MC123456", "MC998877", "MC554433"}, mcs(a), "newest first")

	a = press(t, a, "3")
	require.Equal(t, listview.Sort{Column: listview.ColAmount}, a.list.sort)
	require.Equal(t, []string{"MC554433", "MC998877", "MC123456"}, mcs(a))
	a = press(t, a, "3")
	require.Equal(t, []string{"MC123456", "MC998877", "MC554433"}, mcs(a))

	a = press(t, a, "/")
	require.True(t, a.list.searching)
	a = typeText(t, a, "123")
	require.Equal(t, []string{"MC123456"}, mcs(a))

	// q is text while searching.
	a, _ = step(t, a, keyMsg("q"))
	require.Equal(t, "123q", a.list.search.Value())
	require.Contains(t, a.View(), msgNoMatches)

	a = press(t, a, "esc")
	require.False(t, a.list.searching)
	_, cmd := step(t, a, keyMsg("q"))
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestListEmptyState(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, store.NewSQLite(openTestDB(t)))
	a = press(t, a, "f2")
	require.Contains(t, a.View(), msgEmpty)
}

func TestListErrorAndRetry(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, store.Disabled{})
	a = press(t, a, "f2")
	view := a.View()
	require.Contains(t, view, store.ErrNotConfigured.Error())
	require.Contains(t, view, "Press r to retry.")

	a, cmd := step(t, a, keyMsg("r"))
	require.True(t, a.snap.Loading())
	require.NotNil(t, cmd)
}

func TestListNarrowRendersCards(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = press(t, a, "f2")

	a, _ = step(t, a, tea.WindowSizeMsg{Width: 140, Height: 40})
	require.True(t, a.wide())
	wide := a.View()
	require.Contains(t, wide, "2 Carrier")
	require.Contains(t, wide, "Acme Freight")

	a, _ = step(t, a, tea.WindowSizeMsg{Width: 80, Height: 40})
	require.False(t, a.wide())
	narrow := a.View()
	require.NotContains(t, narrow, "2 Carrier")
	require.Contains(t, narrow, "MC998877 · Blue Line Logistics")
}

func openFirst(t *testing.T, a App) App {
	t.Helper()
	a = press(t, a, "f2", "enter")
	require.NotNil(t, a.modal)
	require.Equal(t, modeView, a.modal.mode)
	return a
}

func TestModalViewShowsEveryField(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = openFirst(t, a)

	body := a.modalView()
	for _, want := range []string{"MC123456", "Acme Freight", "1250.00", "Yes", "Alice", "06/15/2024", "Created"} {
		require.Contains(t, body, want)
	}
	a = press(t, a, "esc")
	require.Nil(t, a.modal)
}

func TestModalEditApproved(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = press(t, a, "f2", "down")
	a = press(t, a, "enter")
	before := a.modal.record
	require.False(t, before.Approved)

	a = press(t, a, "e")
	require.Equal(t, modeEdit, a.modal.mode)
	a = press(t, a, "tab", "tab", "tab", "space")
	require.True(t, a.modal.fields.approved)

	a, cmd := step(t, a, keyMsg("enter"))
	require.True(t, a.modal.busy)
	a = run(t, a, cmd)
	require.Nil(t, a.modal)
	require.Equal(t, verification.MsgUpdated, a.status)

	var after verification.Record
	for _, r := range a.snap.Records {
		if r.ID == before.ID {
			after = r
		}
	}
	require.True(t, after.Approved)
	require.Equal(t, before.MCNumber, after.MCNumber)
	require.Equal(t, before.Carrier, after.Carrier)
	require.Equal(t, before.AmountText(), after.AmountText())
	require.Equal(t, before.EnteredBy, after.EnteredBy)
	require.Equal(t, before.NotesText(), after.NotesText())
	require.Equal(t, before.DateEntered, after.DateEntered)
}

func TestModalEditValidationAndCancel(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = openFirst(t, a)
	original := a.modal.record

	a = press(t, a, "e")
	a.modal.fields.inputs[fieldMC].SetValue("   ")
	a, cmd := step(t, a, keyMsg("enter"))
	require.Nil(t, cmd)
	require.Equal(t, modeEdit, a.modal.mode)
	require.Equal(t, verification.MsgRequired, a.modal.message)

	a = press(t, a, "esc")
	require.Equal(t, modeView, a.modal.mode)
	require.Empty(t, a.modal.message)
	require.Equal(t, original, a.modal.record)

	// Re-entering edit starts from the record again.
	a = press(t, a, "e")
	require.Equal(t, original.MCNumber, a.modal.fields.form().MCNumber)
}

func TestModalClosesFromEveryMode(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = openFirst(t, a)
	original := a.modal.record

	a = press(t, a, "e")
	a = typeText(t, a, "XYZ")
	require.Contains(t, a.modal.fields.form().MCNumber, "XYZ")
	a, cmd := step(t, a, keyMsg("ctrl+w"))
	require.Nil(t, cmd)
	require.Nil(t, a.modal)

	a = press(t, a, "enter")
	require.NotNil(t, a.modal)
	require.Equal(t, modeView, a.modal.mode)
	require.Equal(t, original, a.modal.record)
	a = press(t, a, "e")
	require.Equal(t, original.MCNumber, a.modal.fields.form().MCNumber)

	a = press(t, a, "esc", "d")
	require.Equal(t, modeConfirmDelete, a.modal.mode)
	a = press(t, a, "q")
	require.Nil(t, a.modal)
	require.Len(t, a.snap.Records, 3)

	a = press(t, a, "enter", "d", "ctrl+w")
	require.Nil(t, a.modal)
}

func TestModalDeleteConfirm(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	a = openFirst(t, a)

	a = press(t, a, "d")
	require.Equal(t, modeConfirmDelete, a.modal.mode)
	a = press(t, a, "n")
	require.Equal(t, modeView, a.modal.mode)

	a = press(t, a, "d")
	a, cmd := step(t, a, keyMsg("y"))
	require.True(t, a.modal.busy)
	a = run(t, a, cmd)
	require.Nil(t, a.modal)
	require.Len(t, a.snap.Records, 2)
	require.Equal(t, verification.MsgDeleted, a.status)
}

func TestModalDeleteFailureStays(t *testing.T) {
	t.Parallel()
	a, db := newSeededApp(t)
	a = openFirst(t, a)
	_, err := db.Exec(`DELETE FROM mc_verifications WHERE id = ?`, a.modal.record.ID)
	require.NoError(t, err)

	a = press(t, a, "d")
	a, cmd := step(t, a, keyMsg("enter"))
	a = run(t, a, cmd)
	require.NotNil(t, a.modal)
	require.Equal(t, modeConfirmDelete, a.modal.mode)
	require.False(t, a.modal.busy)
	require.Equal(t, "record not found", a.modal.message)
	require.Contains(t, a.View(), "record not found")
}

func TestStaleSnapshotIgnored(t *testing.T) {
	t.Parallel()
	a, _ := newSeededApp(t)
	current := a.snap
	require.NotZero(t, current.Version)

	stale := service.Snapshot{Status: service.StatusError, Err: "old", Version: current.Version - 1}
	a, _ = step(t, a, SnapshotMsg(stale))
	require.Equal(t, current, a.snap)
}

func TestSortRestoredAndSaved(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	_, err := database.SeedSamples(context.Background(), db, testNow)
	require.NoError(t, err)

	var saved []listview.Sort
	initial := listview.Sort{Column: listview.ColCarrier, Desc: true}
	svc := service.NewVerifications(store.NewSQLite(db), zerolog.Nop())
	a := New(context.Background(), svc, Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
		Sort:     &initial,
		SaveSort: func(s listview.Sort) { saved = append(saved, s) },
	})
	a = run(t, a, startCmd(a.ctx, a.svc))
	a = press(t, a, "f2")
	require.Equal(t, "Coastal Haulers", a.rows()[0].Carrier)

	a, cmd := step(t, a, keyMsg("2"))
	require.NotNil(t, cmd)
	require.Nil(t, cmd())
	require.Equal(t, []listview.Sort{{Column: listview.ColCarrier}}, saved)
	require.Equal(t, "Acme Freight", a.rows()[0].Carrier)
}
