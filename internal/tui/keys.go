package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
}

// KeyRegistry maps keys to actions per scope. Lookups fall back to the
// global scope.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal       = "global"
	scopeEntry        = "entry"
	scopeList         = "list"
	scopeSearch       = "search"
	scopeModalView    = "modal_view"
	scopeModalEdit    = "modal_edit"
	scopeModalConfirm = "modal_confirm"
)

const (
	actionQuit     Action = "quit"
	actionTabEntry Action = "tab_entry"
	actionTabList  Action = "tab_list"
	actionNext     Action = "next"
	actionPrev     Action = "prev"
	actionSubmit   Action = "submit"
	actionFill     Action = "fill"
	actionClear    Action = "clear"
	actionUp       Action = "up"
	actionDown     Action = "down"
	actionTop      Action = "top"
	actionBottom   Action = "bottom"
	actionOpen     Action = "open"
	actionSearch   Action = "search"
	actionSort     Action = "sort"
	actionRetry    Action = "retry"
	actionDone     Action = "done"
	actionEdit     Action = "edit"
	actionDelete   Action = "delete"
	actionClose    Action = "close"
	actionSave     Action = "save"
	actionCancel   Action = "cancel"
	actionConfirm  Action = "confirm"
)

// sortKeys select list columns in listview.Columns() order.
var sortKeys = []string{"1", "2", "3", "4", "5", "6", "7", "8"}

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}
	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(scope, Binding{Action: action, Keys: keys, Help: help})
	}

	reg(scopeGlobal, actionQuit, []string{"ctrl+c"}, "quit")
	reg(scopeGlobal, actionTabEntry, []string{"f1", "ctrl+n"}, "enter")
	reg(scopeGlobal, actionTabList, []string{"f2", "ctrl+l"}, "list")

	reg(scopeEntry, actionNext, []string{"tab", "down"}, "next")
	reg(scopeEntry, actionPrev, []string{"shift+tab", "up"}, "prev")
	reg(scopeEntry, actionSubmit, []string{"enter", "ctrl+s"}, "save")
	reg(scopeEntry, actionFill, []string{"ctrl+f"}, "fill carrier")
	reg(scopeEntry, actionClear, []string{"ctrl+r"}, "clear")
	reg(scopeEntry, actionTabList, []string{"f2", "ctrl+l"}, "list")
	reg(scopeEntry, actionQuit, []string{"ctrl+c"}, "quit")

	reg(scopeList, actionUp, []string{"k", "up"}, "up")
	reg(scopeList, actionDown, []string{"j", "down"}, "down")
	reg(scopeList, actionTop, []string{"g", "home"}, "top")
	reg(scopeList, actionBottom, []string{"G", "end"}, "bottom")
	reg(scopeList, actionOpen, []string{"enter"}, "open")
	reg(scopeList, actionSearch, []string{"/"}, "search")
	reg(scopeList, actionSort, sortKeys, "sort")
	reg(scopeList, actionRetry, []string{"r"}, "reload")
	reg(scopeList, actionTabEntry, []string{"f1", "ctrl+n"}, "new")
	reg(scopeList, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeSearch, actionDone, []string{"enter", "esc"}, "done")
	reg(scopeSearch, actionClear, []string{"ctrl+r"}, "clear")

	reg(scopeModalView, actionEdit, []string{"e"}, "edit")
	reg(scopeModalView, actionDelete, []string{"d"}, "delete")
	reg(scopeModalView, actionClose, []string{"esc", "q"}, "close")

	reg(scopeModalEdit, actionNext, []string{"tab", "down"}, "next")
	reg(scopeModalEdit, actionPrev, []string{"shift+tab", "up"}, "prev")
	reg(scopeModalEdit, actionSave, []string{"enter", "ctrl+s"}, "save")
	reg(scopeModalEdit, actionCancel, []string{"esc"}, "cancel")
	reg(scopeModalEdit, actionClose, []string{"ctrl+w"}, "close")

	reg(scopeModalConfirm, actionConfirm, []string{"y", "enter"}, "delete")
	reg(scopeModalConfirm, actionCancel, []string{"n", "esc"}, "cancel")
	reg(scopeModalConfirm, actionClose, []string{"q", "ctrl+w"}, "close")

	return r
}

// Register adds b to scope. A binding whose keys are already taken in the
// scope is ignored.
func (r *KeyRegistry) Register(scope string, b Binding) {
	if r == nil {
		return
	}
	scope = strings.TrimSpace(scope)
	keys := normalizeKeyList(b.Keys)
	if scope == "" || len(keys) == 0 {
		return
	}
	if _, ok := r.indexByScope[scope]; !ok {
		r.indexByScope[scope] = make(map[string]*Binding)
	}
	for _, k := range keys {
		if _, exists := r.indexByScope[scope][k]; exists {
			return
		}
	}
	copyBinding := b
	copyBinding.Keys = keys
	r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
	for _, k := range keys {
		r.indexByScope[scope][k] = &copyBinding
	}
}

// Lookup returns the binding for keyName in scope, falling back to global.
func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.indexByScope[scope][keyName]; b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.indexByScope[scopeGlobal][keyName]
	}
	return nil
}

// ActionFor is Lookup reduced to the action, or "" when unbound.
func (r *KeyRegistry) ActionFor(keyName, scope string) Action {
	if b := r.Lookup(keyName, scope); b != nil {
		return b.Action
	}
	return ""
}

// HelpBindings returns the scope's bindings for the help footer.
func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.bindingsByScope[scope]
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		helpKey := b.Keys[0]
		if b.Action == actionSort {
			helpKey = b.Keys[0] + "-" + b.Keys[len(b.Keys)-1]
		}
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(helpKey, b.Help)))
	}
	return out
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 {
		// Single runes keep their case so "g" and "G" can differ.
		return trimmed
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	return s
}
