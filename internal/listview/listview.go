// Package listview holds the pure filter and sort logic behind the
// verification list. It knows nothing about rendering.
package listview

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jask/mccheck/internal/verification"
)

// Column identifies a sortable column.
type Column int

const (
	ColMCNumber Column = iota
	ColCarrier
	ColAmount
	ColApproved
	ColEnteredBy
	ColNotes
	ColDateEntered
	ColCreatedAt
	columnCount
)

// Columns returns every column in display order.
func Columns() []Column {
	out := make([]Column, 0, columnCount)
	for c := Column(0); c < columnCount; c++ {
		out = append(out, c)
	}
	return out
}

// Label is the column header text.
func (c Column) Label() string {
	switch c {
	case ColMCNumber:
		return "MC#"
	case ColCarrier:
		return "Carrier"
	case ColAmount:
		return "Amount"
	case ColApproved:
		return "Approved"
	case ColEnteredBy:
		return "User"
	case ColNotes:
		return "Notes"
	case ColDateEntered:
		return "Date entered"
	case ColCreatedAt:
		return "Created"
	}
	return ""
}

// Key is the column's field name, as used by the store and the CLI.
func (c Column) Key() string {
	switch c {
	case ColMCNumber:
		return "mc_number"
	case ColCarrier:
		return "carrier"
	case ColAmount:
		return "amount"
	case ColApproved:
		return "approved"
	case ColEnteredBy:
		return "entered_by"
	case ColNotes:
		return "notes"
	case ColDateEntered:
		return "date_entered"
	case ColCreatedAt:
		return "created_at"
	}
	return ""
}

// ParseColumn maps a field name back to its column.
func ParseColumn(key string) (Column, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range Columns() {
		if c.Key() == key {
			return c, true
		}
	}
	return 0, false
}

// Sort is the active sort column and direction.
type Sort struct {
	Column Column
	Desc   bool
}

// DefaultSort orders newest first.
func DefaultSort() Sort {
	return Sort{Column: ColCreatedAt, Desc: true}
}

// Toggle returns the sort after the user picks col: the same column flips
// direction, any other column becomes the key in ascending order.
func (s Sort) Toggle(col Column) Sort {
	if s.Column == col {
		return Sort{Column: col, Desc: !s.Desc}
	}
	return Sort{Column: col}
}

// Arrow is the header marker for the active direction.
func (s Sort) Arrow() string {
	if s.Desc {
		return "↓"
	}
	return "↑"
}

// Matches reports whether r contains query in one of the searchable fields.
// query must already be lowercased and trimmed.
func Matches(r verification.Record, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.MCNumber), query) ||
		strings.Contains(strings.ToLower(r.Carrier), query) ||
		strings.Contains(strings.ToLower(r.EnteredBy), query) ||
		strings.Contains(strings.ToLower(r.Amount.String()), query) ||
		strings.Contains(strings.ToLower(r.NotesText()), query)
}

// Filter keeps the records matching search. A blank search keeps everything.
func Filter(rows []verification.Record, search string) []verification.Record {
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]verification.Record, 0, len(rows))
	for _, r := range rows {
		if Matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// Apply filters rows by search and sorts the result by s. rows is not modified.
func Apply(rows []verification.Record, search string, s Sort) []verification.Record {
	out := Filter(rows, search)
	SortRecords(out, s)
	return out
}

// SortRecords sorts rows in place. Equal keys keep their relative order.
func SortRecords(rows []verification.Record, s Sort) {
	c := collate.New(language.English)
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compare(c, rows[i], rows[j], s.Column)
		if s.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compare(c *collate.Collator, a, b verification.Record, col Column) int {
	switch col {
	case ColMCNumber:
		return c.CompareString(a.MCNumber, b.MCNumber)
	case ColCarrier:
		return c.CompareString(a.Carrier, b.Carrier)
	case ColAmount:
		return a.Amount.Cmp(b.Amount)
	case ColApproved:
		return compareBool(a.Approved, b.Approved)
	case ColEnteredBy:
		return c.CompareString(a.EnteredBy, b.EnteredBy)
	case ColNotes:
		return c.CompareString(a.NotesText(), b.NotesText())
	case ColDateEntered:
		return strings.Compare(a.DateEntered, b.DateEntered)
	case ColCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
