package verification

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of DateEntered.
const DateLayout = "2006-01-02"

// Record represents an mc_verifications row.
type Record struct {
	ID          string          `json:"id"`
	MCNumber    string          `json:"mc_number"`
	Carrier     string          `json:"carrier"`
	Amount      decimal.Decimal `json:"amount"`
	Approved    bool            `json:"approved"`
	EnteredBy   string          `json:"entered_by"`
	Notes       *string         `json:"notes"`
	DateEntered string          `json:"date_entered"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewRecord is the insert payload. The store assigns id and created_at.
type NewRecord struct {
	MCNumber    string          `json:"mc_number"`
	Carrier     string          `json:"carrier"`
	Amount      decimal.Decimal `json:"amount"`
	Approved    bool            `json:"approved"`
	EnteredBy   string          `json:"entered_by"`
	Notes       *string         `json:"notes"`
	DateEntered string          `json:"date_entered"`
}

// Changes is a partial update. Nil fields are left untouched; Notes uses
// ClearNotes to distinguish "set to null" from "leave alone".
type Changes struct {
	MCNumber    *string          `json:"mc_number,omitempty"`
	Carrier     *string          `json:"carrier,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Approved    *bool            `json:"approved,omitempty"`
	EnteredBy   *string          `json:"entered_by,omitempty"`
	Notes       *string          `json:"-"`
	ClearNotes  bool             `json:"-"`
	DateEntered *string          `json:"date_entered,omitempty"`
}

// ChangesFrom returns a Changes that sets every editable field to the values in n.
func ChangesFrom(n NewRecord) Changes {
	amount := n.Amount
	ch := Changes{
		MCNumber:    &n.MCNumber,
		Carrier:     &n.Carrier,
		Amount:      &amount,
		Approved:    &n.Approved,
		EnteredBy:   &n.EnteredBy,
		DateEntered: &n.DateEntered,
	}
	if n.Notes == nil {
		ch.ClearNotes = true
	} else {
		ch.Notes = n.Notes
	}
	return ch
}

// Empty reports whether ch carries no field at all.
func (ch Changes) Empty() bool {
	return ch.MCNumber == nil && ch.Carrier == nil && ch.Amount == nil && ch.Approved == nil &&
		ch.EnteredBy == nil && ch.Notes == nil && !ch.ClearNotes && ch.DateEntered == nil
}

// Fields flattens ch into column -> value pairs. Cleared notes map to nil.
func (ch Changes) Fields() map[string]any {
	out := map[string]any{}
	if ch.MCNumber != nil {
		out["mc_number"] = *ch.MCNumber
	}
	if ch.Carrier != nil {
		out["carrier"] = *ch.Carrier
	}
	if ch.Amount != nil {
		out["amount"] = *ch.Amount
	}
	if ch.Approved != nil {
		out["approved"] = *ch.Approved
	}
	if ch.EnteredBy != nil {
		out["entered_by"] = *ch.EnteredBy
	}
	if ch.Notes != nil {
		out["notes"] = *ch.Notes
	} else if ch.ClearNotes {
		out["notes"] = nil
	}
	if ch.DateEntered != nil {
		out["date_entered"] = *ch.DateEntered
	}
	return out
}

// NotesText returns the notes or "" when absent.
func (r Record) NotesText() string {
	if r.Notes == nil {
		return ""
	}
	return *r.Notes
}

// AmountText formats the amount with two decimals for display.
func (r Record) AmountText() string {
	return r.Amount.StringFixed(2)
}

// NormalizeNotes trims s and maps the empty string to nil.
func NormalizeNotes(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Today returns now as a YYYY-MM-DD string in now's location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// FormatDate renders a YYYY-MM-DD date for display. The date is read at local
// noon so a zone offset can never move it to a neighbouring day.
func FormatDate(date, layout string, loc *time.Location) string {
	if date == "" {
		return "—"
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return date
	}
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
	return noon.Format(layout)
}

// FormatTimestamp renders t in loc using layout.
func FormatTimestamp(t time.Time, layout string, loc *time.Location) string {
	if t.IsZero() {
		return "—"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}
