package verification

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Display messages shared by the entry form and the edit form.
const (
	MsgRequired = "MC#, Carrier, and User are required."
	MsgAmount   = "Amount must be a valid number."
	MsgDate     = "Date must be YYYY-MM-DD."
	MsgAdded    = "Verification added successfully."
	MsgUpdated  = "Updated."
	MsgDeleted  = "Deleted."
)

// Form field keys, in the order errors are reported.
const (
	FieldMCNumber    = "mc_number"
	FieldCarrier     = "carrier"
	FieldEnteredBy   = "entered_by"
	FieldAmount      = "amount"
	FieldDateEntered = "date_entered"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid verification")

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries every failed rule of a Form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalid.Error()
	}
	return e.Fields[0].Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Form is the editable state behind both the entry form and the edit form.
// Every field holds raw user input.
type Form struct {
	MCNumber    string
	Carrier     string
	Amount      string
	Approved    bool
	EnteredBy   string
	Notes       string
	DateEntered string
}

// EmptyForm returns a cleared form dated today.
func EmptyForm(now time.Time) Form {
	return Form{DateEntered: Today(now)}
}

// FormFrom seeds a form from an existing record.
func FormFrom(r Record) Form {
	return Form{
		MCNumber:    r.MCNumber,
		Carrier:     r.Carrier,
		Amount:      r.Amount.String(),
		Approved:    r.Approved,
		EnteredBy:   r.EnteredBy,
		Notes:       r.NotesText(),
		DateEntered: r.DateEntered,
	}
}

// Result is the outcome of Validate. Record is only meaningful when OK.
type Result struct {
	Record NewRecord
	Errors []FieldError
}

// OK reports whether validation passed.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Message returns the first error message, or "".
func (r Result) Message() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Err returns a *ValidationError, or nil when OK.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Fields: r.Errors}
}

type trimmed struct {
	MCNumber    string `validate:"required"`
	Carrier     string `validate:"required"`
	EnteredBy   string `validate:"required"`
	DateEntered string `validate:"required,datetime=2006-01-02"`
}

var validate = validator.New()

var structFields = map[string]string{
	"MCNumber":    FieldMCNumber,
	"Carrier":     FieldCarrier,
	"EnteredBy":   FieldEnteredBy,
	"DateEntered": FieldDateEntered,
}

// Validate checks f and builds the normalized insert payload.
//
// Required text is reported first, then the amount, then the date; the first
// entry of Errors is the message shown to the user.
func (f Form) Validate() Result {
	t := trimmed{
		MCNumber:    strings.TrimSpace(f.MCNumber),
		Carrier:     strings.TrimSpace(f.Carrier),
		EnteredBy:   strings.TrimSpace(f.EnteredBy),
		DateEntered: strings.TrimSpace(f.DateEntered),
	}

	failed := map[string]bool{}
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Result{Errors: []FieldError{{Field: FieldMCNumber, Message: err.Error()}}}
		}
		for _, ve := range verrs {
			failed[structFields[ve.StructField()]] = true
		}
	}

	var errs []FieldError
	for _, field := range []string{FieldMCNumber, FieldCarrier, FieldEnteredBy} {
		if failed[field] {
			errs = append(errs, FieldError{Field: field, Message: MsgRequired})
		}
	}

	amount, err := ParseAmount(f.Amount)
	if err != nil {
		errs = append(errs, FieldError{Field: FieldAmount, Message: MsgAmount})
	}
	if failed[FieldDateEntered] {
		errs = append(errs, FieldError{Field: FieldDateEntered, Message: MsgDate})
	}
	if len(errs) > 0 {
		return Result{Errors: errs}
	}

	return Result{Record: NewRecord{
		MCNumber:    t.MCNumber,
		Carrier:     t.Carrier,
		Amount:      amount,
		Approved:    f.Approved,
		EnteredBy:   t.EnteredBy,
		Notes:       NormalizeNotes(f.Notes),
		DateEntered: t.DateEntered,
	}}
}

var errNegative = errors.New("amount is negative")

// ParseAmount parses a non-negative decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errNegative
	}
	return d, nil
}
