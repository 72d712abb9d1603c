package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jask/mccheck/internal/config"
	"github.com/jask/mccheck/internal/verification"
)

// Client is the record store. Every failure is a *Error.
type Client interface {
	// ListAll returns every record, newest created_at first.
	ListAll(ctx context.Context) ([]verification.Record, error)
	// Insert creates a record; the store assigns id and created_at.
	Insert(ctx context.Context, rec verification.NewRecord) error
	// Update applies ch to the record with id, or fails with ErrNotFound.
	Update(ctx context.Context, id string, ch verification.Changes) error
	// Delete removes the record with id, or fails with ErrNotFound.
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound      = errors.New("record not found")
	ErrNotConfigured = errors.New("store is not configured: set store URL and anon key")
)

// Error is a store failure carrying a display message. Status, Code, Details
// and Hint are filled from REST error bodies when available.
type Error struct {
	Op      string
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return e.Op + " failed"
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Message: err.Error(), Err: err}
}

func notFound(op string) error {
	return &Error{Op: op, Message: ErrNotFound.Error(), Err: ErrNotFound}
}

// Message returns the display text for err, or fallback when err carries none.
// A store *Error without a message of its own yields fallback even though its
// Error() still names the op and status for logs.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		if msg := strings.TrimSpace(se.Message); msg != "" {
			return msg
		}
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// New picks the store implementation from cfg. db is only used by the sqlite
// backend. A REST store missing its endpoint or key is disabled rather than
// failing startup.
func New(cfg config.StoreConfig, db *sql.DB, log zerolog.Logger) (Client, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if db == nil {
			return nil, errors.New("sqlite store: database is not open")
		}
		log.Debug().Msg("using sqlite store")
		return NewSQLite(db), nil
	case config.BackendREST, "":
		if !cfg.RESTConfigured() {
			log.Warn().Msg("store URL and anon key must be set (MCCHECK_STORE_URL / MCCHECK_STORE_ANON_KEY or SUPABASE_URL / SUPABASE_ANON_KEY) for database features")
			return Disabled{}, nil
		}
		log.Debug().Int("url_len", len(cfg.URL)).Msg("store config present")
		return NewREST(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Disabled fails every call with ErrNotConfigured.
type Disabled struct{}

func (Disabled) err(op string) error {
	return &Error{Op: op, Message: ErrNotConfigured.Error(), Err: ErrNotConfigured}
}

func (d Disabled) ListAll(context.Context) ([]verification.Record, error) {
	return nil, d.err("list")
}

func (d Disabled) Insert(context.Context, verification.NewRecord) error { return d.err("insert") }

func (d Disabled) Update(context.Context, string, verification.Changes) error {
	return d.err("update")
}

func (d Disabled) Delete(context.Context, string) error { return d.err("delete") }
