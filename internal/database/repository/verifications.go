package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jask/mccheck/internal/verification"
)

const verificationColumns = "id, mc_number, carrier, amount, approved, entered_by, notes, date_entered, created_at"

// VerificationRepo handles mc_verifications.
type VerificationRepo struct {
	db *sql.DB
}

func NewVerificationRepo(db *sql.DB) *VerificationRepo { return &VerificationRepo{db: db} }

// Insert stores n under id. createdAt is supplied by the caller so that the
// store layer owns the clock.
func (r *VerificationRepo) Insert(ctx context.Context, id string, createdAt time.Time, n verification.NewRecord) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO mc_verifications(
	 id, mc_number, carrier, amount, approved, entered_by, notes, date_entered, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		id, n.MCNumber, n.Carrier, n.Amount, n.Approved, n.EnteredBy, n.Notes, n.DateEntered, createdAt.UTC())
	return err
}

// List returns every row, newest first.
func (r *VerificationRepo) List(ctx context.Context) ([]verification.Record, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+verificationColumns+" FROM mc_verifications ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []verification.Record
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get returns the row with id, or nil when there is none.
func (r *VerificationRepo) Get(ctx context.Context, id string) (*verification.Record, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+verificationColumns+" FROM mc_verifications WHERE id = ?", id)
	v, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// Update applies ch to the row with id. It reports false when no row matched.
func (r *VerificationRepo) Update(ctx context.Context, id string, ch verification.Changes) (bool, error) {
	fields := ch.Fields()
	if len(fields) == 0 {
		v, err := r.Get(ctx, id)
		return v != nil, err
	}

	// Fixed column order keeps the statement deterministic.
	var sets []string
	var args []interface{}
	for _, col := range []string{"mc_number", "carrier", "amount", "approved", "entered_by", "notes", "date_entered"} {
		val, ok := fields[col]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, fmt.Sprintf("UPDATE mc_verifications SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the row with id. It reports false when no row matched.
func (r *VerificationRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mc_verifications WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of rows.
func (r *VerificationRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mc_verifications`).Scan(&n)
	return n, err
}

// scanVerification handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVerification(row scanner) (verification.Record, error) {
	var v verification.Record
	var notes sql.NullString
	if err := row.Scan(&v.ID, &v.MCNumber, &v.Carrier, &v.Amount, &v.Approved, &v.EnteredBy,
		&notes, &v.DateEntered, &v.CreatedAt); err != nil {
		return verification.Record{}, err
	}
	if notes.Valid {
		v.Notes = &notes.String
	}
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}
