package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/mccheck/internal/database/repository"
	"github.com/jask/mccheck/internal/verification"
)

// SeedSamples fills an empty local database with a handful of demo
// verifications. It is idempotent and returns the number of rows inserted.
func SeedSamples(ctx context.Context, db *sql.DB, now time.Time) (int, error) {
	repo := repository.NewVerificationRepo(db)
	existing, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}
	note := "Insurance certificate on file"
	samples := []verification.NewRecord{
		{MCNumber: "MC123456", Carrier: "Acme Freight", Amount: decimal.RequireFromString("1250.00"), Approved: true, EnteredBy: "Alice"},
		{MCNumber: "MC998877", Carrier: "Blue Line Logistics", Amount: decimal.RequireFromString("480.50"), EnteredBy: "Bob", Notes: &note},
		{MCNumber: "MC554433", Carrier: "Coastal Haulers", Amount: decimal.RequireFromString("75"), EnteredBy: "Alice"},
	}
	inserted := 0
	err = WithTx(db, func(tx *sql.Tx) error {
		for i, s := range samples {
			s.DateEntered = verification.Today(now.AddDate(0, 0, -i))
			id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("mc:"+s.MCNumber)).String()
			created := now.UTC().Add(-time.Duration(i) * time.Minute)
			if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO mc_verifications(
			 id, mc_number, carrier, amount, approved, entered_by, notes, date_entered, created_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
			`, id, s.MCNumber, s.Carrier, s.Amount, s.Approved, s.EnteredBy, s.Notes, s.DateEntered, created); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
