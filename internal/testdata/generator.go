package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/mccheck/internal/store"
	"github.com/jask/mccheck/internal/verification"
)

var (
	carriers = []string{
		"Acme Freight", "Blue Line Logistics", "Coastal Haulers", "Desert Express",
		"Evergreen Transport", "Frontier Carriers", "Great Plains Trucking", "Harbor Drayage",
	}
	users = []string{"Alice", "Bob", "Carol", "Dana"}
	notes = []string{
		"Insurance certificate on file",
		"Called dispatcher to confirm",
		"Authority active, safety rating satisfactory",
		"Awaiting W-9",
	}
)

// Generate returns n random verifications dated within the ten days before
// now. The same rng seed yields the same records.
func Generate(rng *rand.Rand, n int, now time.Time) []verification.NewRecord {
	out := make([]verification.NewRecord, 0, n)
	for i := 0; i < n; i++ {
		cents := int64(rng.Intn(500000) + 500)
		rec := verification.NewRecord{
			MCNumber:    fmt.Sprintf("MC%06d", rng.Intn(1000000)),
			Carrier:     carriers[rng.Intn(len(carriers))],
			Amount:      decimal.New(cents, -2),
			Approved:    rng.Intn(10) < 6,
			EnteredBy:   users[rng.Intn(len(users))],
			DateEntered: verification.Today(now.AddDate(0, 0, -rng.Intn(10))),
		}
		if rng.Intn(3) == 0 {
			note := notes[rng.Intn(len(notes))]
			rec.Notes = &note
		}
		out = append(out, rec)
	}
	return out
}

// Seed inserts n generated verifications through c and returns how many
// were written before the first failure.
func Seed(ctx context.Context, c store.Client, n int, seed int64, now time.Time) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	for i, rec := range Generate(rng, n, now) {
		if err := c.Insert(ctx, rec); err != nil {
			return i, fmt.Errorf("insert %s: %w", rec.MCNumber, err)
		}
	}
	return n, nil
}
