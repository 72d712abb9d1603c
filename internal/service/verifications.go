package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/store"
	"github.com/jask/mccheck/internal/verification"
)

// Status is the fetch state of the cached list.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Fallback display messages for store failures that carry no text.
const (
	MsgLoadFailed   = "Failed to load verifications"
	MsgSaveFailed   = "Failed to save."
	MsgUpdateFailed = "Update failed."
	MsgDeleteFailed = "Delete failed."
)

// Snapshot is a point-in-time copy of the cached list. Err is only set when
// Status is StatusError, and Records is then empty.
type Snapshot struct {
	Status  Status
	Records []verification.Record
	Err     string
	// Version increases with every transition; listeners may receive
	// snapshots out of order and should drop older versions.
	Version uint64
}

// Loading reports whether a fetch is in flight.
func (s Snapshot) Loading() bool { return s.Status == StatusLoading }

// Verifications owns the cached verification list. Every successful
// mutation is followed by a full refetch; overlapping fetches are not
// deduplicated and the one that resolves last wins.
type Verifications struct {
	store store.Client
	log   zerolog.Logger

	mu        sync.Mutex
	snap      Snapshot
	listeners []func(Snapshot)
}

func NewVerifications(c store.Client, log zerolog.Logger) *Verifications {
	return &Verifications{
		store: c,
		log:   log.With().Str("component", "verifications").Logger(),
		snap:  Snapshot{Status: StatusLoading, Records: []verification.Record{}},
	}
}

// OnChange registers fn to receive every state transition. fn is called
// outside the lock, from whichever goroutine caused the change.
func (v *Verifications) OnChange(fn func(Snapshot)) {
	v.mu.Lock()
	v.listeners = append(v.listeners, fn)
	v.mu.Unlock()
}

// Snapshot returns the current state.
func (v *Verifications) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// KnownCarriers returns the distinct carrier names in the cached list.
func (v *Verifications) KnownCarriers() []string {
	snap := v.Snapshot()
	names := make([]string, 0, len(snap.Records))
	for _, r := range snap.Records {
		names = append(names, r.Carrier)
	}
	return listview.Carriers(names)
}

// Start performs the initial fetch.
func (v *Verifications) Start(ctx context.Context) { v.Refetch(ctx) }

// Refetch reloads the list from the store. Failures are recorded in the
// snapshot, never returned.
func (v *Verifications) Refetch(ctx context.Context) {
	v.set(func(s *Snapshot) {
		s.Status = StatusLoading
		s.Err = ""
	})
	v.log.Debug().Msg("fetching verifications")

	rows, err := v.store.ListAll(ctx)
	if err != nil {
		msg := store.Message(err, MsgLoadFailed)
		v.log.Error().Err(err).Msg("fetch failed")
		v.set(func(s *Snapshot) {
			s.Status = StatusError
			s.Err = msg
			s.Records = []verification.Record{}
		})
		return
	}
	if rows == nil {
		rows = []verification.Record{}
	}
	v.log.Debug().Int("count", len(rows)).Msg("fetched verifications")
	v.set(func(s *Snapshot) {
		s.Status = StatusReady
		s.Err = ""
		s.Records = rows
	})
}

// Add inserts rec and refetches. On failure the cached list is untouched.
func (v *Verifications) Add(ctx context.Context, rec verification.NewRecord) error {
	if err := v.store.Insert(ctx, rec); err != nil {
		v.log.Error().Err(err).Str("mc_number", rec.MCNumber).Msg("insert failed")
		return err
	}
	v.log.Info().Str("mc_number", rec.MCNumber).Msg("verification added")
	v.Refetch(ctx)
	return nil
}

// Update applies ch to the record with id and refetches.
func (v *Verifications) Update(ctx context.Context, id string, ch verification.Changes) error {
	if err := v.store.Update(ctx, id, ch); err != nil {
		v.log.Error().Err(err).Str("id", id).Msg("update failed")
		return err
	}
	v.log.Info().Str("id", id).Msg("verification updated")
	v.Refetch(ctx)
	return nil
}

// Delete removes the record with id and refetches.
func (v *Verifications) Delete(ctx context.Context, id string) error {
	if err := v.store.Delete(ctx, id); err != nil {
		v.log.Error().Err(err).Str("id", id).Msg("delete failed")
		return err
	}
	v.log.Info().Str("id", id).Msg("verification deleted")
	v.Refetch(ctx)
	return nil
}

func (v *Verifications) set(fn func(*Snapshot)) {
	v.mu.Lock()
	fn(&v.snap)
	v.snap.Version++
	snap := v.snap
	listeners := append([]func(Snapshot){}, v.listeners...)
	v.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
