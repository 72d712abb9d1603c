package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/mccheck/internal/config"
	"github.com/jask/mccheck/internal/verification"
)

type captured struct {
	method string
	path   string
	query  string
	header http.Header
	body   map[string]any
}

type fakePostgREST struct {
	mu       sync.Mutex
	requests []captured
	handle   func(w http.ResponseWriter, r *http.Request)
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		_ = dec.Decode(&c.body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, c)
	f.mu.Unlock()
	f.handle(w, r)
}

func (f *fakePostgREST) last() captured {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestREST(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*REST, *fakePostgREST) {
	t.Helper()
	fake := &fakePostgREST{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c := NewREST(config.StoreConfig{
		URL:     srv.URL + "/",
		AnonKey: "anon-key",
		Table:   "mc_verifications",
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
	return c, fake
}

func TestRESTListAll(t *testing.T) {
	t.Parallel()

	c, fake := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":"b","mc_number":"MC2","carrier":"Beta","amount":50,"approved":true,"entered_by":"bob","notes":"n","date_entered":"2024-02-02","created_at":"2024-02-02T10:00:00.123456+00:00"},
			{"id":"a","mc_number":"MC1","carrier":"Alpha","amount":"5.25","approved":false,"entered_by":"al","notes":null,"date_entered":"2024-02-01","created_at":"2024-02-01T09:00:00"}
		]`)
	})

	rows, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "b", rows[0].ID)
	require.True(t, rows[0].Amount.Equal(decimal.NewFromInt(50)))
	require.Equal(t, "n", rows[0].NotesText())
	require.Equal(t, time.Date(2024, 2, 2, 10, 0, 0, 123456000, time.UTC), rows[0].CreatedAt)
	require.Nil(t, rows[1].Notes)
	require.Equal(t, "5.25", rows[1].Amount.String())
	require.Equal(t, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), rows[1].CreatedAt)

	req := fake.last()
	require.Equal(t, http.MethodGet, req.method)
	require.Equal(t, "/rest/v1/mc_verifications", req.path)
	require.Equal(t, "order=created_at.desc&select=%2A", req.query)
	require.Equal(t, "anon-key", req.header.Get("apikey"))
	require.Equal(t, "Bearer anon-key", req.header.Get("Authorization"))
}

func TestRESTInsertSendsNumberAmount(t *testing.T) {
	t.Parallel()

	c, fake := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Insert(context.Background(), verification.NewRecord{
		MCNumber:    "MC123456",
		Carrier:     "Acme",
		Amount:      decimal.RequireFromString("12.50"),
		EnteredBy:   "alice",
		DateEntered: "2024-03-01",
	})
	require.NoError(t, err)

	req := fake.last()
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "return=minimal", req.header.Get("Prefer"))
	require.Equal(t, json.Number("12.5"), req.body["amount"])
	require.Equal(t, "MC123456", req.body["mc_number"])
	require.Contains(t, req.body, "notes")
	require.Nil(t, req.body["notes"])
	require.NotContains(t, req.body, "id")
	require.NotContains(t, req.body, "created_at")
}

func TestRESTUpdateAndDelete(t *testing.T) {
	t.Parallel()

	c, fake := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.missing" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"x"}]`)
	})
	ctx := context.Background()

	approved := true
	require.NoError(t, c.Update(ctx, "x", verification.Changes{Approved: &approved}))
	req := fake.last()
	require.Equal(t, http.MethodPatch, req.method)
	require.Equal(t, "return=representation", req.header.Get("Prefer"))
	require.Equal(t, map[string]any{"approved": true}, req.body)

	err := c.Update(ctx, "missing", verification.Changes{Approved: &approved})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Delete(ctx, "x"))
	require.Equal(t, http.MethodDelete, fake.last().method)

	err = c.Delete(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	var se *Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, "delete", se.Op)
}

func TestRESTErrorBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"invalid input syntax for type numeric","details":null,"hint":null,"code":"22P02"}`)
	})

	_, err := c.ListAll(context.Background())
	require.EqualError(t, err, "invalid input syntax for type numeric")
	var se *Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadRequest, se.Status)
	require.Equal(t, "22P02", se.Code)
}

func TestRESTErrorWithoutBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Insert(context.Background(), verification.NewRecord{})
	require.EqualError(t, err, "insert: status 503")
	require.Equal(t, "Failed to save.", Message(err, "Failed to save."))
	var se *Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.Status)
	require.Empty(t, se.Message)
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	ts, err := parseTimestamp("2024-05-06 07:08:09+02:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 6, 5, 8, 9, 0, time.UTC), ts)

	_, err = parseTimestamp("yesterday")
	require.Error(t, err)
}
