package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/mccheck/internal/config"
	"github.com/jask/mccheck/internal/verification"
)

// REST talks to a PostgREST table (as served by Supabase under /rest/v1).
type REST struct {
	base  string
	key   string
	table string
	http  *http.Client
	log   zerolog.Logger
}

func NewREST(cfg config.StoreConfig, log zerolog.Logger) *REST {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = "mc_verifications"
	}
	return &REST{
		base:  strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		key:   strings.TrimSpace(cfg.AnonKey),
		table: table,
		http:  &http.Client{Timeout: timeout},
		log:   log,
	}
}

// restRecord mirrors a row on the wire. created_at is decoded by hand because
// "timestamp without time zone" columns come back without an offset.
type restRecord struct {
	ID          string          `json:"id"`
	MCNumber    string          `json:"mc_number"`
	Carrier     string          `json:"carrier"`
	Amount      decimal.Decimal `json:"amount"`
	Approved    bool            `json:"approved"`
	EnteredBy   string          `json:"entered_by"`
	Notes       *string         `json:"notes"`
	DateEntered string          `json:"date_entered"`
	CreatedAt   string          `json:"created_at"`
}

// restError is the PostgREST error body.
type restError struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Code    string `json:"code"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse created_at %q", s)
}

func (c *REST) ListAll(ctx context.Context) ([]verification.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	var rows []restRecord
	if err := c.do(ctx, "list", http.MethodGet, q, nil, "", &rows); err != nil {
		return nil, err
	}
	out := make([]verification.Record, 0, len(rows))
	for _, r := range rows {
		created, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, wrap("list", err)
		}
		out = append(out, verification.Record{
			ID:          r.ID,
			MCNumber:    r.MCNumber,
			Carrier:     r.Carrier,
			Amount:      r.Amount,
			Approved:    r.Approved,
			EnteredBy:   r.EnteredBy,
			Notes:       r.Notes,
			DateEntered: r.DateEntered,
			CreatedAt:   created,
		})
	}
	c.log.Debug().Int("count", len(out)).Msg("fetched verifications")
	return out, nil
}

func (c *REST) Insert(ctx context.Context, rec verification.NewRecord) error {
	body := payload(verification.ChangesFrom(rec))
	return c.do(ctx, "insert", http.MethodPost, nil, body, "return=minimal", nil)
}

func (c *REST) Update(ctx context.Context, id string, ch verification.Changes) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	if ch.Empty() {
		// PATCH with an empty object is rejected; check existence instead.
		q.Set("select", "id")
		var rows []json.RawMessage
		if err := c.do(ctx, "update", http.MethodGet, q, nil, "", &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("update")
		}
		return nil
	}

	var rows []json.RawMessage
	if err := c.do(ctx, "update", http.MethodPatch, q, payload(ch), "return=representation", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return notFound("update")
	}
	return nil
}

func (c *REST) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	var rows []json.RawMessage
	if err := c.do(ctx, "delete", http.MethodDelete, q, nil, "return=representation", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return notFound("delete")
	}
	return nil
}

// payload flattens ch into a JSON object. Amounts go out as bare numbers.
func payload(ch verification.Changes) map[string]any {
	fields := ch.Fields()
	if d, ok := fields["amount"].(decimal.Decimal); ok {
		fields["amount"] = json.Number(d.String())
	}
	return fields
}

func (c *REST) endpoint(q url.Values) string {
	u := c.base + "/rest/v1/" + url.PathEscape(c.table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *REST) do(ctx context.Context, op, method string, q url.Values, body any, prefer string, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return wrap(op, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(q), reader)
	if err != nil {
		return wrap(op, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("store request failed")
		return wrap(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrap(op, fmt.Errorf("read body: %w", err))
	}
	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("store request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return wrap(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func decodeError(op string, status int, data []byte) error {
	e := &Error{Op: op, Status: status}
	var body restError
	if err := json.Unmarshal(data, &body); err == nil {
		e.Message = body.Message
		e.Details = body.Details
		e.Hint = body.Hint
		e.Code = body.Code
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	return e
}
