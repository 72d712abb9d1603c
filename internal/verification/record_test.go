package verification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestChangesFields(t *testing.T) {
	t.Parallel()

	approved := true
	ch := Changes{Approved: &approved}
	require.False(t, ch.Empty())
	require.Equal(t, map[string]any{"approved": true}, ch.Fields())

	require.Equal(t, map[string]any{"notes": nil}, Changes{ClearNotes: true}.Fields())
	require.True(t, Changes{}.Empty())
}

func TestAmountText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "12.50", Record{Amount: decimal.RequireFromString("12.5")}.AmountText())
	require.Equal(t, "100.00", Record{Amount: decimal.NewFromInt(100)}.AmountText())
}

func TestFormatDateAtNoon(t *testing.T) {
	t.Parallel()

	// Far west of UTC: midnight parsing in UTC then converting would slip a day.
	loc := time.FixedZone("UTC-11", -11*3600)
	require.Equal(t, "01/01/2024", FormatDate("2024-01-01", "01/02/2006", loc))
	require.Equal(t, "—", FormatDate("", "01/02/2006", loc))
	require.Equal(t, "garbage", FormatDate("garbage", "01/02/2006", loc))
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)
	require.Equal(t, "2024-01-02 01:00", FormatTimestamp(ts, "2006-01-02 15:04", loc))
	require.Equal(t, "—", FormatTimestamp(time.Time{}, "2006-01-02", loc))
}
