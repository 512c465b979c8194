package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backsim/costs"
	"github.com/rustyeddy/backsim/portfolio"
	"github.com/rustyeddy/backsim/tradelog"
)

func testTrade() tradelog.Trade {
	return tradelog.Trade{
		Ticker:      "005930",
		Side:        costs.Buy,
		EntryDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		ExitDate:    time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
		EntryPrice:  60_000,
		ExitPrice:   66_000,
		Quantity:    100,
		PnL:         580_000,
		PnLPct:      0.0966,
		Commission:  1_890,
		Tax:         15_180,
		HoldingDays: 10,
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	runID := "01TESTRUN"
	want := testTrade()
	require.NoError(t, j.RecordTrade(runID, want))

	pt := portfolio.EquityPoint{
		Date:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Cash:     400_000,
		Holdings: 600_000,
		Total:    1_000_000,
	}
	require.NoError(t, j.RecordEquity(runID, pt))

	trades, err := j.ListTrades(runID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	got := trades[0]
	assert.Equal(t, want.Ticker, got.Ticker)
	assert.Equal(t, want.Quantity, got.Quantity)
	assert.InDelta(t, want.PnL, got.PnL, 1e-9)
	assert.Equal(t, want.HoldingDays, got.HoldingDays)
	assert.True(t, want.EntryDate.Equal(got.EntryDate))

	curve, err := j.ListEquity(runID)
	require.NoError(t, err)
	require.Len(t, curve, 1)
	assert.InDelta(t, pt.Total, curve[0].Total, 1e-9)
}

func TestSQLite_RunIsolation(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordTrade("run-a", testTrade()))
	require.NoError(t, j.RecordTrade("run-b", testTrade()))

	trades, err := j.ListTrades("run-a")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestSQLite_EmptyRun(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	trades, err := j.ListTrades("nope")
	require.NoError(t, err)
	assert.Empty(t, trades)
}
