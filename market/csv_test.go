package market

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBarsCSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "005930.csv",
		"date,open,high,low,close,volume\n"+
			"2024-01-02,60000,61500,59800,61000,12345678\n"+
			"2024-01-03,61000,62000,60500,61800,9876543\n")

	bars, err := LoadBarsCSV(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 60_000.0, bars[0].Open)
	assert.Equal(t, 61_000.0, bars[0].Close)
	assert.Equal(t, 12_345_678.0, bars[0].Volume)
	assert.Equal(t, 61_800.0, bars[1].Close)
}

func TestLoadBarsCSV_BadRow(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.csv",
		"date,open,high,low,close,volume\n"+
			"2024-01-02,60000,61500,59800,not-a-number,1\n")

	_, err := LoadBarsCSV(path)
	assert.Error(t, err)
}

func TestLoadSignalsCSV_PreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "signals.csv",
		"date,ticker,signal\n"+
			"2024-01-02,035420,true\n"+
			"2024-01-02,005930,true\n"+
			"2024-01-03,035420,false\n"+
			"2024-01-03,005930,true\n")

	series, err := LoadSignalsCSV(path)
	require.NoError(t, err)
	require.Len(t, series, 2)

	// First-seen order is the entry admission tie-break downstream.
	assert.Equal(t, "035420", series[0].Ticker)
	assert.Equal(t, "005930", series[1].Ticker)

	require.Len(t, series[0].Points, 2)
	assert.True(t, series[0].Points[0].Hold)
	assert.False(t, series[0].Points[1].Hold)
}

func TestLoadSignalsCSV_BoolForms(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "signals.csv",
		"date,ticker,signal\n"+
			"2024-01-02,A,1\n"+
			"2024-01-03,A,0\n"+
			"2024-01-04,A,True\n"+
			"2024-01-05,A,no\n")

	series, err := LoadSignalsCSV(path)
	require.NoError(t, err)
	require.Len(t, series, 1)

	holds := []bool{true, false, true, false}
	for i, pt := range series[0].Points {
		assert.Equal(t, holds[i], pt.Hold, "point %d", i)
	}
}

func TestLoadSignalsCSV_BadValue(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "signals.csv",
		"date,ticker,signal\n"+
			"2024-01-02,A,maybe\n")

	_, err := LoadSignalsCSV(path)
	assert.Error(t, err)
}

func TestDay(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 7, 15, 30, 45, 123, time.FixedZone("KST", 9*3600))
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), Day(ts))
}
