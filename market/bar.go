package market

import "time"

// Bar is one daily OHLCV snapshot for a ticker.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Dataset maps ticker -> bars, date ascending. Callers provide bars already
// sorted; the engine trusts the order and only filters by date range.
type Dataset map[string][]Bar

// SignalPoint is one day's hold/flat decision for a ticker.
type SignalPoint struct {
	Date time.Time
	Hold bool
}

// SignalSeries is an ordered (date, bool) sequence for one ticker.
// True means "desire to hold" on that date.
type SignalSeries struct {
	Ticker string
	Points []SignalPoint
}

// Day truncates t to UTC midnight so bar and signal dates compare cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
