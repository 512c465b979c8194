package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// LoadBarsCSV reads one ticker's daily bars from a CSV file with the header
// date,open,high,low,close,volume. Rows must already be date ascending.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		return nil, fmt.Errorf("read bars header: %w", err)
	}

	var bars []Bar
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bars csv line %d: %w", line, err)
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("bars csv line %d: expected 6 fields, got %d", line, len(rec))
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("bars csv line %d: %w", line, err)
		}

		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("bars csv line %d field %d: %w", line, i+2, err)
			}
			vals[i] = v
		}

		bars = append(bars, Bar{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}

// LoadSignalsCSV reads hold/flat signals from a CSV file with the header
// date,ticker,signal. Series come back in first-seen ticker order, which is
// the order the engine uses to break entry admission ties.
func LoadSignalsCSV(path string) ([]SignalSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signals csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		return nil, fmt.Errorf("read signals header: %w", err)
	}

	var order []string
	byTicker := make(map[string]*SignalSeries)

	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read signals csv line %d: %w", line, err)
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("signals csv line %d: expected 3 fields, got %d", line, len(rec))
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("signals csv line %d: %w", line, err)
		}

		ticker := strings.TrimSpace(rec[1])
		hold, err := parseBool(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("signals csv line %d: %w", line, err)
		}

		s, ok := byTicker[ticker]
		if !ok {
			s = &SignalSeries{Ticker: ticker}
			byTicker[ticker] = s
			order = append(order, ticker)
		}
		s.Points = append(s.Points, SignalPoint{Date: date, Hold: hold})
	}

	out := make([]SignalSeries, 0, len(order))
	for _, ticker := range order {
		out = append(out, *byTicker[ticker])
	}
	return out, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes":
		return true, nil
	case "false", "f", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("bad signal value %q", s)
}
