// Package tradelog records closed round trips and partial exits, and rolls
// them up into summary statistics.
package tradelog

import (
	"time"

	"github.com/rustyeddy/backsim/costs"
)

// Trade is one closed round trip or partial exit. It is created once when the
// reduction happens and never mutated afterwards.
type Trade struct {
	Ticker     string
	Side       costs.Side // side of the original entry; always Buy (long-only)
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64 // blended average cost at exit time
	ExitPrice  float64 // execution price after slippage
	Quantity   int64   // shares closed by this exit

	PnL         float64 // net of both legs' commission and exit tax
	PnLPct      float64 // PnL over cost basis
	Commission  float64 // entry share + exit commission
	Tax         float64
	HoldingDays int
}

// Stats is the aggregate view of a trade log. Every field is zero on an
// empty log; Stats never fails.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	WinRate        float64
	AvgWin         float64
	AvgLoss        float64
	AvgHoldingDays float64

	TotalCommission float64
	TotalTax        float64
}

// Logger accumulates trades for one run.
type Logger struct {
	trades []Trade
}

func NewLogger() *Logger {
	return &Logger{}
}

// Record appends one trade.
func (l *Logger) Record(t Trade) {
	l.trades = append(l.trades, t)
}

// Trades returns the recorded trades in record order.
func (l *Logger) Trades() []Trade { return l.trades }

// Stats rolls up the log. PnL > 0 counts as a win, PnL <= 0 as a loss.
func (l *Logger) Stats() Stats {
	var s Stats
	s.TotalTrades = len(l.trades)
	if s.TotalTrades == 0 {
		return s
	}

	var winAmt, lossAmt, holdDays float64
	for _, t := range l.trades {
		if t.PnL > 0 {
			s.WinningTrades++
			winAmt += t.PnL
		} else {
			s.LosingTrades++
			lossAmt += t.PnL
		}
		holdDays += float64(t.HoldingDays)
		s.TotalCommission += t.Commission
		s.TotalTax += t.Tax
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	if s.WinningTrades > 0 {
		s.AvgWin = winAmt / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = lossAmt / float64(s.LosingTrades)
	}
	s.AvgHoldingDays = holdDays / float64(s.TotalTrades)
	return s
}
