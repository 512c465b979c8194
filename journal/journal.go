// Package journal persists finished backtest results. The engine itself does
// no I/O inside the bar loop; callers journal the Result after Run returns.
package journal

import (
	"github.com/rustyeddy/backsim/portfolio"
	"github.com/rustyeddy/backsim/tradelog"
)

// Journal records one run's trades and equity curve under a run ID.
type Journal interface {
	RecordTrade(runID string, t tradelog.Trade) error
	RecordEquity(runID string, pt portfolio.EquityPoint) error
	Close() error
}

// Record writes all trades and equity points of a finished run.
func Record(j Journal, runID string, trades []tradelog.Trade, curve []portfolio.EquityPoint) error {
	for _, t := range trades {
		if err := j.RecordTrade(runID, t); err != nil {
			return err
		}
	}
	for _, pt := range curve {
		if err := j.RecordEquity(runID, pt); err != nil {
			return err
		}
	}
	return nil
}
