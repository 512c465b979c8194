package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/backsim/portfolio"
	"github.com/rustyeddy/backsim/tradelog"
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"run_id", "ticker", "side", "quantity", "entry_date", "exit_date", "entry_price", "exit_price", "pnl", "pnl_pct", "commission", "tax", "holding_days"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "date", "cash", "holdings", "total"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func (j *CSVJournal) RecordTrade(runID string, t tradelog.Trade) error {
	err := j.trades.Write([]string{
		runID,
		t.Ticker,
		t.Side.String(),
		strconv.FormatInt(t.Quantity, 10),
		t.EntryDate.Format(time.RFC3339),
		t.ExitDate.Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.PnL),
		f(t.PnLPct),
		f(t.Commission),
		f(t.Tax),
		strconv.Itoa(t.HoldingDays),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(runID string, pt portfolio.EquityPoint) error {
	err := j.equity.Write([]string{
		runID,
		pt.Date.Format(time.RFC3339),
		f(pt.Cash),
		f(pt.Holdings),
		f(pt.Total),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
