package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/backsim/portfolio"
	"github.com/rustyeddy/backsim/tradelog"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(runID string, t tradelog.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, ticker, side, quantity, entry_date, exit_date, entry_price, exit_price, pnl, pnl_pct, commission, tax, holding_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Ticker, t.Side.String(), t.Quantity,
		t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
		t.PnL, t.PnLPct, t.Commission, t.Tax, t.HoldingDays,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(runID string, pt portfolio.EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, date, cash, holdings, total)
		VALUES (?, ?, ?, ?, ?)`,
		runID, pt.Date, pt.Cash, pt.Holdings, pt.Total,
	)
	return err
}

// ListTrades returns the trades of a run in exit date order.
func (j *SQLiteJournal) ListTrades(runID string) ([]tradelog.Trade, error) {
	rows, err := j.db.Query(`
		SELECT ticker, quantity, entry_date, exit_date, entry_price, exit_price, pnl, pnl_pct, commission, tax, holding_days
		FROM trades
		WHERE run_id = ?
		ORDER BY exit_date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tradelog.Trade
	for rows.Next() {
		var t tradelog.Trade
		var entry, exit time.Time
		if err := rows.Scan(
			&t.Ticker, &t.Quantity, &entry, &exit,
			&t.EntryPrice, &t.ExitPrice, &t.PnL, &t.PnLPct,
			&t.Commission, &t.Tax, &t.HoldingDays,
		); err != nil {
			return nil, err
		}
		t.EntryDate = entry
		t.ExitDate = exit
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve in date order.
func (j *SQLiteJournal) ListEquity(runID string) ([]portfolio.EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT date, cash, holdings, total
		FROM equity
		WHERE run_id = ?
		ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.EquityPoint
	for rows.Next() {
		var pt portfolio.EquityPoint
		if err := rows.Scan(&pt.Date, &pt.Cash, &pt.Holdings, &pt.Total); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("close journal db: %w", err)
	}
	return nil
}
