// Package portfolio owns cash, open positions and the equity curve for one
// backtest run. All position mutation goes through the Tracker so the
// accounting invariants (cash >= 0, quantity > 0 while open, blended average
// cost) are enforced in one place.
package portfolio

import (
	"fmt"
	"sort"
	"time"
)

// EquityPoint is one bar's portfolio snapshot. Points are append-only and the
// caller guarantees non-decreasing date order.
type EquityPoint struct {
	Date     time.Time
	Cash     float64
	Holdings float64
	Total    float64
}

// Tracker is the exclusive owner of one run's portfolio state. It is not safe
// for concurrent use; one engine instance owns one Tracker for a run.
type Tracker struct {
	cash      float64
	positions map[string]*Position
	curve     []EquityPoint
}

// NewTracker starts a portfolio with the given cash balance.
func NewTracker(cash float64) *Tracker {
	return &Tracker{
		cash:      cash,
		positions: make(map[string]*Position),
	}
}

// Cash returns the current free cash balance.
func (tr *Tracker) Cash() float64 { return tr.cash }

// Position returns the open position for ticker, or nil.
func (tr *Tracker) Position(ticker string) *Position {
	return tr.positions[ticker]
}

// OpenCount returns the number of open positions.
func (tr *Tracker) OpenCount() int { return len(tr.positions) }

// Tickers returns the open position tickers in sorted order, so iteration
// over holdings is deterministic.
func (tr *Tracker) Tickers() []string {
	out := make([]string, 0, len(tr.positions))
	for t := range tr.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Add opens a new position, or scales into an existing one by recomputing the
// blended average cost. EntryDate is fixed at the first open and is not reset
// by averaging. The caller has already clamped qty so the debit cannot push
// cash negative; a violation here is a bug, not a market condition.
func (tr *Tracker) Add(ticker string, qty int64, price float64, commission float64, date time.Time) error {
	if qty <= 0 {
		return fmt.Errorf("add %s: quantity must be positive, got %d", ticker, qty)
	}

	debit := price*float64(qty) + commission
	if debit > tr.cash {
		return fmt.Errorf("add %s: debit %.2f exceeds cash %.2f", ticker, debit, tr.cash)
	}
	tr.cash -= debit

	p, ok := tr.positions[ticker]
	if !ok {
		tr.positions[ticker] = &Position{
			Ticker:          ticker,
			Quantity:        qty,
			AvgPrice:        price,
			EntryDate:       date,
			CurrentPrice:    price,
			entryCommission: commission,
		}
		return nil
	}

	total := p.Quantity + qty
	p.AvgPrice = (float64(p.Quantity)*p.AvgPrice + float64(qty)*price) / float64(total)
	p.Quantity = total
	p.CurrentPrice = price
	p.entryCommission += commission
	return nil
}

// Reduce sells qty shares of ticker, crediting the net proceeds to cash.
// The realized basis is the current blended average cost (average-cost
// accounting, not FIFO lots). It returns a snapshot of the closed quantity;
// Final is set when the position reached zero and was removed.
func (tr *Tracker) Reduce(ticker string, qty int64, proceeds float64) (Closed, error) {
	p, ok := tr.positions[ticker]
	if !ok {
		return Closed{}, fmt.Errorf("reduce %s: no open position", ticker)
	}
	if qty <= 0 || qty > p.Quantity {
		return Closed{}, fmt.Errorf("reduce %s: quantity %d out of range (held %d)", ticker, qty, p.Quantity)
	}

	// Entry commission leaves the position proportionally with the shares.
	share := p.entryCommission * float64(qty) / float64(p.Quantity)

	c := Closed{
		Ticker:          ticker,
		Quantity:        qty,
		AvgPrice:        p.AvgPrice,
		EntryDate:       p.EntryDate,
		EntryCommission: share,
	}

	tr.cash += proceeds
	p.Quantity -= qty
	p.entryCommission -= share

	if p.Quantity == 0 {
		delete(tr.positions, ticker)
		c.Final = true
	}
	return c, nil
}

// UpdatePrices marks open positions to the given closes. Tickers absent from
// prices keep their last known price.
func (tr *Tracker) UpdatePrices(prices map[string]float64) {
	for ticker, p := range tr.positions {
		if px, ok := prices[ticker]; ok {
			p.CurrentPrice = px
		}
	}
}

// HoldingsValue is the mark-to-market value of all open positions.
func (tr *Tracker) HoldingsValue() float64 {
	var v float64
	for _, p := range tr.positions {
		v += p.MarketValue()
	}
	return v
}

// Value is total portfolio value: cash plus holdings.
func (tr *Tracker) Value() float64 {
	return tr.cash + tr.HoldingsValue()
}

// RecordEquity appends one equity point for date. The engine calls this once
// per bar, in date order.
func (tr *Tracker) RecordEquity(date time.Time) {
	holdings := tr.HoldingsValue()
	tr.curve = append(tr.curve, EquityPoint{
		Date:     date,
		Cash:     tr.cash,
		Holdings: holdings,
		Total:    tr.cash + holdings,
	})
}

// EquityCurve returns the recorded curve.
func (tr *Tracker) EquityCurve() []EquityPoint { return tr.curve }
