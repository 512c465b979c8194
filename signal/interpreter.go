// Package signal translates boolean hold/flat signals into sized orders
// against the current portfolio.
package signal

import (
	"math"
	"time"

	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/costs"
	"github.com/rustyeddy/backsim/portfolio"
)

// Order is an instruction for the engine to execute within the same bar.
// Orders are never persisted.
type Order struct {
	Ticker   string
	Side     costs.Side
	Quantity int64
	Date     time.Time
}

// Today is one ticker's signal value on the current bar, in the input order
// of the signals collection. That order is the entry admission tie-break:
// when more true signals arrive than free slots, earlier tickers win.
// Ranking candidates is the signal producer's job, not the interpreter's.
type Today struct {
	Ticker string
	Hold   bool
	Price  float64 // today's close; 0 when the ticker has no bar today
}

// Interpreter reads current holdings and today's signals to produce orders.
// Output contract: all SELL orders precede all BUY orders.
type Interpreter struct {
	cfg     *config.Config
	tracker *portfolio.Tracker
}

func NewInterpreter(cfg *config.Config, tracker *portfolio.Tracker) *Interpreter {
	return &Interpreter{cfg: cfg, tracker: tracker}
}

// Orders produces today's order list. Exits come first: a full SELL for
// every held ticker whose signal is false or absent today. Entries follow,
// admitted up to the slots that remain open after the exits.
func (in *Interpreter) Orders(today []Today, date time.Time) []Order {
	var orders []Order

	signaled := make(map[string]Today, len(today))
	for _, s := range today {
		signaled[s.Ticker] = s
	}

	// Exits. Tracker tickers are sorted, so sell order is deterministic.
	holding := 0
	for _, ticker := range in.tracker.Tickers() {
		s, ok := signaled[ticker]
		if ok && s.Hold {
			holding++
			continue
		}
		orders = append(orders, Order{
			Ticker:   ticker,
			Side:     costs.Sell,
			Quantity: in.tracker.Position(ticker).Quantity,
			Date:     date,
		})
	}

	// Entries, in input order, up to the slots free after the exits above.
	slots := math.MaxInt
	if in.cfg.TargetPositions > 0 {
		slots = in.cfg.TargetPositions - holding
	}
	for _, s := range today {
		if slots <= 0 {
			break
		}
		if !s.Hold || s.Price <= 0 {
			continue
		}
		if in.tracker.Position(s.Ticker) != nil {
			continue
		}

		qty := in.size(s)
		if qty <= 0 {
			continue
		}

		orders = append(orders, Order{
			Ticker:   s.Ticker,
			Side:     costs.Buy,
			Quantity: qty,
			Date:     date,
		})
		slots--
	}

	return orders
}

// size converts the configured sizing scheme into a whole-share quantity at
// today's price. The engine still clamps buys to available cash afterwards.
func (in *Interpreter) size(s Today) int64 {
	switch in.cfg.SizeType {
	case config.EqualWeight:
		alloc := in.tracker.Value() / float64(in.cfg.TargetPositions)
		return int64(math.Floor(alloc / s.Price))

	case config.Percent:
		frac := in.cfg.SizingValues[s.Ticker]
		if frac <= 0 {
			return 0
		}
		return int64(math.Floor(in.tracker.Value() * frac / s.Price))

	case config.Shares:
		return int64(math.Floor(in.cfg.SizingValues[s.Ticker]))
	}
	return 0
}
