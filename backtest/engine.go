// Package backtest drives the event-driven bar loop: mark-to-market, signal
// interpretation, order execution through the cost model, and equity
// recording, in a fixed order on every bar.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/costs"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/perf"
	"github.com/rustyeddy/backsim/portfolio"
	"github.com/rustyeddy/backsim/signal"
	"github.com/rustyeddy/backsim/tradelog"
)

// Input is one run's dataset. Signals is a slice because its order is the
// entry admission tie-break when true signals outnumber free slots.
// Start/End bound the simulated date range; zero values mean unbounded.
type Input struct {
	Data    market.Dataset
	Signals []market.SignalSeries
	Start   time.Time
	End     time.Time
}

// Result is the sole hand-off to downstream reporting layers.
type Result struct {
	Metrics       perf.Metrics
	EquityCurve   []portfolio.EquityPoint
	Trades        []tradelog.Trade
	TradeStats    tradelog.Stats
	ExecutionTime float64 // wall-clock seconds
}

// Engine runs one backtest at a time. Each call to Run builds fresh portfolio
// state, so a single Engine can be reused sequentially; independent engines
// share nothing and may run in parallel.
type Engine struct {
	cfg    *config.Config
	model  costs.Model
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the default slog logger used for alignment and
// price-gap warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New validates cfg and builds an engine. Configuration failures are fatal
// and wrap config.ErrInvalid; no simulation starts.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg: cfg,
		model: costs.Model{
			CommissionRate: cfg.CommissionRate,
			TaxRate:        cfg.TaxRate,
			SlippageBps:    cfg.SlippageBps,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run simulates the strategy bar by bar over the date-sorted union of all
// bars in range. The per-bar order is fixed: mark prices, interpret signals
// (sells before buys), execute orders, record equity. Identical inputs
// produce identical equity curves and trade lists.
//
// Cancellation is checked once per bar; on ctx cancellation the partial
// equity curve and trade log are finalized and returned alongside ctx.Err().
func (e *Engine) Run(ctx context.Context, in Input) (Result, error) {
	started := time.Now()

	tracker := portfolio.NewTracker(e.cfg.InitialCapital)
	tlog := tradelog.NewLogger()
	interp := signal.NewInterpreter(e.cfg, tracker)

	run := newRunState(e, in)
	if len(run.dates) == 0 {
		return e.finalize(tracker, tlog, started), nil
	}

	for _, date := range run.dates {
		select {
		case <-ctx.Done():
			return e.finalize(tracker, tlog, started), ctx.Err()
		default:
		}

		// 1) Mark open positions to today's closes; gaps carry the last
		// known price forward.
		closes := run.closesFor(date)
		tracker.UpdatePrices(closes)
		run.warnGaps(tracker, date, closes)

		// 2) Today's orders, sells first.
		orders := interp.Orders(run.signalsFor(date, closes), date)

		// 3) Execute sequentially.
		for _, o := range orders {
			if err := e.execute(tracker, tlog, run, o); err != nil {
				return e.finalize(tracker, tlog, started),
					fmt.Errorf("bar %s %s: %w", date.Format("2006-01-02"), o.Ticker, err)
			}
		}

		// 4) One equity point per bar.
		tracker.RecordEquity(date)
	}

	return e.finalize(tracker, tlog, started), nil
}

func (e *Engine) finalize(tracker *portfolio.Tracker, tlog *tradelog.Logger, started time.Time) Result {
	curve := tracker.EquityCurve()
	trades := tlog.Trades()
	return Result{
		Metrics:       perf.Analyze(e.cfg.InitialCapital, curve, trades),
		EquityCurve:   curve,
		Trades:        trades,
		TradeStats:    tlog.Stats(),
		ExecutionTime: time.Since(started).Seconds(),
	}
}

func (e *Engine) execute(tracker *portfolio.Tracker, tlog *tradelog.Logger, run *runState, o signal.Order) error {
	switch o.Side {
	case costs.Sell:
		return e.executeSell(tracker, tlog, run, o)
	case costs.Buy:
		return e.executeBuy(tracker, run, o)
	}
	return fmt.Errorf("unknown order side %d", o.Side)
}

// executeSell closes qty shares at the last known price. A sell against a
// ticker with no open position is a no-op, not an error.
func (e *Engine) executeSell(tracker *portfolio.Tracker, tlog *tradelog.Logger, run *runState, o signal.Order) error {
	pos := tracker.Position(o.Ticker)
	if pos == nil {
		return nil
	}

	qty := o.Quantity
	if qty > pos.Quantity {
		qty = pos.Quantity
	}

	price := run.lastClose[o.Ticker]
	if price <= 0 {
		return fmt.Errorf("sell %d shares: no known price", qty)
	}

	fill := e.model.Apply(costs.Sell, price, qty)
	proceeds := fill.Price*float64(qty) - fill.Commission - fill.Tax

	closed, err := tracker.Reduce(o.Ticker, qty, proceeds)
	if err != nil {
		return err
	}

	basis := closed.AvgPrice * float64(qty)
	pnl := proceeds - basis - closed.EntryCommission

	tlog.Record(tradelog.Trade{
		Ticker:      o.Ticker,
		Side:        costs.Buy,
		EntryDate:   closed.EntryDate,
		ExitDate:    o.Date,
		EntryPrice:  closed.AvgPrice,
		ExitPrice:   fill.Price,
		Quantity:    qty,
		PnL:         pnl,
		PnLPct:      pnl / basis,
		Commission:  closed.EntryCommission + fill.Commission,
		Tax:         fill.Tax,
		HoldingDays: int(o.Date.Sub(closed.EntryDate).Hours() / 24),
	})
	return nil
}

// executeBuy fills at today's close plus slippage, clamping the quantity so
// the all-in debit never pushes cash negative. An unaffordable order is
// skipped silently.
func (e *Engine) executeBuy(tracker *portfolio.Tracker, run *runState, o signal.Order) error {
	price := run.lastClose[o.Ticker]
	if price <= 0 {
		return nil
	}

	fill := e.model.Apply(costs.Buy, price, o.Quantity)

	perShare := fill.Price + price*e.cfg.CommissionRate
	affordable := int64(math.Floor(tracker.Cash() / perShare))

	qty := o.Quantity
	if qty > affordable {
		qty = affordable
	}
	if qty != o.Quantity {
		fill = e.model.Apply(costs.Buy, price, qty)
	}
	// Guard against float rounding nudging the debit past available cash.
	for qty > 0 && fill.Price*float64(qty)+fill.Commission > tracker.Cash() {
		qty--
		fill = e.model.Apply(costs.Buy, price, qty)
	}
	if qty <= 0 {
		return nil
	}

	return tracker.Add(o.Ticker, qty, fill.Price, fill.Commission, o.Date)
}

// runState holds the per-run date index, carried-forward closes, and the
// one-time warning bookkeeping.
type runState struct {
	logger  *slog.Logger
	dates   []time.Time
	bars    map[string]map[time.Time]market.Bar
	signals []market.SignalSeries // matched series, input order
	byDate  map[string]map[time.Time]bool

	lastClose map[string]float64
	inGap     map[string]bool
}

// newRunState aligns data and signals, warning once per mismatched ticker,
// and builds the sorted union of bar dates within the requested range.
func newRunState(e *Engine, in Input) *runState {
	rs := &runState{
		logger:    e.logger,
		bars:      make(map[string]map[time.Time]market.Bar),
		byDate:    make(map[string]map[time.Time]bool),
		lastClose: make(map[string]float64),
		inGap:     make(map[string]bool),
	}

	signaled := make(map[string]bool, len(in.Signals))
	for _, s := range in.Signals {
		signaled[s.Ticker] = true
	}

	// Tickers present on one side only are skipped for the run.
	for _, ticker := range sortedKeys(in.Data) {
		if !signaled[ticker] {
			rs.logger.Warn("ticker has bars but no signals, skipping", "ticker", ticker)
		}
	}

	dateSet := make(map[time.Time]bool)
	for _, s := range in.Signals {
		series, ok := in.Data[s.Ticker]
		if !ok {
			rs.logger.Warn("ticker has signals but no bars, skipping", "ticker", s.Ticker)
			continue
		}

		rs.signals = append(rs.signals, s)

		byDate := make(map[time.Time]market.Bar, len(series))
		for _, b := range series {
			d := market.Day(b.Date)
			if !in.Start.IsZero() && d.Before(in.Start) {
				continue
			}
			if !in.End.IsZero() && d.After(in.End) {
				continue
			}
			byDate[d] = b
			dateSet[d] = true
		}
		rs.bars[s.Ticker] = byDate

		sigByDate := make(map[time.Time]bool, len(s.Points))
		for _, pt := range s.Points {
			sigByDate[market.Day(pt.Date)] = pt.Hold
		}
		rs.byDate[s.Ticker] = sigByDate
	}

	rs.dates = make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		rs.dates = append(rs.dates, d)
	}
	sort.Slice(rs.dates, func(i, j int) bool { return rs.dates[i].Before(rs.dates[j]) })
	return rs
}

// closesFor returns today's closes and folds them into the carry-forward map.
func (rs *runState) closesFor(date time.Time) map[string]float64 {
	closes := make(map[string]float64)
	for _, s := range rs.signals {
		if b, ok := rs.bars[s.Ticker][date]; ok {
			closes[s.Ticker] = b.Close
			rs.lastClose[s.Ticker] = b.Close
			rs.inGap[s.Ticker] = false
		}
	}
	return closes
}

// warnGaps logs once per gap (not per bar) for held tickers missing a bar.
func (rs *runState) warnGaps(tracker *portfolio.Tracker, date time.Time, closes map[string]float64) {
	for _, ticker := range tracker.Tickers() {
		if _, ok := closes[ticker]; ok {
			continue
		}
		if rs.inGap[ticker] {
			continue
		}
		rs.inGap[ticker] = true
		rs.logger.Warn("no bar for held ticker, carrying last price forward",
			"ticker", ticker, "date", date.Format("2006-01-02"))
	}
}

// signalsFor builds today's signal view in input order. Price is today's
// close, or 0 when the ticker has no bar today (which blocks fresh entries;
// exits fill at the carried-forward price).
func (rs *runState) signalsFor(date time.Time, closes map[string]float64) []signal.Today {
	today := make([]signal.Today, 0, len(rs.signals))
	for _, s := range rs.signals {
		hold, ok := rs.byDate[s.Ticker][date]
		if !ok {
			continue
		}
		today = append(today, signal.Today{
			Ticker: s.Ticker,
			Hold:   hold,
			Price:  closes[s.Ticker],
		})
	}
	return today
}

func sortedKeys(m market.Dataset) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
