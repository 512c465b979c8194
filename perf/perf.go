// Package perf computes return and risk metrics from a finished equity curve
// and trade log.
package perf

import (
	"math"

	"github.com/rustyeddy/backsim/portfolio"
	"github.com/rustyeddy/backsim/tradelog"
)

const (
	tradingDaysPerYear = 252

	// profitFactorCap stands in for +Inf when the log has profits and no
	// losses, keeping every metric finite.
	profitFactorCap = 999.0
)

// Metrics are the analyzer outputs. Ratio denominators of zero resolve to
// 0.0 (or the profit factor cap), never NaN or Inf.
type Metrics struct {
	TotalReturnPct   float64 // (final - initial) / initial
	AnnualizedReturn float64 // CAGR over actual elapsed days
	Volatility       float64 // stdev(daily returns) * sqrt(252)
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64 // negative fraction, min(value/peak - 1)
	CalmarRatio      float64
	ProfitFactor     float64
}

// Analyze computes metrics from the equity curve's total-value series and the
// trade log. Returns are measured against initialCapital, not the first
// equity point: that point is recorded after day-one fills and already
// carries their costs, so (final - initial) / initial must use the true
// starting capital to reconcile. A curve with fewer than two points yields
// zero-value risk metrics.
func Analyze(initialCapital float64, curve []portfolio.EquityPoint, trades []tradelog.Trade) Metrics {
	var m Metrics
	m.ProfitFactor = profitFactor(trades)
	if len(curve) == 0 {
		return m
	}

	basis := initialCapital
	if basis <= 0 {
		basis = curve[0].Total
	}
	last := curve[len(curve)-1].Total
	if basis > 0 {
		m.TotalReturnPct = (last - basis) / basis
	}

	elapsed := curve[len(curve)-1].Date.Sub(curve[0].Date)
	if days := elapsed.Hours() / 24; days > 0 && basis > 0 && last > 0 {
		m.AnnualizedReturn = math.Pow(last/basis, 365/days) - 1
	}

	if len(curve) < 2 {
		return m
	}

	rets := dailyReturns(curve)
	mean := arithmeticMean(rets)
	stdev := sampleStandardDeviation(rets)

	m.Volatility = stdev * math.Sqrt(tradingDaysPerYear)
	if stdev > 0 {
		m.SharpeRatio = mean / stdev * math.Sqrt(tradingDaysPerYear)
	}
	if dd := downsideDeviation(rets); dd > 0 {
		m.SortinoRatio = mean / dd * math.Sqrt(tradingDaysPerYear)
	}

	m.MaxDrawdown = maxDrawdown(curve)
	if m.MaxDrawdown < 0 {
		m.CalmarRatio = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	m.ProfitFactor = profitFactor(trades)
	return m
}

func dailyReturns(curve []portfolio.EquityPoint) []float64 {
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Total
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, curve[i].Total/prev-1)
	}
	return rets
}

func maxDrawdown(curve []portfolio.EquityPoint) float64 {
	peak := curve[0].Total
	worst := 0.0
	for _, pt := range curve {
		if pt.Total > peak {
			peak = pt.Total
		}
		if peak > 0 {
			if dd := pt.Total/peak - 1; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

func profitFactor(trades []tradelog.Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			grossProfit += t.PnL
		} else {
			grossLoss += -t.PnL
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return profitFactorCap
		}
		return 0
	}
	return grossProfit / grossLoss
}

func arithmeticMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStandardDeviation(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := arithmeticMean(values)
	var combined float64
	for _, v := range values {
		combined += math.Pow(v-mean, 2)
	}
	return math.Sqrt(combined / float64(len(values)-1))
}

// downsideDeviation is the root mean square of negative returns only.
func downsideDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var neg float64
	for _, v := range values {
		if v < 0 {
			neg += math.Pow(v, 2)
		}
	}
	return math.Sqrt(neg / float64(len(values)))
}
