// Package costs models per-fill transaction costs: commission on both sides,
// tax on sells only, and slippage applied against the trader.
package costs

// Side of a fill.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Model holds the configured cost rates. It is fixed at construction and
// never mutated during a run; identical inputs always produce identical fills.
type Model struct {
	CommissionRate float64 // fraction of notional, both sides
	TaxRate        float64 // fraction of notional, SELL only
	SlippageBps    float64 // basis points, applied against the trader
}

// Fill is the cost breakdown for executing qty shares at a quoted price.
type Fill struct {
	Commission float64
	Tax        float64
	Price      float64 // execution price after slippage
}

// Apply computes the costs for a fill. Slippage shifts the execution price
// against the trader: buys fill higher, sells fill lower. Commission and tax
// are computed on the quoted (pre-slippage) notional.
func (m Model) Apply(side Side, price float64, qty int64) Fill {
	notional := price * float64(qty)

	f := Fill{
		Commission: notional * m.CommissionRate,
		Price:      price,
	}

	slip := price * m.SlippageBps / 10_000
	switch side {
	case Buy:
		f.Price = price + slip
	case Sell:
		f.Price = price - slip
		f.Tax = notional * m.TaxRate
	}

	return f
}
