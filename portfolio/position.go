package portfolio

import "time"

// Position is one open holding. Quantity is always > 0 while the position
// exists; the Tracker deletes the record the moment quantity reaches zero.
// Only Tracker methods mutate quantity and average price.
type Position struct {
	Ticker    string
	Quantity  int64
	AvgPrice  float64   // volume-weighted, recomputed on every scale-in
	EntryDate time.Time // fixed at first open, not reset by averaging

	CurrentPrice float64

	// entryCommission accumulates buy-side commission and is drained
	// proportionally as the position is reduced, so closed trades carry
	// their share of entry costs.
	entryCommission float64
}

// UnrealizedPL marks the position against its current price.
func (p *Position) UnrealizedPL() float64 {
	return (p.CurrentPrice - p.AvgPrice) * float64(p.Quantity)
}

// MarketValue is the position's mark-to-market value.
func (p *Position) MarketValue() float64 {
	return p.CurrentPrice * float64(p.Quantity)
}

// Closed is the snapshot the Tracker emits when a reduction closes quantity.
// It carries everything the trade log needs that only the position knows.
type Closed struct {
	Ticker          string
	Quantity        int64 // quantity closed by this reduction
	AvgPrice        float64
	EntryDate       time.Time
	EntryCommission float64 // entry commission attributable to the closed quantity
	Final           bool    // true when the position reached zero and was removed
}
