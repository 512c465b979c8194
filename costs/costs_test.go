package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_Commission(t *testing.T) {
	t.Parallel()

	m := Model{CommissionRate: 0.00015}

	buy := m.Apply(Buy, 60_000, 100)
	sell := m.Apply(Sell, 60_000, 100)

	// Commission applies on both sides, on the quoted notional.
	assert.InDelta(t, 900.0, buy.Commission, 1e-9)
	assert.InDelta(t, 900.0, sell.Commission, 1e-9)
}

func TestApply_TaxSellOnly(t *testing.T) {
	t.Parallel()

	m := Model{TaxRate: 0.0023}

	buy := m.Apply(Buy, 50_000, 10)
	sell := m.Apply(Sell, 50_000, 10)

	assert.Zero(t, buy.Tax)
	assert.InDelta(t, 1150.0, sell.Tax, 1e-9)
}

func TestApply_SlippageAgainstTrader(t *testing.T) {
	t.Parallel()

	m := Model{SlippageBps: 10} // 0.1%

	buy := m.Apply(Buy, 10_000, 1)
	sell := m.Apply(Sell, 10_000, 1)

	assert.InDelta(t, 10_010.0, buy.Price, 1e-9, "buys fill higher")
	assert.InDelta(t, 9_990.0, sell.Price, 1e-9, "sells fill lower")
}

func TestApply_Deterministic(t *testing.T) {
	t.Parallel()

	m := Model{CommissionRate: 0.001, TaxRate: 0.0023, SlippageBps: 5}

	a := m.Apply(Sell, 12_345.67, 89)
	b := m.Apply(Sell, 12_345.67, 89)

	assert.Equal(t, a, b)
}

func TestApply_ZeroRates(t *testing.T) {
	t.Parallel()

	var m Model
	f := m.Apply(Buy, 100, 5)

	assert.Zero(t, f.Commission)
	assert.Zero(t, f.Tax)
	assert.Equal(t, 100.0, f.Price)
}
