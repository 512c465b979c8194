package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestAdd_OpensPosition(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 90, day(1)))

	p := tr.Position("005930")
	require.NotNil(t, p)
	assert.Equal(t, int64(10), p.Quantity)
	assert.Equal(t, 60_000.0, p.AvgPrice)
	assert.Equal(t, day(1), p.EntryDate)
	assert.InDelta(t, 1_000_000-600_000-90, tr.Cash(), 1e-9)
}

func TestAdd_ScaleInBlendsAverage(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 0, day(1)))
	require.NoError(t, tr.Add("005930", 10, 70_000, 0, day(5)))

	p := tr.Position("005930")
	require.NotNil(t, p)
	assert.Equal(t, int64(20), p.Quantity)
	assert.InDelta(t, 65_000.0, p.AvgPrice, 1e-9)
	// Scale-ins never reset the first entry date.
	assert.Equal(t, day(1), p.EntryDate)
}

func TestAdd_RejectsOverdraft(t *testing.T) {
	t.Parallel()

	tr := NewTracker(100)
	err := tr.Add("005930", 1, 60_000, 9, day(1))
	require.Error(t, err)
	assert.Equal(t, 100.0, tr.Cash())
	assert.Nil(t, tr.Position("005930"))
}

func TestReduce_PartialKeepsPosition(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 100, day(1)))

	cashBefore := tr.Cash()
	closed, err := tr.Reduce("005930", 4, 260_000)
	require.NoError(t, err)

	assert.False(t, closed.Final)
	assert.Equal(t, int64(4), closed.Quantity)
	assert.InDelta(t, 60_000.0, closed.AvgPrice, 1e-9)
	assert.InDelta(t, 40.0, closed.EntryCommission, 1e-9, "entry commission drains proportionally")
	assert.InDelta(t, cashBefore+260_000, tr.Cash(), 1e-9)

	p := tr.Position("005930")
	require.NotNil(t, p)
	assert.Equal(t, int64(6), p.Quantity)
}

func TestReduce_ToZeroRemovesPosition(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 100, day(1)))

	closed, err := tr.Reduce("005930", 10, 650_000)
	require.NoError(t, err)

	assert.True(t, closed.Final)
	assert.InDelta(t, 100.0, closed.EntryCommission, 1e-9)
	assert.Nil(t, tr.Position("005930"), "position destroyed at zero quantity")
	assert.Equal(t, 0, tr.OpenCount())
}

func TestReduce_Errors(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 0, day(1)))

	_, err := tr.Reduce("000660", 1, 100)
	assert.Error(t, err, "no open position")

	_, err = tr.Reduce("005930", 11, 100)
	assert.Error(t, err, "over-reduction")

	_, err = tr.Reduce("005930", 0, 0)
	assert.Error(t, err, "zero quantity")
}

func TestUpdatePrices_AbsentTickerKeepsPrice(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 0, day(1)))
	require.NoError(t, tr.Add("000660", 5, 100_000, 0, day(1)))

	tr.UpdatePrices(map[string]float64{"005930": 62_000})

	assert.Equal(t, 62_000.0, tr.Position("005930").CurrentPrice)
	assert.Equal(t, 100_000.0, tr.Position("000660").CurrentPrice)
}

func TestUnrealizedPL(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 0, day(1)))
	tr.UpdatePrices(map[string]float64{"005930": 63_000})

	assert.InDelta(t, 30_000.0, tr.Position("005930").UnrealizedPL(), 1e-9)
}

func TestValue_CashPlusHoldings(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1_000_000)
	require.NoError(t, tr.Add("005930", 10, 60_000, 0, day(1)))
	tr.UpdatePrices(map[string]float64{"005930": 61_000})

	assert.InDelta(t, 400_000+610_000, tr.Value(), 1e-9)
}

func TestRecordEquity_AppendsInOrder(t *testing.T) {
	t.Parallel()

	tr := NewTracker(500_000)
	tr.RecordEquity(day(1))
	require.NoError(t, tr.Add("005930", 5, 60_000, 0, day(2)))
	tr.RecordEquity(day(2))

	curve := tr.EquityCurve()
	require.Len(t, curve, 2)
	assert.Equal(t, day(1), curve[0].Date)
	assert.Equal(t, 500_000.0, curve[0].Total)
	assert.Equal(t, day(2), curve[1].Date)
	assert.InDelta(t, 500_000.0, curve[1].Total, 1e-9)
	assert.InDelta(t, 200_000.0, curve[1].Cash, 1e-9)
	assert.InDelta(t, 300_000.0, curve[1].Holdings, 1e-9)
}

func TestTickers_Sorted(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10_000_000)
	require.NoError(t, tr.Add("105560", 1, 100, 0, day(1)))
	require.NoError(t, tr.Add("000660", 1, 100, 0, day(1)))
	require.NoError(t, tr.Add("005930", 1, 100, 0, day(1)))

	assert.Equal(t, []string{"000660", "005930", "105560"}, tr.Tickers())
}
