package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewGormStore("file::memory:")
	require.NoError(t, err)
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.Local)
}

func execution(symbol, side string, qty, price, commission float64, entry time.Time) *models.Trade {
	return &models.Trade{
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		EntryPrice: price,
		Commission: commission,
		EntryDate:  entry,
		AssetType:  models.AssetStock,
	}
}

func unmatchedAndMatched(t *testing.T, s store.Store) (unmatched, matched []models.Trade) {
	t.Helper()
	all, err := s.Query(store.Filter{})
	require.NoError(t, err)
	for _, tr := range all {
		if tr.Matched() {
			matched = append(matched, tr)
		} else {
			unmatched = append(unmatched, tr)
		}
	}
	return
}

func TestRun_ExactMatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 10, 100, 0, day(1))))
	require.NoError(t, s.Create(execution("AAPL", models.SideSell, 10, 110, 0, day(2))))

	res, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matches)
	assert.False(t, res.CapHit)

	unmatched, matched := unmatchedAndMatched(t, s)
	assert.Empty(t, unmatched)
	require.Len(t, matched, 1)

	m := matched[0]
	assert.Equal(t, models.SideBuy, m.Side)
	assert.Equal(t, 10.0, m.Quantity)
	assert.Equal(t, 100.0, m.EntryPrice)
	require.NotNil(t, m.ExitPrice)
	assert.Equal(t, 110.0, *m.ExitPrice)
	require.NotNil(t, m.PnL)
	assert.InDelta(t, 100.0, *m.PnL, 1e-9)
	assert.True(t, m.EntryDate.Equal(day(1)))
	require.NotNil(t, m.ExitDate)
	assert.True(t, m.ExitDate.Equal(day(2)))
}

func TestRun_PartialFillLeavesRemainder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 10, 100, 0, day(1))))
	require.NoError(t, s.Create(execution("AAPL", models.SideSell, 4, 110, 0, day(2))))

	res, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matches)

	unmatched, matched := unmatchedAndMatched(t, s)
	require.Len(t, matched, 1)
	assert.Equal(t, 4.0, matched[0].Quantity)
	assert.InDelta(t, 40.0, *matched[0].PnL, 1e-9)

	require.Len(t, unmatched, 1)
	rem := unmatched[0]
	assert.Equal(t, models.SideBuy, rem.Side)
	assert.Equal(t, 6.0, rem.Quantity)
	assert.Nil(t, rem.PnL)
	assert.Equal(t, 0.0, rem.Commission)
	assert.True(t, rem.EntryDate.Equal(day(1)))
}

func TestRun_CommissionsReduceRealizedPnL(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 10, 100, 1.25, day(1))))
	require.NoError(t, s.Create(execution("AAPL", models.SideSell, 10, 110, 0.75, day(2))))

	_, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)

	_, matched := unmatchedAndMatched(t, s)
	require.Len(t, matched, 1)
	assert.InDelta(t, 98.0, *matched[0].PnL, 1e-9)
	assert.InDelta(t, 2.0, matched[0].Commission, 1e-9)
}

func TestRun_FIFOTakesOldestFirst(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 5, 100, 0, day(3))))
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 5, 90, 0, day(1)))) // oldest buy
	require.NoError(t, s.Create(execution("AAPL", models.SideSell, 5, 110, 0, day(4))))

	_, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)

	unmatched, matched := unmatchedAndMatched(t, s)
	require.Len(t, matched, 1)
	// The older, cheaper buy pairs first: pnl = (110-90)*5.
	assert.InDelta(t, 100.0, *matched[0].PnL, 1e-9)
	require.Len(t, unmatched, 1)
	assert.Equal(t, 100.0, unmatched[0].EntryPrice)
}

func TestRun_SellBeforeBuyStillBuyEntry(t *testing.T) {
	s := newTestStore(t)
	// Short-style sequence: sell first, buy back later and cheaper.
	require.NoError(t, s.Create(execution("TSLA", models.SideSell, 10, 200, 0, day(1))))
	require.NoError(t, s.Create(execution("TSLA", models.SideBuy, 10, 180, 0, day(5))))

	_, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)

	_, matched := unmatchedAndMatched(t, s)
	require.Len(t, matched, 1)

	m := matched[0]
	// The buy leg is entry and the sell leg exit regardless of chronology,
	// so pnl = (200-180)*10 and the "exit" date precedes the "entry" date.
	assert.InDelta(t, 200.0, *m.PnL, 1e-9)
	assert.Equal(t, 180.0, m.EntryPrice)
	assert.True(t, m.EntryDate.Equal(day(5)))
	assert.True(t, m.ExitDate.Equal(day(1)))
}

func TestRun_FuturesUsePointValue(t *testing.T) {
	s := newTestStore(t)
	pv := 20.0
	buy := execution("NQH5", models.SideBuy, 2, 17000, 0, day(1))
	buy.AssetType = models.AssetFutures
	buy.PointValue = &pv
	sell := execution("NQH5", models.SideSell, 2, 17010, 0, day(2))
	sell.AssetType = models.AssetFutures
	sell.PointValue = &pv
	require.NoError(t, s.Create(buy))
	require.NoError(t, s.Create(sell))

	_, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)

	_, matched := unmatchedAndMatched(t, s)
	require.Len(t, matched, 1)
	// (17010-17000) * 2 contracts * $20/point
	assert.InDelta(t, 400.0, *matched[0].PnL, 1e-9)
}

func TestRun_MultipleSymbols(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 10, 100, 0, day(1))))
	require.NoError(t, s.Create(execution("MSFT", models.SideBuy, 5, 400, 0, day(1))))
	require.NoError(t, s.Create(execution("AAPL", models.SideSell, 10, 105, 0, day(2))))
	require.NoError(t, s.Create(execution("MSFT", models.SideSell, 5, 410, 0, day(2))))
	require.NoError(t, s.Create(execution("GOOG", models.SideBuy, 1, 150, 0, day(1)))) // no sell side

	res, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matches)

	unmatched, matched := unmatchedAndMatched(t, s)
	assert.Len(t, matched, 2)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "GOOG", unmatched[0].Symbol)
}

func TestRun_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 10, 100, 0, day(1))))
	require.NoError(t, s.Create(execution("AAPL", models.SideSell, 4, 110, 0, day(2))))

	eng := NewEngine(s, 0, zap.NewNop())
	_, err := eng.Run()
	require.NoError(t, err)

	before, err := s.Query(store.Filter{})
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matches)

	after, err := s.Query(store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_IterationCap(t *testing.T) {
	s := newTestStore(t)
	// Three possible matches but a cap of 2: the loop stops with a valid
	// partial result instead of erroring.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Create(execution("AAPL", models.SideBuy, 1, 100, 0, day(1+i))))
		require.NoError(t, s.Create(execution("AAPL", models.SideSell, 1, 110, 0, day(10+i))))
	}

	res, err := NewEngine(s, 2, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.True(t, res.CapHit)
	assert.Equal(t, 2, res.Matches)

	unmatched, matched := unmatchedAndMatched(t, s)
	assert.Len(t, matched, 2)
	assert.Len(t, unmatched, 2)
}

func TestRun_EmptyStoreIsNoOp(t *testing.T) {
	s := newTestStore(t)
	res, err := NewEngine(s, 0, zap.NewNop()).Run()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matches)
	assert.False(t, res.CapHit)
}
