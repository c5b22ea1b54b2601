package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

func newWashSaleCalculator(now time.Time) *Calculator {
	c := NewCalculator(nil, zap.NewNop())
	c.now = func() time.Time { return now }
	return c
}

func lossTrade(id uint, symbol string, exitDay int, pnl float64) models.Trade {
	exit := day(exitDay)
	p := pnl
	t := models.Trade{
		Symbol:     symbol,
		Side:       models.SideBuy,
		Quantity:   10,
		EntryPrice: 100,
		EntryDate:  day(exitDay - 1),
		ExitDate:   &exit,
		PnL:        &p,
	}
	t.ID = id
	return t
}

func entryTrade(id uint, symbol string, entryDay int) models.Trade {
	t := models.Trade{
		Symbol:     symbol,
		Side:       models.SideBuy,
		Quantity:   10,
		EntryPrice: 100,
		EntryDate:  day(entryDay),
	}
	t.ID = id
	return t
}

func TestWashSaleRisks_AtRiskUntilWindowCloses(t *testing.T) {
	loss := lossTrade(1, "AAPL", 10, -100)

	t.Run("InsideWindow", func(t *testing.T) {
		calc := newWashSaleCalculator(day(20))
		risks := calc.WashSaleRisks([]models.Trade{loss})
		require.Len(t, risks, 1)
		assert.Equal(t, "AAPL", risks[0].Symbol)
		assert.Equal(t, StatusAtRisk, risks[0].Status)
		assert.InDelta(t, 100.0, risks[0].LossAmount, 1e-9)
		assert.True(t, risks[0].SafeDate.Equal(day(10).Add(30*24*time.Hour)))
	})

	t.Run("AfterWindow", func(t *testing.T) {
		calc := newWashSaleCalculator(day(10).Add(31 * 24 * time.Hour))
		risks := calc.WashSaleRisks([]models.Trade{loss})
		assert.Empty(t, risks)
	})
}

func TestWashSaleRisks_ReentryTriggers(t *testing.T) {
	loss := lossTrade(1, "AAPL", 10, -100)
	reentry := entryTrade(2, "AAPL", 20) // 10 days after the loss exit

	calc := newWashSaleCalculator(day(21))
	risks := calc.WashSaleRisks([]models.Trade{loss, reentry})
	require.Len(t, risks, 1)
	assert.Equal(t, StatusTriggered, risks[0].Status)
}

func TestWashSaleRisks_ReentryOutsideWindowDoesNotTrigger(t *testing.T) {
	loss := lossTrade(1, "AAPL", 1, -100)
	late := entryTrade(2, "AAPL", 1)
	lateEntry := day(1).Add(31 * 24 * time.Hour)
	late.EntryDate = lateEntry

	calc := newWashSaleCalculator(day(15))
	risks := calc.WashSaleRisks([]models.Trade{loss, late})
	require.Len(t, risks, 1)
	assert.Equal(t, StatusAtRisk, risks[0].Status)
}

func TestWashSaleRisks_DifferentSymbolDoesNotTrigger(t *testing.T) {
	loss := lossTrade(1, "AAPL", 10, -100)
	other := entryTrade(2, "MSFT", 15)

	calc := newWashSaleCalculator(day(20))
	risks := calc.WashSaleRisks([]models.Trade{loss, other})
	require.Len(t, risks, 1)
	assert.Equal(t, StatusAtRisk, risks[0].Status)
}

func TestWashSaleRisks_MergesLossesPerSymbol(t *testing.T) {
	first := lossTrade(1, "AAPL", 5, -100)
	second := lossTrade(2, "AAPL", 12, -40)

	calc := newWashSaleCalculator(day(15))
	risks := calc.WashSaleRisks([]models.Trade{first, second})
	require.Len(t, risks, 1)

	r := risks[0]
	// Most recent loss wins the dates; amounts sum; both losses counted.
	assert.True(t, r.LossDate.Equal(day(12)))
	assert.True(t, r.SafeDate.Equal(day(12).Add(30*24*time.Hour)))
	assert.InDelta(t, 140.0, r.LossAmount, 1e-9)
	assert.Equal(t, 2, r.LossCount)
	// The second loss's entry (day 11) sits inside the first loss's window,
	// so the merged record is triggered.
	assert.Equal(t, StatusTriggered, r.Status)
}

func TestWashSaleRisks_WinnersIgnored(t *testing.T) {
	win := lossTrade(1, "AAPL", 10, 50)
	calc := newWashSaleCalculator(day(15))
	assert.Empty(t, calc.WashSaleRisks([]models.Trade{win}))
}
