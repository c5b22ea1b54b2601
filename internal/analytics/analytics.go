package analytics

import (
	"math"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

// Calculator derives performance analytics from the trade store. It is a
// read-only consumer: all numbers come from matched trades (pnl set).
type Calculator struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewCalculator creates an analytics calculator.
func NewCalculator(st store.Store, log *zap.Logger) *Calculator {
	return &Calculator{store: st, log: log, now: time.Now}
}

// Metrics is the aggregate performance report.
type Metrics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
}

// PerformanceMetrics computes the report over an optional inclusive date
// range (calendar-day granularity, matching the store's filter semantics).
func (c *Calculator) PerformanceMetrics(from, to *time.Time) (Metrics, error) {
	trades, err := c.store.Query(store.Filter{StartDate: from, EndDate: to})
	if err != nil {
		return Metrics{}, err
	}
	return computeMetrics(matchedOnly(trades)), nil
}

func matchedOnly(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Matched() {
			out = append(out, t)
		}
	}
	return out
}

func computeMetrics(trades []models.Trade) Metrics {
	var m Metrics
	m.TotalTrades = len(trades)
	if m.TotalTrades == 0 {
		return m
	}

	var sumWins, sumLosses float64
	pnls := make([]float64, 0, len(trades))
	for i, t := range trades {
		pnl := *t.PnL
		pnls = append(pnls, pnl)
		m.TotalPnL += pnl
		if pnl > 0 {
			m.WinningTrades++
			sumWins += pnl
		} else if pnl < 0 {
			m.LosingTrades++
			sumLosses += pnl
		}
		if i == 0 || pnl > m.LargestWin {
			m.LargestWin = pnl
		}
		if i == 0 || pnl < m.LargestLoss {
			m.LargestLoss = pnl
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	if m.WinningTrades > 0 {
		m.AverageWin = sumWins / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = sumLosses / float64(m.LosingTrades)
	}
	if m.AverageLoss != 0 {
		m.ProfitFactor = math.Abs(m.AverageWin / m.AverageLoss)
	}
	m.SharpeRatio = sharpeRatio(pnls)
	m.MaxDrawdown = maxDrawdown(trades)
	return m
}

// sharpeRatio annualizes the per-trade pnl series with sqrt(252). Using
// per-trade rather than per-day returns is a deliberate simplification.
func sharpeRatio(pnls []float64) float64 {
	n := len(pnls)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, p := range pnls {
		sum += p
	}
	mean := sum / float64(n)

	var ss float64
	for _, p := range pnls {
		d := p - mean
		ss += d * d
	}
	stdDev := math.Sqrt(ss / float64(n-1)) // sample std dev
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev * math.Sqrt(252)
}

// maxDrawdown walks cumulative pnl in entry-date order and reports the
// largest percentage decline from the running peak. The peak advances on
// winning trades only; a series of [100, -50, 80, -200] therefore peaks at
// 180 and bottoms at -70, a 138.9% drawdown. Changing this to a
// max-of-cumulative peak would rewrite historical drawdown numbers, so the
// accumulation rule is kept as is.
func maxDrawdown(trades []models.Trade) float64 {
	// trades arrive entry-date ascending from the store
	var cumulative, peak, maxDD float64
	for _, t := range trades {
		pnl := *t.PnL
		cumulative += pnl
		if pnl > 0 {
			peak += pnl
		}
		if peak > 0 {
			dd := (peak - cumulative) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
