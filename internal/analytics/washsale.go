package analytics

import (
	"sort"
	"time"

	"trade-journal-go/internal/models"
)

// Wash-sale window length.
const washSaleWindow = 30 * 24 * time.Hour

// Wash-sale risk statuses. Advisory only, not tax advice.
const (
	StatusTriggered = "triggered"
	StatusAtRisk    = "at_risk"
)

// WashSaleRisk is one symbol's merged wash-sale exposure.
type WashSaleRisk struct {
	Symbol     string    `json:"symbol"`
	Status     string    `json:"status"`
	LossAmount float64   `json:"loss_amount"` // summed across merged losses, positive
	LossCount  int       `json:"loss_count"`
	LossDate   time.Time `json:"loss_date"` // most recent loss exit
	SafeDate   time.Time `json:"safe_date"` // loss date + 30 days
}

// WashSaleRisks scans the given trades for realized losses whose 30-day
// repurchase window is still open or was violated. One record per symbol:
// overlapping loss windows merge, keeping the most recent loss's dates,
// summing the loss amounts and OR-ing the triggered flags.
func (c *Calculator) WashSaleRisks(trades []models.Trade) []WashSaleRisk {
	now := c.now()
	bySymbol := make(map[string]*WashSaleRisk)
	var order []string

	for _, t := range trades {
		if !t.Matched() || *t.PnL >= 0 || t.ExitDate == nil {
			continue
		}
		lossDate := *t.ExitDate
		safeDate := lossDate.Add(washSaleWindow)

		triggered := false
		for _, other := range trades {
			if other.ID == t.ID || other.Symbol != t.Symbol {
				continue
			}
			// re-entry strictly after the loss exit, within 30 days
			if other.EntryDate.After(lossDate) && !other.EntryDate.After(safeDate) {
				triggered = true
				break
			}
		}
		if !triggered && !now.Before(safeDate) {
			continue // window closed cleanly
		}

		r, ok := bySymbol[t.Symbol]
		if !ok {
			r = &WashSaleRisk{Symbol: t.Symbol, Status: StatusAtRisk}
			bySymbol[t.Symbol] = r
			order = append(order, t.Symbol)
		}
		r.LossAmount += -*t.PnL
		r.LossCount++
		if triggered {
			r.Status = StatusTriggered
		}
		if lossDate.After(r.LossDate) {
			r.LossDate = lossDate
			r.SafeDate = safeDate
		}
	}

	sort.Strings(order)
	out := make([]WashSaleRisk, 0, len(order))
	for _, sym := range order {
		out = append(out, *bySymbol[sym])
	}
	return out
}
