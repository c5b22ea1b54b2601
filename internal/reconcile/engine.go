package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

// Engine pairs offsetting unmatched executions into realized round trips,
// FIFO, one match per iteration. Each match is a delete+insert against the
// store, durable before the next iteration starts, so an interrupted run
// leaves a valid partially-reconciled state and a re-run picks up from there.
type Engine struct {
	store         store.Store
	log           *zap.Logger
	maxIterations int
}

// Result summarizes one reconciliation pass.
type Result struct {
	Matches int
	CapHit  bool
}

// NewEngine creates a reconciliation engine. maxIterations caps the matching
// loop as a safety valve against malformed data; <=0 selects the default.
func NewEngine(st store.Store, maxIterations int, log *zap.Logger) *Engine {
	if maxIterations <= 0 {
		maxIterations = 650
	}
	return &Engine{store: st, log: log, maxIterations: maxIterations}
}

// pairing is one symbol's unmatched executions split by side, oldest first.
type pairing struct {
	buys  []models.Trade
	sells []models.Trade
}

// Run reconciles the whole store. Once no symbol has both unmatched buys and
// sells, a further call is a no-op.
func (e *Engine) Run() (Result, error) {
	var res Result

	for iter := 0; ; iter++ {
		if iter >= e.maxIterations {
			// Not a crash: whatever matched before the cap stays valid.
			e.log.Warn("Reconciliation iteration cap reached, stopping with partial result",
				zap.Int("cap", e.maxIterations),
				zap.Int("matches", res.Matches))
			res.CapHit = true
			return res, nil
		}

		buy, sell, ok, err := e.nextPair()
		if err != nil {
			return res, err
		}
		if !ok {
			return res, nil
		}

		if err := e.match(buy, sell); err != nil {
			return res, fmt.Errorf("reconciliation iteration %d failed: %w", iter, err)
		}
		res.Matches++
	}
}

// nextPair re-fetches unmatched trades and returns the FIFO heads of the
// first symbol that has executions on both sides.
func (e *Engine) nextPair() (*models.Trade, *models.Trade, bool, error) {
	trades, err := e.store.Query(store.Filter{})
	if err != nil {
		return nil, nil, false, err
	}

	// Query returns entry-date ascending, so appending preserves FIFO order
	// within each queue and symbolOrder is stable across iterations.
	groups := make(map[string]*pairing)
	var symbolOrder []string
	for i := range trades {
		t := trades[i]
		if t.Matched() {
			continue
		}
		g, exists := groups[t.Symbol]
		if !exists {
			g = &pairing{}
			groups[t.Symbol] = g
			symbolOrder = append(symbolOrder, t.Symbol)
		}
		switch t.Side {
		case models.SideBuy, models.SideLong:
			g.buys = append(g.buys, t)
		case models.SideSell, models.SideShort:
			g.sells = append(g.sells, t)
		}
	}

	for _, sym := range symbolOrder {
		g := groups[sym]
		if len(g.buys) > 0 && len(g.sells) > 0 {
			return &g.buys[0], &g.sells[0], true, nil
		}
	}
	return nil, nil, false, nil
}

// match realizes one round trip: insert the matched row, delete both legs,
// insert remainder rows for any partial fill.
//
// The buy leg is always the entry and the sell leg always the exit, even when
// the sell predates the buy (a short-style sequence). Inverting the sign for
// those would silently change historical P&L, so the behavior is kept as is.
func (e *Engine) match(buy, sell *models.Trade) error {
	matchedQty := buy.Quantity
	if sell.Quantity < matchedQty {
		matchedQty = sell.Quantity
	}

	multiplier := 1.0
	if buy.PointValue != nil && sell.PointValue != nil && *buy.PointValue > 0 {
		multiplier = *buy.PointValue
	}

	pnl := (sell.EntryPrice-buy.EntryPrice)*matchedQty*multiplier - buy.Commission - sell.Commission

	exitPrice := sell.EntryPrice
	exitDate := sell.EntryDate
	matched := models.Trade{
		Symbol:           buy.Symbol,
		Side:             models.SideBuy, // round-trip marker
		Quantity:         matchedQty,
		EntryPrice:       buy.EntryPrice,
		ExitPrice:        &exitPrice,
		EntryDate:        buy.EntryDate,
		ExitDate:         &exitDate,
		PnL:              &pnl,
		Commission:       buy.Commission + sell.Commission,
		AssetType:        buy.AssetType,
		PointValue:       buy.PointValue,
		ContractCurrency: buy.ContractCurrency,
		Strategy:         buy.Strategy,
		Notes:            buy.Notes,
		Tags:             buy.Tags,
	}

	if err := e.store.Create(&matched); err != nil {
		return fmt.Errorf("failed to insert matched trade: %w", err)
	}
	if err := e.store.Delete(buy.ID); err != nil {
		return fmt.Errorf("failed to delete buy leg %d: %w", buy.ID, err)
	}
	if err := e.store.Delete(sell.ID); err != nil {
		return fmt.Errorf("failed to delete sell leg %d: %w", sell.ID, err)
	}

	// Commission on remainders is zero: the full leg commission was already
	// charged on the matched row.
	if buy.Quantity > matchedQty {
		if err := e.store.Create(remainder(buy, buy.Quantity-matchedQty)); err != nil {
			return fmt.Errorf("failed to insert buy remainder: %w", err)
		}
	}
	if sell.Quantity > matchedQty {
		if err := e.store.Create(remainder(sell, sell.Quantity-matchedQty)); err != nil {
			return fmt.Errorf("failed to insert sell remainder: %w", err)
		}
	}

	e.log.Debug("Matched trade",
		zap.String("symbol", buy.Symbol),
		zap.Float64("quantity", matchedQty),
		zap.Float64("pnl", pnl))
	return nil
}

// remainder clones a leg as a fresh unmatched row with the leftover quantity.
func remainder(leg *models.Trade, qty float64) *models.Trade {
	return &models.Trade{
		Symbol:           leg.Symbol,
		Side:             leg.Side,
		Quantity:         qty,
		EntryPrice:       leg.EntryPrice,
		EntryDate:        leg.EntryDate,
		Commission:       0,
		AssetType:        leg.AssetType,
		PointValue:       leg.PointValue,
		ContractCurrency: leg.ContractCurrency,
		Strategy:         leg.Strategy,
		Notes:            leg.Notes,
		Tags:             leg.Tags,
	}
}
