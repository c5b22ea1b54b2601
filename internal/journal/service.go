package journal

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/analytics"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/importer"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/reconcile"
	"trade-journal-go/internal/refdata"
	"trade-journal-go/internal/store"
)

// Service is the boundary the host layer talks to. It wires the importer,
// store, reconciliation engine and analytics together and owns the
// auto-reconcile trigger policy.
type Service struct {
	store    store.Store
	importer *importer.Importer
	engine   *reconcile.Engine
	calc     *analytics.Calculator
	log      *zap.Logger

	maxErrorDetails int
}

// NewService assembles the journal core.
func NewService(cfg *config.Config, st store.Store, ref *refdata.Reference, log *zap.Logger) *Service {
	maxDetails := cfg.Import.MaxErrorDetails
	if maxDetails <= 0 {
		maxDetails = 10
	}
	return &Service{
		store:           st,
		importer:        importer.NewImporter(ref, log),
		engine:          reconcile.NewEngine(st, cfg.Reconcile.MaxIterations, log),
		calc:            analytics.NewCalculator(st, log),
		log:             log,
		maxErrorDetails: maxDetails,
	}
}

// ImportResult is what an import hands back to the host layer. Row-level
// problems are counted and a truncated detail list included; they never fail
// the call.
type ImportResult struct {
	Imported     int      `json:"imported"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
}

// ImportFromText parses broker-export text, bulk-inserts the resulting
// trades, and kicks off reconciliation when a new match looks possible.
// Only a schema-level failure (missing required header) returns an error.
func (s *Service) ImportFromText(raw string) (ImportResult, error) {
	trades, rowErrors, err := s.importer.Parse(raw)
	if err != nil {
		return ImportResult{}, err
	}

	ptrs := make([]*models.Trade, len(trades))
	for i := range trades {
		ptrs[i] = &trades[i]
	}
	if err := s.store.BulkCreate(ptrs); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Imported: len(trades), Errors: len(rowErrors)}
	for i, re := range rowErrors {
		if i >= s.maxErrorDetails {
			break
		}
		res.ErrorDetails = append(res.ErrorDetails, re.String())
	}

	s.maybeReconcile(symbolsOf(trades))
	return res, nil
}

// SaveTrade persists one trade and triggers reconciliation when its symbol
// now has executions on both sides.
func (s *Service) SaveTrade(t *models.Trade) (*models.Trade, error) {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if err := s.store.Create(t); err != nil {
		return nil, err
	}
	s.maybeReconcile([]string{t.Symbol})
	return t, nil
}

// SaveTradesBulk persists several trades at once.
func (s *Service) SaveTradesBulk(ts []*models.Trade) ([]*models.Trade, error) {
	for _, t := range ts {
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	}
	if err := s.store.BulkCreate(ts); err != nil {
		return nil, err
	}
	syms := make([]models.Trade, len(ts))
	for i, t := range ts {
		syms[i] = *t
	}
	s.maybeReconcile(symbolsOf(syms))
	return ts, nil
}

// GetTrades queries the store.
func (s *Service) GetTrades(f store.Filter) ([]models.Trade, error) {
	return s.store.Query(f)
}

// UpdateTrade applies a field patch to one trade.
func (s *Service) UpdateTrade(id uint, patch map[string]any) (*models.Trade, error) {
	return s.store.Update(id, patch)
}

// DeleteTrade removes one trade.
func (s *Service) DeleteTrade(id uint) error {
	return s.store.Delete(id)
}

// PurgeAll deletes every trade and reports how many went.
func (s *Service) PurgeAll() (int64, error) {
	return s.store.PurgeAll()
}

// RunReconciliation is the explicit manual trigger.
func (s *Service) RunReconciliation() (reconcile.Result, error) {
	return s.engine.Run()
}

// PerformanceMetrics reports aggregate performance over an optional range.
func (s *Service) PerformanceMetrics(from, to *time.Time) (analytics.Metrics, error) {
	return s.calc.PerformanceMetrics(from, to)
}

// CalendarData reports per-day realized results for one month.
func (s *Service) CalendarData(month time.Month, year int) ([]analytics.DayBucket, error) {
	return s.calc.CalendarData(month, year)
}

// WashSaleRisks reports advisory wash-sale exposure over the whole journal.
func (s *Service) WashSaleRisks() ([]analytics.WashSaleRisk, error) {
	trades, err := s.store.Query(store.Filter{})
	if err != nil {
		return nil, err
	}
	return s.calc.WashSaleRisks(trades), nil
}

func symbolsOf(trades []models.Trade) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range trades {
		if _, ok := seen[t.Symbol]; !ok {
			seen[t.Symbol] = struct{}{}
			out = append(out, t.Symbol)
		}
	}
	return out
}

// maybeReconcile runs the engine when any affected symbol has unmatched
// executions on both sides. Failures are logged here and never propagate to
// the save or import that triggered them.
func (s *Service) maybeReconcile(symbols []string) {
	if len(symbols) == 0 {
		return
	}

	trades, err := s.store.Query(store.Filter{})
	if err != nil {
		s.log.Warn("Reconciliation pre-check failed", zap.Error(err))
		return
	}

	affected := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		affected[sym] = struct{}{}
	}

	type sides struct{ buys, sells int }
	counts := make(map[string]*sides)
	for _, t := range trades {
		if t.Matched() {
			continue
		}
		if _, ok := affected[t.Symbol]; !ok {
			continue
		}
		c, ok := counts[t.Symbol]
		if !ok {
			c = &sides{}
			counts[t.Symbol] = c
		}
		switch t.Side {
		case models.SideBuy, models.SideLong:
			c.buys++
		case models.SideSell, models.SideShort:
			c.sells++
		}
	}

	for sym, c := range counts {
		if c.buys > 0 && c.sells > 0 {
			res, err := s.engine.Run()
			if err != nil {
				s.log.Error("Automatic reconciliation failed", zap.String("symbol", sym), zap.Error(err))
				return
			}
			s.log.Info("Automatic reconciliation complete",
				zap.Int("matches", res.Matches),
				zap.Bool("cap_hit", res.CapHit))
			return
		}
	}
}
