package refdata

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

// seedContracts covers the commonly traded CME/CBOT/NYMEX/COMEX roots. The
// table is merged with whatever the database or a remote refresh provides, so
// an unknown root degrades to a "point value not found" note on import rather
// than an error.
var seedContracts = []models.FuturesContract{
	{Symbol: "ES", Description: "E-mini S&P 500", PointValue: 50, Currency: "USD"},
	{Symbol: "MES", Description: "Micro E-mini S&P 500", PointValue: 5, Currency: "USD"},
	{Symbol: "NQ", Description: "E-mini Nasdaq-100", PointValue: 20, Currency: "USD"},
	{Symbol: "MNQ", Description: "Micro E-mini Nasdaq-100", PointValue: 2, Currency: "USD"},
	{Symbol: "YM", Description: "E-mini Dow", PointValue: 5, Currency: "USD"},
	{Symbol: "MYM", Description: "Micro E-mini Dow", PointValue: 0.5, Currency: "USD"},
	{Symbol: "RTY", Description: "E-mini Russell 2000", PointValue: 50, Currency: "USD"},
	{Symbol: "M2K", Description: "Micro E-mini Russell 2000", PointValue: 5, Currency: "USD"},
	{Symbol: "CL", Description: "Crude Oil", PointValue: 1000, Currency: "USD"},
	{Symbol: "MCL", Description: "Micro Crude Oil", PointValue: 100, Currency: "USD"},
	{Symbol: "QM", Description: "E-mini Crude Oil", PointValue: 500, Currency: "USD"},
	{Symbol: "NG", Description: "Natural Gas", PointValue: 10000, Currency: "USD"},
	{Symbol: "GC", Description: "Gold", PointValue: 100, Currency: "USD"},
	{Symbol: "MGC", Description: "Micro Gold", PointValue: 10, Currency: "USD"},
	{Symbol: "SI", Description: "Silver", PointValue: 5000, Currency: "USD"},
	{Symbol: "HG", Description: "Copper", PointValue: 25000, Currency: "USD"},
	{Symbol: "ZB", Description: "30-Year T-Bond", PointValue: 1000, Currency: "USD"},
	{Symbol: "ZN", Description: "10-Year T-Note", PointValue: 1000, Currency: "USD"},
	{Symbol: "ZF", Description: "5-Year T-Note", PointValue: 1000, Currency: "USD"},
	{Symbol: "ZT", Description: "2-Year T-Note", PointValue: 2000, Currency: "USD"},
	{Symbol: "ZC", Description: "Corn", PointValue: 50, Currency: "USD"},
	{Symbol: "ZS", Description: "Soybeans", PointValue: 50, Currency: "USD"},
	{Symbol: "ZW", Description: "Wheat", PointValue: 50, Currency: "USD"},
	{Symbol: "6E", Description: "Euro FX", PointValue: 125000, Currency: "USD"},
	{Symbol: "6J", Description: "Japanese Yen", PointValue: 12500000, Currency: "USD"},
	{Symbol: "6B", Description: "British Pound", PointValue: 62500, Currency: "USD"},
	{Symbol: "6A", Description: "Australian Dollar", PointValue: 100000, Currency: "USD"},
	{Symbol: "6C", Description: "Canadian Dollar", PointValue: 100000, Currency: "USD"},
	{Symbol: "HE", Description: "Lean Hogs", PointValue: 400, Currency: "USD"},
	{Symbol: "LE", Description: "Live Cattle", PointValue: 400, Currency: "USD"},
}

// Reference is the futures contract lookup table. It always answers from
// memory; the sqlite table, when available, only persists user additions
// across runs.
type Reference struct {
	log *zap.Logger

	mu        sync.RWMutex
	contracts map[string]models.FuturesContract
}

// NewReference builds the in-memory table from the seed data.
func NewReference(log *zap.Logger) *Reference {
	r := &Reference{
		log:       log,
		contracts: make(map[string]models.FuturesContract, len(seedContracts)),
	}
	for _, c := range seedContracts {
		r.contracts[c.Symbol] = c
	}
	return r
}

// SyncDatabase persists the seed rows that are missing and merges back any
// rows the user has added directly to the table. A nil db (flat-file
// fallback active) is a no-op; the in-memory table still serves lookups.
func (r *Reference) SyncDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	for _, c := range seedContracts {
		contract := c
		if err := db.FirstOrCreate(&contract, models.FuturesContract{Symbol: c.Symbol}).Error; err != nil {
			return err
		}
	}

	var rows []models.FuturesContract
	if err := db.Find(&rows).Error; err != nil {
		return err
	}
	r.Merge(rows)
	r.log.Info("Futures contract reference synced", zap.Int("contracts", len(rows)))
	return nil
}

// Merge adds or replaces contracts in the in-memory table.
func (r *Reference) Merge(rows []models.FuturesContract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range rows {
		sym := strings.ToUpper(strings.TrimSpace(c.Symbol))
		if sym == "" || c.PointValue <= 0 {
			continue
		}
		c.Symbol = sym
		r.contracts[sym] = c
	}
}

// Find resolves a contract by root symbol or by a dated contract symbol such
// as "NQH5" or "ESZ25" (root + month code letter + 1-2 digit year).
func (r *Reference) Find(symbol string) (models.FuturesContract, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.contracts[sym]; ok {
		return c, true
	}
	if root, ok := splitContractSymbol(sym); ok {
		if c, ok := r.contracts[root]; ok {
			return c, true
		}
	}
	return models.FuturesContract{}, false
}

// IsFuturesSymbol reports whether the symbol names a known root, either bare
// or with a month/year suffix.
func (r *Reference) IsFuturesSymbol(symbol string) bool {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.contracts[sym]; ok {
		return true
	}
	if root, ok := splitContractSymbol(sym); ok {
		_, known := r.contracts[root]
		return known
	}
	return false
}

// splitContractSymbol strips a month-code letter plus 1-2 digit year suffix,
// returning the root. "NQH5" -> "NQ", "ESZ25" -> "ES".
func splitContractSymbol(sym string) (string, bool) {
	n := len(sym)
	digits := 0
	for digits < 2 && n-1-digits >= 0 && sym[n-1-digits] >= '0' && sym[n-1-digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return "", false
	}
	monthIdx := n - digits - 1
	if monthIdx < 1 {
		return "", false
	}
	m := sym[monthIdx]
	if m < 'A' || m > 'Z' {
		return "", false
	}
	return sym[:monthIdx], true
}
