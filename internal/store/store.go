package store

import (
	"errors"
	"strings"
	"time"

	"trade-journal-go/internal/models"
)

// ErrNotFound is returned when a trade id does not exist, regardless of backend.
var ErrNotFound = errors.New("trade not found")

// Store is the persistence contract every component depends on. Which backend
// sits behind it (sqlite or the flat-file fallback) is decided once at startup
// by Open; callers never branch on it.
type Store interface {
	Create(t *models.Trade) error
	BulkCreate(ts []*models.Trade) error
	Query(f Filter) ([]models.Trade, error)
	Get(id uint) (*models.Trade, error)
	Update(id uint, patch map[string]any) (*models.Trade, error)
	Delete(id uint) error
	PurgeAll() (int64, error)
}

// Filter narrows a Query. Zero values mean "no constraint".
// Date bounds are inclusive and compared at calendar-day granularity.
type Filter struct {
	Symbol    string // substring, case-insensitive
	Strategy  string // exact
	AssetType string // exact
	StartDate *time.Time
	EndDate   *time.Time
	Date      *time.Time // exact single day
	MinPnL    *float64
	MaxPnL    *float64
}

// sameDay compares two timestamps at local calendar-day granularity.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayFloor truncates a timestamp to local midnight.
func dayFloor(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// matches reports whether a trade passes the filter. Both backends share this
// so calendar-day and pnl semantics cannot drift between them.
func (f Filter) matches(t *models.Trade) bool {
	if f.Symbol != "" && !strings.Contains(strings.ToLower(t.Symbol), strings.ToLower(f.Symbol)) {
		return false
	}
	if f.Strategy != "" && t.Strategy != f.Strategy {
		return false
	}
	if f.AssetType != "" && t.AssetType != f.AssetType {
		return false
	}
	if f.Date != nil && !sameDay(t.EntryDate, *f.Date) {
		return false
	}
	if f.StartDate != nil && dayFloor(t.EntryDate).Before(dayFloor(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && dayFloor(t.EntryDate).After(dayFloor(*f.EndDate)) {
		return false
	}
	if f.MinPnL != nil && (t.PnL == nil || *t.PnL < *f.MinPnL) {
		return false
	}
	if f.MaxPnL != nil && (t.PnL == nil || *t.PnL > *f.MaxPnL) {
		return false
	}
	return true
}
