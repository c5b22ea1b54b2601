package store

import (
	"sort"
	"time"

	"trade-journal-go/internal/models"
)

func sortByEntryDate(ts []models.Trade) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].EntryDate.Equal(ts[j].EntryDate) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].EntryDate.Before(ts[j].EntryDate)
	})
}

// applyPatch mutates a trade in place from a column-keyed patch map. Keys
// match the sqlite column names so the same patch works on either backend.
// Unknown keys are ignored.
func applyPatch(t *models.Trade, patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "symbol":
			if s, ok := v.(string); ok {
				t.Symbol = s
			}
		case "side":
			if s, ok := v.(string); ok {
				t.Side = s
			}
		case "quantity":
			if f, ok := asFloat(v); ok {
				t.Quantity = f
			}
		case "entry_price":
			if f, ok := asFloat(v); ok {
				t.EntryPrice = f
			}
		case "exit_price":
			t.ExitPrice = asFloatPtr(v)
		case "entry_date":
			if d, ok := asTime(v); ok {
				t.EntryDate = d
			}
		case "exit_date":
			t.ExitDate = asTimePtr(v)
		case "pnl":
			t.PnL = asFloatPtr(v)
		case "commission":
			if f, ok := asFloat(v); ok {
				t.Commission = f
			}
		case "asset_type":
			if s, ok := v.(string); ok {
				t.AssetType = s
			}
		case "point_value":
			t.PointValue = asFloatPtr(v)
		case "contract_currency":
			if s, ok := v.(string); ok {
				t.ContractCurrency = s
			}
		case "option_type":
			if s, ok := v.(string); ok {
				t.OptionType = s
			}
		case "strike_price":
			t.StrikePrice = asFloatPtr(v)
		case "expiration_date":
			t.ExpirationDate = asTimePtr(v)
		case "strategy":
			if s, ok := v.(string); ok {
				t.Strategy = s
			}
		case "notes":
			if s, ok := v.(string); ok {
				t.Notes = s
			}
		case "tags":
			if s, ok := v.(string); ok {
				t.Tags = s
			}
		}
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case *float64:
		if n != nil {
			return *n, true
		}
	}
	return 0, false
}

func asFloatPtr(v any) *float64 {
	if v == nil {
		return nil
	}
	if p, ok := v.(*float64); ok {
		return p
	}
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func asTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d != nil {
			return *d, true
		}
	}
	return time.Time{}, false
}

func asTimePtr(v any) *time.Time {
	if v == nil {
		return nil
	}
	if p, ok := v.(*time.Time); ok {
		return p
	}
	if d, ok := asTime(v); ok {
		return &d
	}
	return nil
}
