package analytics

import (
	"sort"
	"time"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

// DayBucket aggregates one calendar day of realized results.
type DayBucket struct {
	Date       string  `json:"date"` // YYYY-MM-DD, local
	PnL        float64 `json:"pnl"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
}

// CalendarData buckets matched pnl by local calendar day for one month.
// A trade lands on its exit date when it has one, else its entry date.
func (c *Calculator) CalendarData(month time.Month, year int) ([]DayBucket, error) {
	trades, err := c.store.Query(store.Filter{})
	if err != nil {
		return nil, err
	}

	type acc struct {
		pnl  float64
		n    int
		wins int
	}
	days := make(map[string]*acc)

	for _, t := range matchedOnly(trades) {
		d := bucketDate(&t)
		if d.Year() != year || d.Month() != month {
			continue
		}
		key := d.Format("2006-01-02")
		a, ok := days[key]
		if !ok {
			a = &acc{}
			days[key] = a
		}
		a.pnl += *t.PnL
		a.n++
		if *t.PnL > 0 {
			a.wins++
		}
	}

	out := make([]DayBucket, 0, len(days))
	for key, a := range days {
		out = append(out, DayBucket{
			Date:       key,
			PnL:        a.pnl,
			TradeCount: a.n,
			WinRate:    float64(a.wins) / float64(a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// bucketDate picks the calendar day a trade belongs to, in local time so a
// UTC conversion cannot shift it across midnight.
func bucketDate(t *models.Trade) time.Time {
	d := t.EntryDate
	if t.ExitDate != nil {
		d = *t.ExitDate
	}
	return d.Local()
}
