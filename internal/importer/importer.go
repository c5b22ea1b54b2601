package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

// Required header columns, exact names.
var requiredColumns = []string{"Date", "Action", "Symbol", "Quantity", "Price"}

// Optional columns recognized when present.
const (
	colDescription = "Description"
	colFees        = "Fees & Comm"
	colAmount      = "Amount"
)

// ContractReference resolves futures point values for the importer. A lookup
// miss never blocks a row.
type ContractReference interface {
	Find(symbol string) (models.FuturesContract, bool)
	IsFuturesSymbol(symbol string) bool
}

// RowError is a recoverable, per-row import failure.
type RowError struct {
	Row     int
	Action  string
	Symbol  string
	Message string
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d (%s %s): %s", e.Row, e.Action, e.Symbol, e.Message)
}

// SchemaError is fatal to the whole import: a required header column is
// missing, so no rows are parsed at all.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Importer turns raw broker-export text into unsaved trade records.
type Importer struct {
	ref ContractReference
	log *zap.Logger
}

// NewImporter creates a new import normalizer.
func NewImporter(ref ContractReference, log *zap.Logger) *Importer {
	return &Importer{ref: ref, log: log}
}

// Parse converts the export text. Row-level failures are collected in the
// returned error list and do not stop the import; only a missing required
// header column aborts the whole parse with a *SchemaError.
func (imp *Importer) Parse(raw string) ([]models.Trade, []RowError, error) {
	lines := splitLines(raw)

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil, &SchemaError{Missing: requiredColumns, Found: nil}
	}

	header := tokenize(lines[headerIdx])
	cols := make(map[string]int, len(header))
	found := make([]string, 0, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		found = append(found, name)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &SchemaError{Missing: missing, Found: found}
	}

	var trades []models.Trade
	var rowErrors []RowError

	for i := headerIdx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		rowNum := i - headerIdx // 1-based data row number
		fields := tokenize(lines[i])

		get := func(col string) string {
			idx, ok := cols[col]
			if !ok || idx >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[idx])
		}

		action := get("Action")
		symbol := strings.ToUpper(get("Symbol"))

		// Non-trading rows (dividends, transfers, interest...) are skipped
		// silently, they are not errors.
		if !isTradingAction(action) {
			continue
		}

		trade, err := imp.buildTrade(action, symbol, get)
		if err != nil {
			rowErrors = append(rowErrors, RowError{
				Row:     rowNum,
				Action:  action,
				Symbol:  symbol,
				Message: err.Error(),
			})
			continue
		}
		trades = append(trades, trade)
	}

	imp.log.Info("Import parse complete",
		zap.Int("trades", len(trades)),
		zap.Int("row_errors", len(rowErrors)))

	return trades, rowErrors, nil
}

// isTradingAction accepts anything starting with buy/sell, covering variants
// like "Buy to Open" and "Sell to Close".
func isTradingAction(action string) bool {
	a := strings.ToLower(strings.TrimSpace(action))
	return strings.HasPrefix(a, "buy") || strings.HasPrefix(a, "sell")
}

func (imp *Importer) buildTrade(action, symbol string, get func(string) string) (models.Trade, error) {
	var t models.Trade

	if symbol == "" {
		return t, fmt.Errorf("missing symbol")
	}

	qty, err := parseNumber(get("Quantity"))
	if err != nil {
		return t, fmt.Errorf("invalid quantity %q", get("Quantity"))
	}
	qty = math.Abs(qty)
	if qty <= 0 {
		return t, fmt.Errorf("quantity must be positive, got %v", qty)
	}

	price, err := parseNumber(get("Price"))
	if err != nil {
		return t, fmt.Errorf("invalid price %q", get("Price"))
	}
	if price <= 0 {
		return t, fmt.Errorf("price must be positive, got %v", price)
	}

	date, err := parseDate(get("Date"))
	if err != nil {
		return t, err
	}

	commission := 0.0
	if raw := get(colFees); raw != "" {
		if fee, ferr := parseNumber(raw); ferr == nil {
			commission = math.Abs(fee)
		}
	}

	side := models.SideBuy
	if strings.HasPrefix(strings.ToLower(action), "sell") {
		side = models.SideSell
	}

	t = models.Trade{
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		EntryPrice: price,
		EntryDate:  date,
		Commission: commission,
		AssetType:  classifyAsset(symbol, imp.ref),
		Notes:      get(colDescription),
	}

	if t.AssetType == models.AssetFutures {
		if c, ok := imp.ref.Find(symbol); ok {
			pv := c.PointValue
			t.PointValue = &pv
			t.ContractCurrency = c.Currency
		} else {
			// Fault tolerant: the row still imports, the gap is recorded.
			note := fmt.Sprintf("Point value not found for %s - using price difference only", symbol)
			if t.Notes != "" {
				note = t.Notes + "; " + note
			}
			t.Notes = note
			imp.log.Warn("No point value for futures symbol", zap.String("symbol", symbol))
		}
	}

	return t, nil
}

// parseNumber strips currency symbols, thousands separators and stray quotes
// before parsing.
func parseNumber(raw string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", "\"", "", " ", "").Replace(raw)
	if clean == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	return strconv.ParseFloat(clean, 64)
}

// parseDate accepts MM/DD/YYYY and anchors the result at local noon so
// calendar-day comparisons cannot shift across a day boundary.
func parseDate(raw string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q, expected MM/DD/YYYY", raw)
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected MM/DD/YYYY", raw)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return time.Time{}, fmt.Errorf("date out of range %q", raw)
	}

	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)
	// time.Date normalizes overflow (02/30 becomes 03/01); reject that.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", raw)
	}
	return t, nil
}
