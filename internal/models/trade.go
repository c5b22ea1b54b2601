package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade sides. BUY/SELL mark single executions; a reconciled round trip is
// stored with side BUY. LONG/SHORT appear on manually entered trades only.
const (
	SideBuy   = "BUY"
	SideSell  = "SELL"
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// Asset types.
const (
	AssetStock   = "STOCK"
	AssetOption  = "OPTION"
	AssetCrypto  = "CRYPTO"
	AssetForex   = "FOREX"
	AssetFutures = "FUTURES"
)

// Option types.
const (
	OptionCall = "CALL"
	OptionPut  = "PUT"
)

// Trade represents one execution or one reconciled round trip.
// PnL is nil for an unmatched single execution; the reconciliation engine is
// the only writer that sets it.
type Trade struct {
	gorm.Model
	Symbol     string     `gorm:"index" json:"symbol"`
	Side       string     `json:"side"`
	Quantity   float64    `json:"quantity"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	EntryDate  time.Time  `json:"entry_date"`
	ExitDate   *time.Time `json:"exit_date,omitempty"`
	PnL        *float64   `gorm:"column:pnl" json:"pnl,omitempty"`
	Commission float64    `json:"commission"`
	AssetType  string     `json:"asset_type"`

	// Futures only.
	PointValue       *float64 `json:"point_value,omitempty"`
	ContractCurrency string   `json:"contract_currency,omitempty"`

	// Options only.
	OptionType     string     `json:"option_type,omitempty"`
	StrikePrice    *float64   `json:"strike_price,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	Strategy string `json:"strategy,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Tags     string `json:"tags,omitempty"`
}

// Matched reports whether the trade is a completed round trip.
func (t *Trade) Matched() bool {
	return t.PnL != nil
}
