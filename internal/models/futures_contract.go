package models

import "gorm.io/gorm"

// FuturesContract maps a futures root symbol to its contract multiplier.
type FuturesContract struct {
	gorm.Model
	Symbol      string  `gorm:"uniqueIndex" json:"symbol"`
	Description string  `json:"description"`
	PointValue  float64 `gorm:"not null" json:"point_value"`
	Currency    string  `gorm:"default:USD" json:"currency"`
}
