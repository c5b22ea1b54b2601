package importer

import (
	"strings"

	"trade-journal-go/internal/models"
)

// Currency codes that mark a symbol as forex when present.
var currencyCodes = []string{
	"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "NZD",
}

// Tickers that mark a symbol as crypto when present.
var cryptoTickers = []string{
	"BTC", "ETH", "SOL", "XRP", "DOGE", "ADA", "LTC", "BNB", "DOT", "AVAX",
}

// classifyAsset decides the asset type for an uppercase symbol.
// First match wins: futures, then forex, then crypto, then stock.
func classifyAsset(symbol string, ref ContractReference) string {
	if ref != nil && ref.IsFuturesSymbol(symbol) {
		return models.AssetFutures
	}
	if strings.Contains(symbol, "/") {
		return models.AssetForex
	}
	for _, code := range currencyCodes {
		if strings.Contains(symbol, code) {
			return models.AssetForex
		}
	}
	for _, tick := range cryptoTickers {
		if strings.Contains(symbol, tick) {
			return models.AssetCrypto
		}
	}
	return models.AssetStock
}
