// Package entity defines the domain models for the symbollist feature.
package entity

// StatusTrading is the exchange status of a symbol open for trading.
const StatusTrading = "TRADING"

// Symbol represents a trading pair listed by the exchange.
type Symbol struct {
	Code       string // Pair code (e.g., "BTCUSDT")
	Status     string // Exchange status (e.g., "TRADING", "BREAK")
	BaseAsset  string // Asset being bought or sold (e.g., "BTC")
	QuoteAsset string // Asset the price is quoted in (e.g., "USDT")
}

// IsTrading reports whether the pair is currently open for trading.
func (s Symbol) IsTrading() bool {
	return s.Status == StatusTrading
}
