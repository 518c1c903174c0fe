// Package entity defines the domain models for the candles feature.
package entity

import "time"

// Series identifies one candle stream on the provider.
type Series struct {
	Symbol    string // Trading pair (e.g., "BTCUSDT")
	Timeframe string // Kline interval (e.g., "1m", "1h")
}

// Candle represents one closed OHLCV bar of a series.
// OpenTime is the identity of the bar; it is unique within a series.
type Candle struct {
	Symbol    string  // Trading pair
	Timeframe string  // Kline interval
	OpenTime  int64   // Start of the bar, milliseconds since epoch
	Open      float64 // Opening price
	High      float64 // Highest price during the bar
	Low       float64 // Lowest price during the bar
	Close     float64 // Closing price
	Volume    float64 // Base asset volume
}

// Time returns OpenTime as a UTC time.Time.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// RawCandle is one kline tuple as returned by the provider:
// [openTime, open, high, low, close, volume, closeTime, ...].
// Elements are json.Number, float64 or numeric strings depending on the decoder.
type RawCandle []any
