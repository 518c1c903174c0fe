// Package entity defines the domain models for the orderbook feature.
package entity

import (
	"fmt"
	"strings"

	"candle_sync/internal/shared/apperr"
)

// Direction selects one side of the order book.
type Direction string

const (
	DirectionAsk Direction = "ask"
	DirectionBid Direction = "bid"
)

// ParseDirection validates s as a Direction. An empty string means ask.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DirectionAsk, nil
	case DirectionAsk, DirectionBid:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidDirection, s)
	}
}

// Level is one price level of the book.
type Level struct {
	Price    float64
	Quantity float64
}

// OrderBook is a depth snapshot for one symbol.
// Bids are ordered best (highest) first, asks best (lowest) first.
type OrderBook struct {
	Symbol       string
	LastUpdateID int64
	Bids         []Level
	Asks         []Level
}

// Best returns the top level on side d. ok is false when that side is empty.
func (b OrderBook) Best(d Direction) (Level, bool) {
	side := b.Asks
	if d == DirectionBid {
		side = b.Bids
	}
	if len(side) == 0 {
		return Level{}, false
	}
	return side[0], true
}
