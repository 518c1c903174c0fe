// Package usecase implements the order-book reads served from the market data provider.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"candle_sync/internal/feature/orderbook/domain/entity"
)

// ErrEmptyBook is returned when the requested side of the book has no levels.
var ErrEmptyBook = errors.New("order book side is empty")

// DepthRepository abstracts the provider's depth endpoint.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type DepthRepository interface {
	// Depth returns up to limit levels per side. limit 0 uses the provider default.
	Depth(ctx context.Context, symbol string, limit int) (entity.OrderBook, error)
}

// OrderBookUsecase provides best-price and full-book lookups.
type OrderBookUsecase struct {
	repo DepthRepository
}

// NewOrderBookUsecase creates a new OrderBookUsecase with the given repository.
func NewOrderBookUsecase(r DepthRepository) *OrderBookUsecase {
	return &OrderBookUsecase{repo: r}
}

// BestPrice returns the top level on the requested side.
// The direction is validated before any request is made.
func (u *OrderBookUsecase) BestPrice(ctx context.Context, symbol, direction string) (entity.Level, error) {
	d, err := entity.ParseDirection(direction)
	if err != nil {
		return entity.Level{}, err
	}

	book, err := u.repo.Depth(ctx, symbol, 1)
	if err != nil {
		return entity.Level{}, err
	}

	lvl, ok := book.Best(d)
	if !ok {
		return entity.Level{}, fmt.Errorf("%w: %s %s", ErrEmptyBook, symbol, d)
	}
	return lvl, nil
}

// OrderBook returns the provider's default-depth snapshot for symbol.
func (u *OrderBookUsecase) OrderBook(ctx context.Context, symbol string) (entity.OrderBook, error) {
	return u.repo.Depth(ctx, symbol, 0)
}
