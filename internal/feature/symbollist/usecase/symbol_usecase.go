// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"

	"candle_sync/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the exchange's symbol listing.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ExchangeSymbols(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListSymbols returns every symbol listed by the exchange, in exchange order.
func (u *SymbolUsecase) ListSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ExchangeSymbols(ctx)
}

// ListActiveSymbols returns only the symbols currently open for trading.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	all, err := u.repo.ExchangeSymbols(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]entity.Symbol, 0, len(all))
	for _, s := range all {
		if s.IsTrading() {
			active = append(active, s)
		}
	}
	return active, nil
}
