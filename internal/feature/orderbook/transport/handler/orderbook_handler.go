// Package handler はorderbookフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"candle_sync/internal/feature/orderbook/domain/entity"
	"candle_sync/internal/feature/orderbook/transport/http/dto"
	"candle_sync/internal/feature/orderbook/usecase"
	"candle_sync/internal/shared/apperr"

	"github.com/gin-gonic/gin"
)

// OrderBookUsecase は板情報に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type OrderBookUsecase interface {
	BestPrice(ctx context.Context, symbol, direction string) (entity.Level, error)
	OrderBook(ctx context.Context, symbol string) (entity.OrderBook, error)
}

// OrderBookHandler は板情報に関するHTTPリクエストを処理します。
type OrderBookHandler struct {
	uc OrderBookUsecase
}

// NewOrderBookHandler は新しい OrderBookHandler を作成します。
func NewOrderBookHandler(uc OrderBookUsecase) *OrderBookHandler {
	return &OrderBookHandler{uc: uc}
}

// Best は指定した方向（ask / bid）の最良気配を返します。
//
// エンドポイント例:
// GET /orderbook/BTCUSDT/best?direction=bid
//
// direction が不正な場合は400、外部APIの失敗は502を返します。
func (h *OrderBookHandler) Best(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	direction := c.DefaultQuery("direction", string(entity.DirectionAsk))

	lvl, err := h.uc.BestPrice(c.Request.Context(), symbol, direction)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	d, _ := entity.ParseDirection(direction)
	c.JSON(http.StatusOK, dto.BestPriceResponse{
		Symbol:    symbol,
		Direction: string(d),
		Level:     toLevel(lvl),
	})
}

// Book は板情報全体を返します。
//
// エンドポイント例:
// GET /orderbook/BTCUSDT
func (h *OrderBookHandler) Book(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	book, err := h.uc.OrderBook(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.OrderBookResponse{
		Symbol:       symbol,
		LastUpdateID: book.LastUpdateID,
		Bids:         toLevels(book.Bids),
		Asks:         toLevels(book.Asks),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrEmptyBook):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toLevel(l entity.Level) dto.LevelResponse {
	return dto.LevelResponse{Price: l.Price, Quantity: l.Quantity}
}

func toLevels(ls []entity.Level) []dto.LevelResponse {
	out := make([]dto.LevelResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLevel(l))
	}
	return out
}
