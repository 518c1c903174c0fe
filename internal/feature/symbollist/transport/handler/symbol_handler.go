// Package handler はsymbollistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"candle_sync/internal/feature/symbollist/domain/entity"
	"candle_sync/internal/feature/symbollist/transport/http/dto"
	"candle_sync/internal/shared/apperr"

	"github.com/gin-gonic/gin"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SymbolUsecase interface {
	ListSymbols(ctx context.Context) ([]entity.Symbol, error)
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は取引所の銘柄一覧を返すAPIです。
// ?active=true を指定すると取引中の銘柄のみを返します。
// 外部APIの失敗は502、それ以外のエラーは500を返します。
func (h *SymbolHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))

	var (
		symbols []entity.Symbol
		err     error
	)
	if activeOnly {
		symbols, err = h.uc.ListActiveSymbols(c.Request.Context())
	} else {
		symbols, err = h.uc.ListSymbols(c.Request.Context())
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperr.ErrProviderUnavailable) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{
			Code:       s.Code,
			Status:     s.Status,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
		})
	}
	c.JSON(http.StatusOK, out)
}
