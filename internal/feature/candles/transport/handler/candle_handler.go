// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/feature/candles/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// CandlesUsecase はローソク足データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, limit int) ([]entity.Candle, error)
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc CandlesUsecase
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
func NewCandlesHandler(uc CandlesUsecase) *CandlesHandler {
	return &CandlesHandler{uc: uc}
}

// GetCandlesHandler は保存済みのローソク足を新しい順にJSONで返します。
//
// エンドポイント例:
// GET /candles?limit=100
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	// 数値でない場合は0を渡し、usecase側でデフォルト値に置き換える
	limit, _ := strconv.Atoi(c.Query("limit"))

	candles, err := h.uc.GetCandles(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			OpenTime: x.OpenTime,
			Time:     x.Time().Format(time.RFC3339),
			Open:     x.Open,
			High:     x.High,
			Low:      x.Low,
			Close:    x.Close,
			Volume:   x.Volume,
		})
	}

	c.JSON(http.StatusOK, out)
}
