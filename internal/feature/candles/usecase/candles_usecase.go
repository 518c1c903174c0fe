// Package usecase はローソク足データの同期と参照のビジネスロジックを実装します。
package usecase

import (
	"context"

	"candle_sync/internal/feature/candles/domain/entity"
)

const (
	// DefaultLimit はローソク足クエリのデフォルト返却件数です。
	DefaultLimit = 100
	// MaxLimit はローソク足の最大返却件数です。
	MaxLimit = 1000
)

// CandleRepository はローソク足データの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// MaxOpenTime は保存済みの最大 openTime を返します。行が無い場合 ok は false です。
	MaxOpenTime(ctx context.Context) (openTime int64, ok bool, err error)
	// Insert はローソク足を1件追加します。同じ openTime が既にある場合は apperr.ErrDuplicateKey を返します。
	Insert(ctx context.Context, candle entity.Candle) error
	// Find は新しい順に最大 limit 件のローソク足を返します。
	Find(ctx context.Context, limit int) ([]entity.Candle, error)
}

// candlesUsecase は保存済みローソク足の参照ユースケースを定義します。
type candlesUsecase struct {
	candle CandleRepository
}

// NewCandlesUsecase はcandlesUsecaseの新しいインスタンスを生成します。
func NewCandlesUsecase(candle CandleRepository) *candlesUsecase {
	return &candlesUsecase{candle: candle}
}

// GetCandles は保存済みのローソク足を新しい順に取得します。
// limit が範囲外の場合はデフォルト値を使用します。
func (cu *candlesUsecase) GetCandles(ctx context.Context, limit int) ([]entity.Candle, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	cs, err := cu.candle.Find(ctx, limit)
	if err != nil {
		return nil, err
	}

	return cs, nil
}
