package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"candle_sync/internal/feature/candles/domain/entity"
)

// rawCandleFields は正規化に使用する先頭フィールド数です（openTime, open, high, low, close, volume）。
const rawCandleFields = 6

// NormalizeCandle はプロバイダの生データ1件を Candle に変換します。
// Symbol と Timeframe は呼び出し側で設定します。
func NormalizeCandle(raw entity.RawCandle) (entity.Candle, error) {
	if len(raw) < rawCandleFields {
		return entity.Candle{}, fmt.Errorf("%w: want at least %d fields, got %d", ErrMalformedCandle, rawCandleFields, len(raw))
	}

	openTime, err := toInt64(raw[0])
	if err != nil {
		return entity.Candle{}, fmt.Errorf("%w: open time: %w", ErrMalformedCandle, err)
	}

	var vals [rawCandleFields - 1]float64
	names := [...]string{"open", "high", "low", "close", "volume"}
	for i := range vals {
		v, err := toFloat64(raw[i+1])
		if err != nil {
			return entity.Candle{}, fmt.Errorf("%w: %s: %w", ErrMalformedCandle, names[i], err)
		}
		vals[i] = v
	}

	return entity.Candle{
		OpenTime: openTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

// toInt64 はミリ秒タイムスタンプを整数として解釈します。
// 文字列比較による鮮度判定の誤りを避けるため、常に int64 に揃えます。
func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(t)
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer timestamp: %v", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
