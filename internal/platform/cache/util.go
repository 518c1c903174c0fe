package cache

import (
	"strconv"
	"time"
)

const (
	// DefaultTTL は時間足を解釈できない場合のキャッシュ有効期間です。
	DefaultTTL = 5 * time.Minute

	minTTL = time.Minute
	maxTTL = time.Hour
)

// TTLForTimeframe は時間足（"1m", "4h", "1d", "1w", "1M" など）に応じたキャッシュ有効期間を返します。
// 新しいローソク足が確定する間隔を基準とし、1分〜1時間の範囲に収めます。
func TTLForTimeframe(timeframe string) time.Duration {
	if len(timeframe) < 2 {
		return DefaultTTL
	}
	n, err := strconv.Atoi(timeframe[:len(timeframe)-1])
	if err != nil || n <= 0 {
		return DefaultTTL
	}

	var unit time.Duration
	switch timeframe[len(timeframe)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	case 'M':
		unit = 30 * 24 * time.Hour
	default:
		return DefaultTTL
	}

	ttl := time.Duration(n) * unit
	switch {
	case ttl < minTTL:
		return minTTL
	case ttl > maxTTL:
		return maxTTL
	default:
		return ttl
	}
}
