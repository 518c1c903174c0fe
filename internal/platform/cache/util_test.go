package cache

import (
	"testing"
	"time"
)

func TestTTLForTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		timeframe string
		expected  time.Duration
	}{
		{"1s", time.Minute},
		{"1m", time.Minute},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"4h", time.Hour},
		{"1d", time.Hour},
		{"1w", time.Hour},
		{"1M", time.Hour},
		{"", DefaultTTL},
		{"m", DefaultTTL},
		{"0m", DefaultTTL},
		{"xm", DefaultTTL},
		{"5y", DefaultTTL},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.timeframe, func(t *testing.T) {
			t.Parallel()

			if got := TTLForTimeframe(tt.timeframe); got != tt.expected {
				t.Errorf("TTLForTimeframe(%q) = %v, expected %v", tt.timeframe, got, tt.expected)
			}
		})
	}
}
