package usecase

import "errors"

var (
	// ErrMalformedCandle is returned when a provider kline tuple cannot be normalized.
	ErrMalformedCandle = errors.New("malformed candle")
)
