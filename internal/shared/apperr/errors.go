// Package apperr defines the error kinds shared by the market-data features.
package apperr

import "errors"

// Error kinds surfaced by adapters and usecases.
// Adapters wrap the underlying cause with one of these sentinels so that
// upper layers can classify failures with errors.Is.
var (
	// ErrProviderUnavailable indicates a network, HTTP or decoding failure
	// while talking to the market data provider.
	ErrProviderUnavailable = errors.New("market data provider unavailable")

	// ErrInvalidDirection is returned when a best-price side other than
	// "ask" or "bid" is requested.
	ErrInvalidDirection = errors.New("direction must be ask or bid")

	// ErrStorageUnavailable indicates the candle store could not be read or written.
	ErrStorageUnavailable = errors.New("candle store unavailable")

	// ErrDuplicateKey indicates a candle with the same open time is already stored.
	// Callers inserting overlapping batches treat it as a no-op.
	ErrDuplicateKey = errors.New("candle already stored")
)
