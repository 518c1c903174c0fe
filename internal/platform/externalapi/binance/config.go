// Package binance provides a client for the Binance-compatible spot REST API.
package binance

import "time"

const (
	// DefaultBaseURL is the public spot testnet.
	DefaultBaseURL = "https://testnet.binance.vision/api/v3"
	// DefaultTimeout bounds every provider request.
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration for the Binance API client.
type Config struct {
	BaseURL string        // Base URL including the API version (e.g., "https://api.binance.com/api/v3")
	Timeout time.Duration // HTTP request timeout
}

// DefaultConfig returns the testnet configuration.
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}
}
