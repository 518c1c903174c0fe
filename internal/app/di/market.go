// Package di provides dependency injection factories for creating application components.
package di

import (
	"candle_sync/internal/app/config"
	"candle_sync/internal/platform/externalapi/binance"
	infrahttp "candle_sync/internal/platform/http"
	"candle_sync/internal/platform/metrics"
)

// NewMarket creates a fully configured BinanceMarket with HTTP client.
// Every request is recorded in the provider latency histogram.
func NewMarket(cfg config.BinanceConfig) *binance.BinanceMarket {
	bc := binance.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}
	httpClient := infrahttp.NewHTTPClient(bc.Timeout)
	return binance.NewBinanceMarket(bc, httpClient, binance.WithRequestObserver(metrics.ProviderObserver{}))
}
