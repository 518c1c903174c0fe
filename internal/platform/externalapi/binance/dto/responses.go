// Package dto defines data transfer objects for the Binance API responses.
package dto

// ErrorResponse is the body Binance returns with 4xx/5xx statuses.
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ExchangeInfoResponse represents the JSON response from the exchangeInfo endpoint.
// Only the fields used by the service are decoded.
type ExchangeInfoResponse struct {
	Timezone string `json:"timezone"`
	Symbols  []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// DepthResponse represents the JSON response from the depth endpoint.
// Each level is a [price, quantity] pair of decimal strings.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}
