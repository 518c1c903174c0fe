// Package dto defines data transfer objects for the orderbook HTTP API.
package dto

// LevelResponse is one price level.
type LevelResponse struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// BestPriceResponse is the top level of one side of the book.
type BestPriceResponse struct {
	Symbol    string        `json:"symbol"`
	Direction string        `json:"direction"`
	Level     LevelResponse `json:"level"`
}

// OrderBookResponse is a full depth snapshot.
type OrderBookResponse struct {
	Symbol       string          `json:"symbol"`
	LastUpdateID int64           `json:"last_update_id"`
	Bids         []LevelResponse `json:"bids"`
	Asks         []LevelResponse `json:"asks"`
}
