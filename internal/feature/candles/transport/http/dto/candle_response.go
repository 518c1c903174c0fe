// Package dto defines data transfer objects for the candles HTTP API.
package dto

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	OpenTime int64   `json:"open_time"` // 始値時刻（ミリ秒）
	Time     string  `json:"time"`      // 始値時刻（RFC3339, UTC）
	Open     float64 `json:"open"`      // 始値
	High     float64 `json:"high"`      // 高値
	Low      float64 `json:"low"`       // 安値
	Close    float64 `json:"close"`     // 終値
	Volume   float64 `json:"volume"`    // 出来高
}

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
