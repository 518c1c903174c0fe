package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	candleentity "candle_sync/internal/feature/candles/domain/entity"
	candleusecase "candle_sync/internal/feature/candles/usecase"
	bookentity "candle_sync/internal/feature/orderbook/domain/entity"
	bookusecase "candle_sync/internal/feature/orderbook/usecase"
	symbolentity "candle_sync/internal/feature/symbollist/domain/entity"
	symbolusecase "candle_sync/internal/feature/symbollist/usecase"
	"candle_sync/internal/platform/externalapi/binance/dto"
	"candle_sync/internal/shared/apperr"
)

// maxErrorBody はエラーレスポンスとして読み込む最大バイト数です。
const maxErrorBody = 4 << 10

// RequestObserver は外部API呼び出しの結果を受け取ります（メトリクス用）。
type RequestObserver interface {
	ObserveProviderRequest(endpoint string, err error, elapsed time.Duration)
}

// BinanceMarket はBinance互換APIからローソク足・銘柄・板情報を取得するリポジトリ実装です。
// すべてのエラーは apperr.ErrProviderUnavailable でラップされます。
type BinanceMarket struct {
	cfg      Config
	client   *http.Client
	observer RequestObserver
}

// BinanceMarketが各フィーチャーのリポジトリインターフェースを実装していることをコンパイル時に検証します。
var (
	_ candleusecase.MarketRepository = (*BinanceMarket)(nil)
	_ bookusecase.DepthRepository    = (*BinanceMarket)(nil)
	_ symbolusecase.SymbolRepository = (*BinanceMarket)(nil)
)

// Option は BinanceMarket の任意設定です。
type Option func(*BinanceMarket)

// WithRequestObserver はリクエスト結果の通知先を設定します。
func WithRequestObserver(o RequestObserver) Option {
	return func(m *BinanceMarket) {
		if o != nil {
			m.observer = o
		}
	}
}

// NewBinanceMarket は指定された設定とHTTPクライアントでBinanceMarketの新しいインスタンスを生成します。
func NewBinanceMarket(cfg Config, client *http.Client, opts ...Option) *BinanceMarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	m := &BinanceMarket{cfg: cfg, client: client}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LatestOpenTime は最新ローソク足（limit=1）の openTime をミリ秒で返します。
func (b *BinanceMarket) LatestOpenTime(ctx context.Context, symbol, timeframe string) (int64, error) {
	raws, err := b.GetKlines(ctx, symbol, timeframe, 1)
	if err != nil {
		return 0, err
	}
	if len(raws) == 0 {
		return 0, fmt.Errorf("%w: klines %s %s: empty response", apperr.ErrProviderUnavailable, symbol, timeframe)
	}
	c, err := candleusecase.NormalizeCandle(raws[len(raws)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: klines %s %s: %w", apperr.ErrProviderUnavailable, symbol, timeframe, err)
	}
	return c.OpenTime, nil
}

// GetKlines は最新 limit 件のローソク足を生データのまま返します。
// 数値は json.Number としてデコードされるため、openTime の精度は失われません。
func (b *BinanceMarket) GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]candleentity.RawCandle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var raws []candleentity.RawCandle
	if err := b.get(ctx, "klines", q, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

// ExchangeSymbols は取引所に上場しているすべての銘柄を返します。
func (b *BinanceMarket) ExchangeSymbols(ctx context.Context) ([]symbolentity.Symbol, error) {
	var body dto.ExchangeInfoResponse
	if err := b.get(ctx, "exchangeInfo", nil, &body); err != nil {
		return nil, err
	}

	symbols := make([]symbolentity.Symbol, 0, len(body.Symbols))
	for _, s := range body.Symbols {
		symbols = append(symbols, symbolentity.Symbol{
			Code:       s.Symbol,
			Status:     s.Status,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
		})
	}
	return symbols, nil
}

// Depth は板情報を返します。limit が0の場合はAPIのデフォルト件数を使用します。
func (b *BinanceMarket) Depth(ctx context.Context, symbol string, limit int) (bookentity.OrderBook, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var body dto.DepthResponse
	if err := b.get(ctx, "depth", q, &body); err != nil {
		return bookentity.OrderBook{}, err
	}

	bids, err := parseLevels(body.Bids)
	if err != nil {
		return bookentity.OrderBook{}, fmt.Errorf("%w: depth %s bids: %w", apperr.ErrProviderUnavailable, symbol, err)
	}
	asks, err := parseLevels(body.Asks)
	if err != nil {
		return bookentity.OrderBook{}, fmt.Errorf("%w: depth %s asks: %w", apperr.ErrProviderUnavailable, symbol, err)
	}

	return bookentity.OrderBook{
		Symbol:       symbol,
		LastUpdateID: body.LastUpdateID,
		Bids:         bids,
		Asks:         asks,
	}, nil
}

// get は endpoint にGETリクエストを送り、JSONレスポンスを out にデコードします。
func (b *BinanceMarket) get(ctx context.Context, endpoint string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		if b.observer != nil {
			b.observer.ObserveProviderRequest(endpoint, err, time.Since(start))
		}
	}()

	// URLを生成
	u := fmt.Sprintf("%s/%s", b.cfg.BaseURL, endpoint)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrProviderUnavailable, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrProviderUnavailable, endpoint, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("%w: %s: %s", apperr.ErrProviderUnavailable, endpoint, describeError(res))
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode: %w", apperr.ErrProviderUnavailable, endpoint, err)
	}
	return nil
}

// describeError はエラーレスポンスを "http <status>: <msg> (code <code>)" の形式にまとめます。
func describeError(res *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Msg != "" {
		return fmt.Sprintf("http %d: %s (code %d)", res.StatusCode, e.Msg, e.Code)
	}
	return fmt.Sprintf("http %d", res.StatusCode)
}

func parseLevels(raw [][]string) ([]bookentity.Level, error) {
	levels := make([]bookentity.Level, 0, len(raw))
	for i, pair := range raw {
		if len(pair) < 2 {
			return nil, fmt.Errorf("level #%d: want [price, quantity], got %d fields", i, len(pair))
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("level #%d price %q: %w", i, pair[0], err)
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("level #%d quantity %q: %w", i, pair[1], err)
		}
		levels = append(levels, bookentity.Level{Price: price, Quantity: qty})
	}
	return levels, nil
}
