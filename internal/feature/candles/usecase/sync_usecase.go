package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/shared/apperr"
)

const (
	// DefaultBatchSize は1サイクルで取得する最新ローソク足の件数です。
	DefaultBatchSize = 10
	// DefaultPollInterval は同期サイクルの実行間隔です。
	DefaultPollInterval = 5 * time.Second
)

// MarketRepository はローソク足を提供する外部APIのインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	// LatestOpenTime は最新ローソク足の openTime（ミリ秒）を返します。
	LatestOpenTime(ctx context.Context, symbol, timeframe string) (int64, error)
	// GetKlines は最新 limit 件のローソク足を生データのまま返します。
	GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]entity.RawCandle, error)
}

// CandleStore は同期エンジンが必要とする永続化操作です。
type CandleStore interface {
	MaxOpenTime(ctx context.Context) (openTime int64, ok bool, err error)
	Insert(ctx context.Context, candle entity.Candle) error
}

// CandlePublisher は新規に保存したローソク足を外部へ通知します。
type CandlePublisher interface {
	Publish(ctx context.Context, candle entity.Candle) error
}

// CycleObserver はサイクルの結果を受け取ります（メトリクス用）。
type CycleObserver interface {
	ObserveCycle(result CycleResult, err error, elapsed time.Duration)
}

// CycleState は1サイクル内の同期状態です。
type CycleState string

const (
	StateIdle              CycleState = "idle"
	StateCheckingStaleness CycleState = "checking_staleness"
	StateUpToDate          CycleState = "up_to_date"
	StateFetching          CycleState = "fetching"
	StatePersisting        CycleState = "persisting"
)

// CycleResult は1サイクルの実行結果です。State は最後に到達した状態を表します。
type CycleResult struct {
	State        CycleState
	RemoteLatest int64
	LocalMax     int64
	HasLocal     bool
	Fetched      int
	Inserted     int
	Duplicates   int
}

// SyncConfig は同期エンジンの設定です。
type SyncConfig struct {
	Series       entity.Series
	BatchSize    int
	PollInterval time.Duration
}

// SyncOption は SyncUsecase の任意設定です。
type SyncOption func(*SyncUsecase)

// WithPublisher は保存済みローソク足の通知先を設定します。
func WithPublisher(p CandlePublisher) SyncOption {
	return func(su *SyncUsecase) {
		if p != nil {
			su.publisher = p
		}
	}
}

// WithObserver はサイクル結果の監視先を設定します。
func WithObserver(o CycleObserver) SyncOption {
	return func(su *SyncUsecase) {
		if o != nil {
			su.observer = o
		}
	}
}

// SyncUsecase は外部APIの最新ローソク足を検出し、未保存分だけをデータベースに追加します。
// サイクルは常に1つずつ実行され、重なることはありません。
type SyncUsecase struct {
	market    MarketRepository
	store     CandleStore
	cfg       SyncConfig
	publisher CandlePublisher
	observer  CycleObserver
}

// NewSyncUsecase は新しい SyncUsecase を作成します。
// BatchSize と PollInterval が未指定の場合はデフォルト値を使用します。
func NewSyncUsecase(market MarketRepository, store CandleStore, cfg SyncConfig, opts ...SyncOption) *SyncUsecase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	su := &SyncUsecase{
		market:    market,
		store:     store,
		cfg:       cfg,
		publisher: nopPublisher{},
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(su)
	}
	return su
}

// RunCycle は1回分の同期を実行します。
//
//  1. 外部APIの最新 openTime（remoteLatest）を取得
//  2. 保存済みの最大 openTime（localMax）を取得。行が無ければ常に取得へ進む
//  3. remoteLatest <= localMax なら UpToDate で終了
//  4. 最新 BatchSize 件を取得・正規化し、openTime 昇順で1件ずつ保存
//
// 重複（apperr.ErrDuplicateKey）は無視して次へ進みます。それ以外のエラーで残りの処理を中断します。
func (su *SyncUsecase) RunCycle(ctx context.Context) (CycleResult, error) {
	series := su.cfg.Series
	res := CycleResult{State: StateCheckingStaleness}

	remote, err := su.market.LatestOpenTime(ctx, series.Symbol, series.Timeframe)
	if err != nil {
		return res, fmt.Errorf("fetch latest open time: %w", err)
	}
	res.RemoteLatest = remote

	local, ok, err := su.store.MaxOpenTime(ctx)
	if err != nil {
		return res, fmt.Errorf("read stored max open time: %w", err)
	}
	res.LocalMax, res.HasLocal = local, ok

	if ok && remote <= local {
		res.State = StateUpToDate
		return res, nil
	}

	res.State = StateFetching
	raws, err := su.market.GetKlines(ctx, series.Symbol, series.Timeframe, su.cfg.BatchSize)
	if err != nil {
		return res, fmt.Errorf("fetch klines: %w", err)
	}
	res.Fetched = len(raws)

	candles := make([]entity.Candle, 0, len(raws))
	for i, raw := range raws {
		c, err := NormalizeCandle(raw)
		if err != nil {
			return res, fmt.Errorf("normalize kline #%d: %w", i, err)
		}
		c.Symbol = series.Symbol
		c.Timeframe = series.Timeframe
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime < candles[j].OpenTime })

	res.State = StatePersisting
	for _, c := range candles {
		if err := su.store.Insert(ctx, c); err != nil {
			if errors.Is(err, apperr.ErrDuplicateKey) {
				res.Duplicates++
				continue
			}
			return res, fmt.Errorf("insert candle open_time=%d: %w", c.OpenTime, err)
		}
		res.Inserted++
		if err := su.publisher.Publish(ctx, c); err != nil {
			slog.Warn("failed to publish candle", "symbol", c.Symbol, "open_time", c.OpenTime, "error", err)
		}
	}
	return res, nil
}

// Run は PollInterval ごとに RunCycle を実行し、ctx がキャンセルされるまでブロックします。
// 起動直後に1回実行します。キャンセル後は新しいサイクルを開始せず、実行中のサイクルは最後まで完了させます。
func (su *SyncUsecase) Run(ctx context.Context) {
	series := su.cfg.Series
	slog.Info("sync engine started",
		"symbol", series.Symbol,
		"timeframe", series.Timeframe,
		"batch_size", su.cfg.BatchSize,
		"poll_interval", su.cfg.PollInterval,
	)

	su.runOnce(ctx)

	ticker := time.NewTicker(su.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("sync engine stopped", "symbol", series.Symbol, "timeframe", series.Timeframe)
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			su.runOnce(ctx)
		}
	}
}

// runOnce は1サイクルを実行し、結果をログに出力します。エラーはここで止め、プロセスは継続します。
func (su *SyncUsecase) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := su.RunCycle(context.WithoutCancel(ctx))
	elapsed := time.Since(start)
	su.observer.ObserveCycle(res, err, elapsed)

	series := su.cfg.Series
	if err != nil {
		slog.Error("sync cycle failed",
			"symbol", series.Symbol,
			"timeframe", series.Timeframe,
			"state", res.State,
			"inserted", res.Inserted,
			"error", err,
		)
		return
	}

	if res.State == StateUpToDate {
		slog.Debug("candle data is up-to-date",
			"symbol", series.Symbol,
			"remote_latest", res.RemoteLatest,
			"local_max", res.LocalMax,
		)
		return
	}
	slog.Info("new candle data stored",
		"symbol", series.Symbol,
		"timeframe", series.Timeframe,
		"remote_latest", res.RemoteLatest,
		"fetched", res.Fetched,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"took", elapsed,
	)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, entity.Candle) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveCycle(CycleResult, error, time.Duration) {}
