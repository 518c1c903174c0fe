// Package metrics exposes Prometheus metrics for the sync engine and the provider client.
package metrics

import (
	"net/http"
	"time"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/feature/candles/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultStored   = "stored"
	resultUpToDate = "up_to_date"
	resultError    = "error"
	resultOK       = "ok"
)

var (
	SyncCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candle_sync_cycles_total",
			Help: "Sync cycles by outcome",
		},
		[]string{"symbol", "timeframe", "result"},
	)

	CandlesInsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candle_sync_candles_inserted_total",
			Help: "Candles newly persisted",
		},
		[]string{"symbol", "timeframe"},
	)

	CandlesDuplicateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candle_sync_candles_duplicate_total",
			Help: "Fetched candles skipped because their open time was already stored",
		},
		[]string{"symbol", "timeframe"},
	)

	SyncCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "candle_sync_cycle_duration_seconds",
			Help:    "Sync cycle duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol", "timeframe"},
	)

	LastSuccessTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "candle_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last cycle that finished without error",
		},
		[]string{"symbol", "timeframe"},
	)

	StoredOpenTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "candle_sync_stored_open_time_ms",
			Help: "Newest open time known to be stored, in milliseconds",
		},
		[]string{"symbol", "timeframe"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "candle_sync_provider_request_duration_seconds",
			Help:    "Market data provider request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "result"},
	)
)

// SyncObserver records sync cycle outcomes for one series.
type SyncObserver struct {
	symbol    string
	timeframe string
	now       func() time.Time
}

var _ usecase.CycleObserver = (*SyncObserver)(nil)

func NewSyncObserver(series entity.Series) *SyncObserver {
	return &SyncObserver{symbol: series.Symbol, timeframe: series.Timeframe, now: time.Now}
}

// ObserveCycle implements usecase.CycleObserver.
func (o *SyncObserver) ObserveCycle(res usecase.CycleResult, err error, elapsed time.Duration) {
	SyncCycleDuration.WithLabelValues(o.symbol, o.timeframe).Observe(elapsed.Seconds())
	CandlesInsertedTotal.WithLabelValues(o.symbol, o.timeframe).Add(float64(res.Inserted))
	CandlesDuplicateTotal.WithLabelValues(o.symbol, o.timeframe).Add(float64(res.Duplicates))

	if err != nil {
		SyncCyclesTotal.WithLabelValues(o.symbol, o.timeframe, resultError).Inc()
		return
	}

	result := resultStored
	if res.State == usecase.StateUpToDate {
		result = resultUpToDate
		StoredOpenTime.WithLabelValues(o.symbol, o.timeframe).Set(float64(res.LocalMax))
	} else if res.Inserted > 0 || res.Duplicates > 0 {
		StoredOpenTime.WithLabelValues(o.symbol, o.timeframe).Set(float64(res.RemoteLatest))
	}
	SyncCyclesTotal.WithLabelValues(o.symbol, o.timeframe, result).Inc()
	LastSuccessTimestamp.WithLabelValues(o.symbol, o.timeframe).Set(float64(o.now().Unix()))
}

// ProviderObserver records provider request latency.
type ProviderObserver struct{}

// ObserveProviderRequest implements binance.RequestObserver.
func (ProviderObserver) ObserveProviderRequest(endpoint string, err error, elapsed time.Duration) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	ProviderRequestDuration.WithLabelValues(endpoint, result).Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
