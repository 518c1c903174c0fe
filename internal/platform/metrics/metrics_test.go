package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/feature/candles/usecase"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Each test uses its own series labels so the shared registry does not couple them.

func TestSyncObserver_ObserveCycle_Stored(t *testing.T) {
	t.Parallel()

	o := NewSyncObserver(entity.Series{Symbol: "STOREDUSDT", Timeframe: "1m"})
	o.now = func() time.Time { return time.Unix(1700000100, 0) }

	o.ObserveCycle(usecase.CycleResult{
		State:        usecase.StatePersisting,
		RemoteLatest: 1700000060000,
		Fetched:      10,
		Inserted:     3,
		Duplicates:   7,
	}, nil, 150*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(SyncCyclesTotal.WithLabelValues("STOREDUSDT", "1m", "stored")))
	assert.Equal(t, 3.0, testutil.ToFloat64(CandlesInsertedTotal.WithLabelValues("STOREDUSDT", "1m")))
	assert.Equal(t, 7.0, testutil.ToFloat64(CandlesDuplicateTotal.WithLabelValues("STOREDUSDT", "1m")))
	assert.Equal(t, 1700000060000.0, testutil.ToFloat64(StoredOpenTime.WithLabelValues("STOREDUSDT", "1m")))
	assert.Equal(t, 1700000100.0, testutil.ToFloat64(LastSuccessTimestamp.WithLabelValues("STOREDUSDT", "1m")))
}

func TestSyncObserver_ObserveCycle_UpToDate(t *testing.T) {
	t.Parallel()

	o := NewSyncObserver(entity.Series{Symbol: "UPTODATEUSDT", Timeframe: "1m"})

	o.ObserveCycle(usecase.CycleResult{
		State:        usecase.StateUpToDate,
		RemoteLatest: 1000,
		LocalMax:     1000,
		HasLocal:     true,
	}, nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(SyncCyclesTotal.WithLabelValues("UPTODATEUSDT", "1m", "up_to_date")))
	assert.Equal(t, 0.0, testutil.ToFloat64(SyncCyclesTotal.WithLabelValues("UPTODATEUSDT", "1m", "stored")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(StoredOpenTime.WithLabelValues("UPTODATEUSDT", "1m")))
}

func TestSyncObserver_ObserveCycle_Error(t *testing.T) {
	t.Parallel()

	o := NewSyncObserver(entity.Series{Symbol: "ERRORUSDT", Timeframe: "1m"})

	o.ObserveCycle(usecase.CycleResult{State: usecase.StatePersisting, Inserted: 2}, errors.New("store down"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(SyncCyclesTotal.WithLabelValues("ERRORUSDT", "1m", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(CandlesInsertedTotal.WithLabelValues("ERRORUSDT", "1m")), "partial inserts are still counted")
	assert.Equal(t, 0.0, testutil.ToFloat64(LastSuccessTimestamp.WithLabelValues("ERRORUSDT", "1m")))
}

func TestProviderObserver(t *testing.T) {
	t.Parallel()

	var o ProviderObserver
	o.ObserveProviderRequest("test_endpoint", nil, 10*time.Millisecond)
	o.ObserveProviderRequest("test_endpoint", errors.New("timeout"), time.Second)

	// One series per result label.
	assert.Equal(t, 2, testutil.CollectAndCount(ProviderRequestDuration, "candle_sync_provider_request_duration_seconds"))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	CandlesInsertedTotal.WithLabelValues("HANDLERUSDT", "1m").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `candle_sync_candles_inserted_total{symbol="HANDLERUSDT",timeframe="1m"} 1`))
}
