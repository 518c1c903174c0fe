package adapters

import (
	"context"
	"fmt"
	"testing"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/shared/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSeries = entity.Series{Symbol: "BTCUSDT", Timeframe: "1m"}

// setupTestDB prepares an in-memory SQLite database for testing.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// setupTestRepo returns a repository with its schema initialized.
func setupTestRepo(t *testing.T) (*candleGorm, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	repo := NewCandleRepository(db, "", testSeries)
	require.NoError(t, repo.InitSchema(context.Background()), "failed to init schema")
	return repo, db
}

// seedCandle creates a test candle in the database for testing.
func seedCandle(t *testing.T, db *gorm.DB, openTime int64) *CandleModel {
	t.Helper()

	candle := &CandleModel{
		Date:   openTime,
		Open:   100.0,
		High:   110.0,
		Low:    90.0,
		Close:  105.0,
		Volume: 1000,
	}
	err := db.Create(candle).Error
	require.NoError(t, err, "failed to seed candle")

	return candle
}

func TestNewCandleRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewCandleRepository(db, "", testSeries)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
	assert.Equal(t, DefaultTable, repo.table)
	assert.Equal(t, testSeries, repo.series)
}

func TestCandleGorm_InitSchema_Idempotent(t *testing.T) {
	t.Parallel()

	repo, db := setupTestRepo(t)

	// Calling it again on every startup must not fail or drop data.
	seedCandle(t, db, 1000)
	require.NoError(t, repo.InitSchema(context.Background()))
	require.NoError(t, repo.InitSchema(context.Background()))

	var count int64
	db.Model(&CandleModel{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.True(t, db.Migrator().HasTable(DefaultTable))
}

func TestCandleGorm_InitSchema_CustomTable(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db, "eth_1h_candles", entity.Series{Symbol: "ETHUSDT", Timeframe: "1h"})

	require.NoError(t, repo.InitSchema(context.Background()))
	assert.True(t, db.Migrator().HasTable("eth_1h_candles"))

	require.NoError(t, repo.Insert(context.Background(), entity.Candle{OpenTime: 42}))
	err := repo.Insert(context.Background(), entity.Candle{OpenTime: 42})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey, "unique index must exist on the custom table")
}

func TestCandleGorm_InitSchema_StorageUnavailable(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	repo := NewCandleRepository(db, "", testSeries)
	err = repo.InitSchema(context.Background())

	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}

func TestCandleGorm_MaxOpenTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    []int64
		wantMax int64
		wantOK  bool
	}{
		{name: "empty table", seed: nil, wantMax: 0, wantOK: false},
		{name: "single row", seed: []int64{1700000000000}, wantMax: 1700000000000, wantOK: true},
		{name: "numeric not lexical max", seed: []int64{999, 1000, 20}, wantMax: 1000, wantOK: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, db := setupTestRepo(t)
			for _, ot := range tt.seed {
				seedCandle(t, db, ot)
			}

			got, ok, err := repo.MaxOpenTime(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMax, got)
		})
	}
}

func TestCandleGorm_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		seed         []int64
		candle       entity.Candle
		wantErr      error
		validateFunc func(t *testing.T, db *gorm.DB)
	}{
		{
			name: "success: insert single candle",
			candle: entity.Candle{
				Symbol: "BTCUSDT", Timeframe: "1m", OpenTime: 1700000000000,
				Open: 100.0, High: 105.0, Low: 99.0, Close: 102.0, Volume: 50.0,
			},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				var row CandleModel
				require.NoError(t, db.First(&row).Error)
				assert.NotZero(t, row.ID, "surrogate id should be assigned")
				assert.Equal(t, int64(1700000000000), row.Date)
				assert.Equal(t, 100.0, row.Open)
				assert.Equal(t, 105.0, row.High)
				assert.Equal(t, 99.0, row.Low)
				assert.Equal(t, 102.0, row.Close)
				assert.Equal(t, 50.0, row.Volume)
			},
		},
		{
			name:    "error: duplicate open time",
			seed:    []int64{1000},
			candle:  entity.Candle{OpenTime: 1000, Open: 1, High: 1, Low: 1, Close: 1},
			wantErr: apperr.ErrDuplicateKey,
			validateFunc: func(t *testing.T, db *gorm.DB) {
				var count int64
				db.Model(&CandleModel{}).Count(&count)
				assert.Equal(t, int64(1), count, "duplicate must not be stored")

				var row CandleModel
				require.NoError(t, db.First(&row).Error)
				assert.Equal(t, 100.0, row.Open, "existing row must not be updated")
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, db := setupTestRepo(t)
			for _, ot := range tt.seed {
				seedCandle(t, db, ot)
			}

			err := repo.Insert(context.Background(), tt.candle)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, db)
			}
		})
	}
}

// TestCandleGorm_Insert_OverlappingBatches replays two overlapping batches and
// checks that no open time is ever stored twice.
func TestCandleGorm_Insert_OverlappingBatches(t *testing.T) {
	t.Parallel()

	repo, db := setupTestRepo(t)
	ctx := context.Background()

	batches := [][]int64{{10, 20, 30}, {20, 30}, {30, 40}}
	var inserted, duplicates int
	for _, batch := range batches {
		for _, ot := range batch {
			err := repo.Insert(ctx, entity.Candle{OpenTime: ot})
			if err == nil {
				inserted++
				continue
			}
			require.ErrorIs(t, err, apperr.ErrDuplicateKey)
			duplicates++
		}
	}

	assert.Equal(t, 4, inserted)
	assert.Equal(t, 3, duplicates)

	var dates []int64
	require.NoError(t, db.Model(&CandleModel{}).Order("date").Pluck("date", &dates).Error)
	assert.Equal(t, []int64{10, 20, 30, 40}, dates)
}

func TestCandleGorm_Insert_StorageUnavailable(t *testing.T) {
	t.Parallel()

	repo, db := setupTestRepo(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = repo.Insert(context.Background(), entity.Candle{OpenTime: 1})

	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, apperr.ErrDuplicateKey)
}

func TestCandleGorm_Find(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		limit        int
		seed         []int64
		validateFunc func(t *testing.T, candles []entity.Candle)
	}{
		{
			name:  "success: empty result when table is empty",
			limit: 10,
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				assert.Empty(t, candles, "should return empty slice")
			},
		},
		{
			name:  "success: respect limit",
			limit: 2,
			seed:  []int64{1, 2, 3, 4, 5},
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				assert.Len(t, candles, 2, "should return only 2 candles")
			},
		},
		{
			name:  "success: limit 0 returns all",
			limit: 0,
			seed:  []int64{1, 2, 3, 4, 5},
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				assert.Len(t, candles, 5, "should return all candles")
			},
		},
		{
			name:  "success: results ordered by open time descending",
			limit: 10,
			seed:  []int64{100, 300, 200},
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				require.Len(t, candles, 3)
				assert.Equal(t, int64(300), candles[0].OpenTime)
				assert.Equal(t, int64(200), candles[1].OpenTime)
				assert.Equal(t, int64(100), candles[2].OpenTime)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, db := setupTestRepo(t)
			for _, ot := range tt.seed {
				seedCandle(t, db, ot)
			}

			candles, err := repo.Find(context.Background(), tt.limit)

			require.NoError(t, err)
			tt.validateFunc(t, candles)
		})
	}
}

func TestCandleGorm_Find_EntityMapping(t *testing.T) {
	t.Parallel()

	repo, db := setupTestRepo(t)

	candle := &CandleModel{
		Date:   1718452800000,
		Open:   150.5,
		High:   155.75,
		Low:    149.25,
		Close:  154.0,
		Volume: 5000000.5,
	}
	require.NoError(t, db.Create(candle).Error)

	result, err := repo.Find(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, "BTCUSDT", result[0].Symbol, "Symbol does not match")
	assert.Equal(t, "1m", result[0].Timeframe, "Timeframe does not match")
	assert.Equal(t, int64(1718452800000), result[0].OpenTime, "OpenTime does not match")
	assert.Equal(t, 150.5, result[0].Open, "Open does not match")
	assert.Equal(t, 155.75, result[0].High, "High does not match")
	assert.Equal(t, 149.25, result[0].Low, "Low does not match")
	assert.Equal(t, 154.0, result[0].Close, "Close does not match")
	assert.Equal(t, 5000000.5, result[0].Volume, "Volume does not match")
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other constraint", &pgconn.PgError{Code: "23502"}, false},
		{"sqlite untranslated", fmt.Errorf("UNIQUE constraint failed: candlestick_data.date"), true},
		{"other error", fmt.Errorf("database is locked"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isDuplicateKey(tt.err))
		})
	}
}
