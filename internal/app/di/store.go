package di

import (
	"context"
	"log/slog"

	"candle_sync/internal/app/config"
	"candle_sync/internal/feature/candles/adapters"
	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/feature/candles/usecase"
	"candle_sync/internal/platform/cache"
	"candle_sync/internal/platform/db"
	infraredis "candle_sync/internal/platform/redis"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CandleRepository is the store-backed repository with schema management.
type CandleRepository interface {
	usecase.CandleRepository
	InitSchema(ctx context.Context) error
}

// Series returns the series configured for this deployment.
func Series(cfg config.SyncConfig) entity.Series {
	return entity.Series{Symbol: cfg.Symbol, Timeframe: cfg.Timeframe}
}

// DBConfig converts the store section into connection settings.
func DBConfig(cfg config.StoreConfig) db.Config {
	return db.Config{
		Driver:   cfg.Driver,
		DSN:      cfg.DSN,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Name:     cfg.Name,
		SSLMode:  cfg.SSLMode,
	}
}

// OpenDB connects to the configured store.
func OpenDB(cfg config.StoreConfig) (*gorm.DB, error) {
	return db.Open(DBConfig(cfg), cfg.ConnectTimeout)
}

// NewCandleRepository creates the gorm repository for the configured series and table.
func NewCandleRepository(gdb *gorm.DB, cfg *config.Config) CandleRepository {
	return adapters.NewCandleRepository(gdb, cfg.Store.Table, Series(cfg.Sync))
}

// NewRedis connects to Redis when configured. It returns nil when Redis is
// disabled or unreachable; callers then run without cache.
func NewRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	rc := infraredis.Config{Host: cfg.Host, Port: cfg.Port, Password: cfg.Password, DB: cfg.DB}
	if !rc.Enabled() {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, rc)
	if err != nil {
		slog.Warn("redis unavailable, running without cache", "addr", rc.Addr(), "error", err)
		return nil
	}
	return rdb
}

// WithCache wraps repo in the Redis read cache when rdb is non-nil.
// The TTL follows the candle timeframe.
func WithCache(rdb *redis.Client, repo usecase.CandleRepository, sync config.SyncConfig) usecase.CandleRepository {
	if rdb == nil {
		return repo
	}
	ttl := cache.TTLForTimeframe(sync.Timeframe)
	return cache.NewCachingCandleRepository(rdb, ttl, repo, "candles", Series(sync))
}
