package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candle_sync/internal/app/config"
	"candle_sync/internal/app/di"
	"candle_sync/internal/app/router"
	"candle_sync/internal/feature/candles/usecase"
	"candle_sync/internal/platform/db"
	platformhandler "candle_sync/internal/platform/http/handler"
	"candle_sync/internal/platform/logging"
	"candle_sync/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	once := flag.Bool("once", false, "run a single sync cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	gdb, err := di.OpenDB(cfg.Store)
	if err != nil {
		log.Fatalf("failed to open candle store: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("failed to close candle store", "error", err)
			}
		}
	}()

	candleRepo := di.NewCandleRepository(gdb, cfg)
	if err := candleRepo.InitSchema(ctx); err != nil {
		log.Fatalf("failed to initialise candle schema: %v", err)
	}

	// Redis: 読み取りAPIのキャッシュを新規保存時に無効化する
	checks := []platformhandler.Check{{Name: "store", Ping: db.Ping(gdb)}}
	var store usecase.CandleStore = candleRepo
	if rdb := di.NewRedis(ctx, cfg.Redis); rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}()
		store = di.WithCache(rdb, candleRepo, cfg.Sync)
		checks = append(checks, platformhandler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	publisher, closePublisher := di.NewPublisher(cfg.Kafka)
	defer func() {
		if err := closePublisher(); err != nil {
			slog.Error("failed to close candle publisher", "error", err)
		}
	}()

	series := di.Series(cfg.Sync)
	syncUC := usecase.NewSyncUsecase(
		di.NewMarket(cfg.Binance),
		store,
		usecase.SyncConfig{
			Series:       series,
			BatchSize:    cfg.Sync.BatchSize,
			PollInterval: cfg.Sync.PollInterval,
		},
		usecase.WithPublisher(publisher),
		usecase.WithObserver(metrics.NewSyncObserver(series)),
	)

	if *once {
		res, err := syncUC.RunCycle(ctx)
		if err != nil {
			slog.Error("sync cycle failed", "state", res.State, "error", err)
			os.Exit(1)
		}
		slog.Info("sync cycle finished",
			"state", res.State,
			"remote_latest", res.RemoteLatest,
			"inserted", res.Inserted,
			"duplicates", res.Duplicates,
		)
		return
	}

	srv := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           router.NewOpsRouter(checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ops server failed", "error", err)
		}
	}()

	syncUC.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down ops server", "error", err)
	}
}
