package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
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
	candleshandler "candle_sync/internal/feature/candles/transport/handler"
	candlesusecase "candle_sync/internal/feature/candles/usecase"
	orderbookhandler "candle_sync/internal/feature/orderbook/transport/handler"
	orderbookusecase "candle_sync/internal/feature/orderbook/usecase"
	symbollisthandler "candle_sync/internal/feature/symbollist/transport/handler"
	symbollistusecase "candle_sync/internal/feature/symbollist/usecase"
	"candle_sync/internal/platform/db"
	platformhandler "candle_sync/internal/platform/http/handler"
	jwtmw "candle_sync/internal/platform/jwt"
	"candle_sync/internal/platform/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	tokenTTL        = 24 * time.Hour
)

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for the given client id and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *issueToken != "" {
		token, err := jwtmw.NewGenerator(cfg.Server.JWTSecret, tokenTTL).GenerateToken(*issueToken)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
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
	checks := []platformhandler.Check{{Name: "store", Ping: db.Ping(gdb)}}

	// Redisキャッシュでラップ
	var candles candlesusecase.CandleRepository = candleRepo
	if rdb := di.NewRedis(ctx, cfg.Redis); rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}()
		candles = di.WithCache(rdb, candleRepo, cfg.Sync)
		checks = append(checks, platformhandler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	market := di.NewMarket(cfg.Binance)

	// Usecase
	candlesUC := candlesusecase.NewCandlesUsecase(candles)
	symbolUC := symbollistusecase.NewSymbolUsecase(market)
	bookUC := orderbookusecase.NewOrderBookUsecase(market)

	// Handler
	handlers := router.Handlers{
		Candles:   candleshandler.NewCandlesHandler(candlesUC),
		Symbols:   symbollisthandler.NewSymbolHandler(symbolUC),
		OrderBook: orderbookhandler.NewOrderBookHandler(bookUC),
	}

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.Server.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set; the read API is served without authentication")
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router.NewRouter(handlers, cfg.Server.JWTSecret, checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("read api listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
