package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velodesk/velodesk/internal/app"
	"github.com/velodesk/velodesk/internal/auth"
	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/masterdata"
	"github.com/velodesk/velodesk/internal/observability"
	"github.com/velodesk/velodesk/internal/platform/cache"
	"github.com/velodesk/velodesk/internal/platform/db"
	"github.com/velodesk/velodesk/internal/shared"
	"github.com/velodesk/velodesk/internal/stock"
	"github.com/velodesk/velodesk/internal/workorder"
	"github.com/velodesk/velodesk/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	metrics := observability.NewMetrics()
	audit := shared.NewAuditLogger(pool)

	authSvc := auth.NewService(auth.NewRepository(pool), redisClient, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authSvc)

	mdSvc := masterdata.NewService(masterdata.NewRepository(pool))
	mdHandler := masterdata.NewHandler(logger, mdSvc)

	catalogSvc := catalog.NewService(catalog.NewRepository(pool))
	catalogHandler := catalog.NewHandler(logger, catalogSvc)

	ledger := stock.NewLedger(stock.NewRepository(pool), audit, metrics)
	stockHandler := stock.NewHandler(logger, ledger)

	woRepo := workorder.NewRepository(pool)
	notifier := jobs.NewQuoteNotifier(asynqClient, mdSvc)
	woSvc := workorder.NewService(woRepo, ledger, catalogSvc, audit, notifier, logger)
	board := workorder.NewBoard(woRepo, redisClient, cfg.BoardCacheTTL, logger)
	exporter := workorder.NewCSVExporter(woRepo)
	woHandler := workorder.NewHandler(logger, woSvc, board, exporter)

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    metrics,
		Auth:       authHandler,
		AuthSvc:    authSvc,
		Masterdata: mdHandler,
		Catalog:    catalogHandler,
		Stock:      stockHandler,
		WorkOrders: woHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("velodesk api listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
