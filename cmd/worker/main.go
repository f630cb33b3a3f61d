package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/velodesk/velodesk/internal/app"
	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/masterdata"
	"github.com/velodesk/velodesk/internal/platform/db"
	"github.com/velodesk/velodesk/internal/shared"
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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	mdSvc := masterdata.NewService(masterdata.NewRepository(pool))
	catalogSvc := catalog.NewService(catalog.NewRepository(pool))
	idem := shared.NewIdempotencyStore(pool)

	worker, err := jobs.NewWorker(jobs.WorkerParams{
		Logger:        logger,
		RedisAddr:     cfg.RedisAddr,
		Mail:          jobs.NewMailSender(logger, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		QuoteFollowUp: jobs.NewQuoteFollowUp(logger, pool, asynqClient, mdSvc, idem, cfg.QuoteFollowUpAfter),
		StockReorder:  jobs.NewStockReorder(logger, catalogSvc, asynqClient, cfg.StockReorderThreshold, cfg.SMTPFrom),
	})
	if err != nil {
		logger.Error("worker init failed", "error", err)
		os.Exit(1)
	}

	logger.Info("velodesk worker starting", "redis", cfg.RedisAddr)
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}
