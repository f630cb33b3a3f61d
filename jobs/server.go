package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// WorkerParams aggregates handlers for the background worker.
type WorkerParams struct {
	Logger        *slog.Logger
	RedisAddr     string
	Mail          *MailSender
	QuoteFollowUp *QuoteFollowUp
	StockReorder  *StockReorder
}

// Worker wraps the asynq server and its cron scheduler.
type Worker struct {
	logger    *slog.Logger
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

// NewWorker wires handlers and schedule entries. The follow-up scan
// runs hourly; the reorder scan once per morning before opening.
func NewWorker(p WorkerParams) (*Worker, error) {
	redisOpt := asynq.RedisClientOpt{Addr: p.RedisAddr}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 3,
			QueueMail:    2,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMailSend, p.Mail.HandleMailSend)
	mux.HandleFunc(TypeQuoteFollowUp, p.QuoteFollowUp.HandleScan)
	mux.HandleFunc(TypeStockReorderScan, p.StockReorder.HandleScan)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("0 * * * *", asynq.NewTask(TypeQuoteFollowUp, nil, asynq.Queue(QueueDefault))); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("30 7 * * *", asynq.NewTask(TypeStockReorderScan, nil, asynq.Queue(QueueDefault))); err != nil {
		return nil, err
	}

	return &Worker{
		logger:    p.Logger,
		server:    server,
		scheduler: scheduler,
		mux:       mux,
	}, nil
}

// Run starts the worker and scheduler and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	if err := w.server.Start(w.mux); err != nil {
		w.scheduler.Shutdown()
		return err
	}

	<-ctx.Done()
	w.logger.Info("worker shutting down")
	w.scheduler.Shutdown()
	w.server.Shutdown()
	return nil
}
