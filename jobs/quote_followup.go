package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velodesk/velodesk/internal/masterdata"
	"github.com/velodesk/velodesk/internal/shared"
)

// QuoteFollowUp reminds clients about quotes that were sent but never
// answered. It runs on a schedule and enqueues at most one reminder per
// quote per day, enforced through the idempotency store.
type QuoteFollowUp struct {
	logger      *slog.Logger
	pool        *pgxpool.Pool
	client      *asynq.Client
	masterdata  *masterdata.Service
	idempotency *shared.IdempotencyStore
	after       time.Duration
}

// NewQuoteFollowUp creates the follow-up scanner.
func NewQuoteFollowUp(logger *slog.Logger, pool *pgxpool.Pool, client *asynq.Client, md *masterdata.Service, idem *shared.IdempotencyStore, after time.Duration) *QuoteFollowUp {
	if after <= 0 {
		after = 48 * time.Hour
	}
	return &QuoteFollowUp{
		logger:      logger,
		pool:        pool,
		client:      client,
		masterdata:  md,
		idempotency: idem,
		after:       after,
	}
}

type staleQuote struct {
	workOrderID int64
	clientID    int64
	sentAt      time.Time
	totalAmount float64
}

// HandleScan finds stale sent quotes and enqueues reminder mails.
func (q *QuoteFollowUp) HandleScan(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().Add(-q.after)
	rows, err := q.pool.Query(ctx, `
		SELECT wq.work_order_id, wo.client_id, wq.sent_at, wo.total_amount
		FROM work_order_quotes wq
		JOIN work_orders wo ON wo.id = wq.work_order_id
		WHERE wq.status = 'sent' AND wq.sent_at < $1
		ORDER BY wq.sent_at`, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	var stale []staleQuote
	for rows.Next() {
		var s staleQuote
		if err := rows.Scan(&s.workOrderID, &s.clientID, &s.sentAt, &s.totalAmount); err != nil {
			return err
		}
		stale = append(stale, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, s := range stale {
		key := fmt.Sprintf("quote_followup:%d:%s", s.workOrderID, time.Now().Format("2006-01-02"))
		if err := q.idempotency.CheckAndInsert(ctx, key, "jobs"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				continue
			}
			return err
		}
		if err := q.remind(ctx, s); err != nil {
			// Release the key so the next scan retries this quote.
			_ = q.idempotency.Delete(ctx, key)
			q.logger.Error("quote follow-up failed", "work_order_id", s.workOrderID, "error", err)
		}
	}

	q.logger.Info("quote follow-up scan done", "stale", len(stale))
	return nil
}

func (q *QuoteFollowUp) remind(ctx context.Context, s staleQuote) error {
	client, err := q.masterdata.GetClient(ctx, s.clientID)
	if err != nil {
		return err
	}
	if client.Email == "" {
		return nil
	}
	task, err := NewMailTask(MailPayload{
		To:      client.Email,
		Subject: fmt.Sprintf("Reminder: quote for repair order #%d awaits your answer", s.workOrderID),
		Body: fmt.Sprintf(
			"Hello %s,\n\nWe sent you a quote on %s for additional work on your bicycle "+
				"(updated total %.2f) and have not heard back. The repair is on hold until you "+
				"approve or reject the additional items.\n\nVelodesk",
			client.Name, s.sentAt.Format("2 January 2006"), s.totalAmount),
	})
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task)
	return err
}
