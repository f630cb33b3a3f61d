package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/velodesk/velodesk/internal/catalog"
)

// StockReorder scans the catalog for parts at or below the reorder
// threshold and mails the purchasing summary to the shop.
type StockReorder struct {
	logger    *slog.Logger
	catalog   *catalog.Service
	client    *asynq.Client
	threshold int
	recipient string
}

// NewStockReorder creates the reorder scanner.
func NewStockReorder(logger *slog.Logger, cat *catalog.Service, client *asynq.Client, threshold int, recipient string) *StockReorder {
	if threshold < 0 {
		threshold = 0
	}
	return &StockReorder{
		logger:    logger,
		catalog:   cat,
		client:    client,
		threshold: threshold,
		recipient: recipient,
	}
}

// HandleScan runs one reorder scan.
func (s *StockReorder) HandleScan(ctx context.Context, _ *asynq.Task) error {
	parts, err := s.catalog.ListPartsBelowStock(ctx, s.threshold)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		s.logger.Info("reorder scan done", "low_stock_parts", 0)
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Parts at or below the reorder threshold (%d):\n\n", s.threshold)
	for _, p := range parts {
		fmt.Fprintf(&b, "  %-16s %-20s stock %d\n", p.Code, p.Brand, p.Stock)
	}

	task, err := NewMailTask(MailPayload{
		To:      s.recipient,
		Subject: fmt.Sprintf("Reorder list: %d parts low on stock", len(parts)),
		Body:    b.String(),
	})
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task); err != nil {
		return err
	}

	s.logger.Info("reorder scan done", "low_stock_parts", len(parts))
	return nil
}
