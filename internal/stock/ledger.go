package stock

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/velodesk/velodesk/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts rejected batches.
type MetricsPort interface {
	StockBatchRejected()
}

// Ledger applies stock delta batches atomically.
type Ledger struct {
	repo    RepositoryPort
	audit   AuditPort
	metrics MetricsPort
}

// NewLedger builds a Ledger. Audit and metrics are optional.
func NewLedger(repo RepositoryPort, audit AuditPort, metrics MetricsPort) *Ledger {
	return &Ledger{repo: repo, audit: audit, metrics: metrics}
}

// Apply executes the batch in two phases inside one transaction: every
// affected part is read and locked first, every line validated against
// the locked stock, and only then are the writes issued. A mid-batch
// failure therefore leaves stock completely untouched.
func (l *Ledger) Apply(ctx context.Context, batch Batch) error {
	if len(batch.Deltas) == 0 {
		return ErrEmptyBatch
	}
	seen := make(map[int64]bool, len(batch.Deltas))
	for _, d := range batch.Deltas {
		if d.QtyChange == 0 {
			return ErrZeroDelta
		}
		if seen[d.PartID] {
			return ErrDuplicatePart
		}
		seen[d.PartID] = true
	}

	// Lock rows in part-id order so concurrent batches cannot deadlock.
	deltas := make([]Delta, len(batch.Deltas))
	copy(deltas, batch.Deltas)
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].PartID < deltas[j].PartID })

	err := l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		newStocks := make(map[int64]int, len(deltas))
		for _, d := range deltas {
			current, err := tx.GetStockForUpdate(ctx, d.PartID)
			if err != nil {
				return err
			}
			after := current - d.QtyChange
			if after < 0 {
				return &InsufficientStockError{PartID: d.PartID, Available: current}
			}
			newStocks[d.PartID] = after
		}

		for _, d := range deltas {
			after := newStocks[d.PartID]
			if err := tx.UpdateStock(ctx, d.PartID, after); err != nil {
				return err
			}
			if err := tx.InsertMovement(ctx, Movement{
				PartID:     d.PartID,
				QtyChange:  d.QtyChange,
				StockAfter: after,
				RefModule:  batch.RefModule,
				RefID:      batch.RefID,
				Note:       batch.Note,
				ActorID:    batch.ActorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) && l.metrics != nil {
			l.metrics.StockBatchRejected()
		}
		return err
	}

	if l.audit != nil {
		meta := make(map[string]any, len(batch.Deltas))
		for _, d := range batch.Deltas {
			meta["part_"+strconv.FormatInt(d.PartID, 10)] = d.QtyChange
		}
		_ = l.audit.Record(ctx, shared.AuditLog{
			ActorID:  batch.ActorID,
			Action:   "stock:apply",
			Entity:   "stock_batch",
			EntityID: batch.RefModule + ":" + batch.RefID,
			Meta:     meta,
		})
	}
	return nil
}

// Movements lists the journal for one part, newest first.
func (l *Ledger) Movements(ctx context.Context, partID int64, limit int) ([]Movement, error) {
	if partID <= 0 {
		return nil, ErrPartNotFound
	}
	return l.repo.ListMovements(ctx, partID, limit)
}
