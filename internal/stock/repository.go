package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velodesk/velodesk/internal/platform/db"
)

// TxRepository exposes the transactional operations used by the ledger.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, partID int64) (int, error)
	UpdateStock(ctx context.Context, partID int64, newStock int) error
	InsertMovement(ctx context.Context, m Movement) error
}

// RepositoryPort abstracts repository usage for the ledger.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMovements(ctx context.Context, partID int64, limit int) ([]Movement, error)
}

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
// Row locks taken by GetStockForUpdate serialize concurrent batches
// touching the same part.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListMovements returns the most recent journal entries for a part.
func (r *Repository) ListMovements(ctx context.Context, partID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, part_id, qty_change, stock_after, ref_module, ref_id, note, actor_id, created_at
		FROM stock_movements
		WHERE part_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, partID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.PartID, &m.QtyChange, &m.StockAfter, &m.RefModule, &m.RefID, &m.Note, &m.ActorID, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (t *txRepo) GetStockForUpdate(ctx context.Context, partID int64) (int, error) {
	var stock int
	err := t.tx.QueryRow(ctx, `SELECT stock FROM catalog_parts WHERE id = $1 FOR UPDATE`, partID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPartNotFound
		}
		return 0, err
	}
	return stock, nil
}

func (t *txRepo) UpdateStock(ctx context.Context, partID int64, newStock int) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE catalog_parts SET stock = $1, updated_at = NOW() WHERE id = $2`, newStock, partID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrPartNotFound
	}
	return nil
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements (part_id, qty_change, stock_after, ref_module, ref_id, note, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.PartID, m.QtyChange, m.StockAfter, m.RefModule, m.RefID, m.Note, m.ActorID)
	return err
}
