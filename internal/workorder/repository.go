package workorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velodesk/velodesk/internal/platform/db"
)

// Repository defines the interface for work order persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*WorkOrder, error)
	List(ctx context.Context, req ListRequest) ([]WithDetails, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	Create(ctx context.Context, order WorkOrder) (int64, error)

	// Write operations (transactional)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations.
type TxRepository interface {
	UpdateWorkOrder(ctx context.Context, id int64, updates map[string]any) error
	ReplaceLines(ctx context.Context, orderID int64, lines []Line) error
	InsertBaselineLines(ctx context.Context, orderID int64, lines []Line) error
	UpsertQuote(ctx context.Context, quote Quote) error
	DeleteQuote(ctx context.Context, orderID int64) error
	DeleteWorkOrder(ctx context.Context, orderID int64) error
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const orderColumns = `
	id, client_id, bicycle_id, status, needs_quote, total_amount, original_amount,
	advance_payment, mechanic_id, mechanic_notes, estimated_delivery_date,
	started_at, completed_at, delivered_at, created_at, updated_at
`

func scanOrder(row pgx.Row) (WorkOrder, error) {
	var o WorkOrder
	err := row.Scan(
		&o.ID, &o.ClientID, &o.BicycleID, &o.Status, &o.NeedsQuote, &o.TotalAmount,
		&o.OriginalAmount, &o.AdvancePayment, &o.MechanicID, &o.MechanicNotes,
		&o.EstimatedDeliveryDate, &o.StartedAt, &o.CompletedAt, &o.DeliveredAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// GetByID retrieves a work order with lines, baseline and quote.
func (r *repository) GetByID(ctx context.Context, id int64) (*WorkOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_orders WHERE id = $1`, orderColumns)
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	order.Services, order.Parts, err = r.getLines(ctx, "work_order_lines", id)
	if err != nil {
		return nil, err
	}
	order.OriginalServices, order.OriginalParts, err = r.getLines(ctx, "work_order_baseline_lines", id)
	if err != nil {
		return nil, err
	}
	order.Quote, err = r.getQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *repository) getLines(ctx context.Context, table string, orderID int64) (services, parts []Line, err error) {
	query := fmt.Sprintf(`
		SELECT id, kind, catalog_id, description, unit_price, quantity, price, created_at
		FROM %s
		WHERE work_order_id = $1
		ORDER BY created_at, id
	`, table)
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.Kind, &l.CatalogID, &l.Description, &l.UnitPrice, &l.Quantity, &l.Price, &l.CreatedAt); err != nil {
			return nil, nil, err
		}
		if l.Kind == KindService {
			services = append(services, l)
		} else {
			parts = append(parts, l)
		}
	}
	return services, parts, rows.Err()
}

func (r *repository) getQuote(ctx context.Context, orderID int64) (*Quote, error) {
	query := `
		SELECT work_order_id, status, sent_at, responded_at, client_response,
		       rejected_service_lines, rejected_part_lines
		FROM work_order_quotes
		WHERE work_order_id = $1
	`
	var q Quote
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&q.WorkOrderID, &q.Status, &q.SentAt, &q.RespondedAt, &q.ClientResponse,
		&q.RejectedItems.Services, &q.RejectedItems.Parts,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// List returns work orders with client/bicycle details.
func (r *repository) List(ctx context.Context, req ListRequest) ([]WithDetails, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argPos := 1

	if req.Status != nil {
		where = append(where, fmt.Sprintf("wo.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.MechanicID != nil {
		where = append(where, fmt.Sprintf("wo.mechanic_id = $%d", argPos))
		args = append(args, *req.MechanicID)
		argPos++
	}
	if req.ClientID != nil {
		where = append(where, fmt.Sprintf("wo.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.NeedsQuote != nil {
		where = append(where, fmt.Sprintf("wo.needs_quote = $%d", argPos))
		args = append(args, *req.NeedsQuote)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		where = append(where, fmt.Sprintf("(c.name ILIKE $%d OR b.brand ILIKE $%d OR b.model ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM work_orders wo
		JOIN clients c ON c.id = wo.client_id
		JOIN bicycles b ON b.id = wo.bicycle_id
		WHERE %s
	`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       c.name AS client_name,
		       b.brand AS bicycle_brand,
		       b.model AS bicycle_model,
		       (SELECT COUNT(*) FROM work_order_lines wol WHERE wol.work_order_id = wo.id) AS line_count
		FROM work_orders wo
		JOIN clients c ON c.id = wo.client_id
		JOIN bicycles b ON b.id = wo.bicycle_id
		WHERE %s
		ORDER BY wo.created_at DESC
		LIMIT $%d OFFSET $%d
	`, qualifiedOrderColumns(), whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []WithDetails
	for rows.Next() {
		var d WithDetails
		err := rows.Scan(
			&d.ID, &d.ClientID, &d.BicycleID, &d.Status, &d.NeedsQuote, &d.TotalAmount,
			&d.OriginalAmount, &d.AdvancePayment, &d.MechanicID, &d.MechanicNotes,
			&d.EstimatedDeliveryDate, &d.StartedAt, &d.CompletedAt, &d.DeliveredAt,
			&d.CreatedAt, &d.UpdatedAt,
			&d.ClientName, &d.BicycleBrand, &d.BicycleModel, &d.LineCount,
		)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, d)
	}
	return result, total, rows.Err()
}

func qualifiedOrderColumns() string {
	cols := strings.Split(orderColumns, ",")
	for i, c := range cols {
		cols[i] = "wo." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// CountByStatus returns order counts per status for the board view.
func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM work_orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Create inserts a new work order without lines.
func (r *repository) Create(ctx context.Context, order WorkOrder) (int64, error) {
	query := `
		INSERT INTO work_orders (
			client_id, bicycle_id, status, needs_quote, total_amount, original_amount,
			advance_payment, mechanic_id, mechanic_notes, estimated_delivery_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		order.ClientID, order.BicycleID, order.Status, order.NeedsQuote,
		order.TotalAmount, order.OriginalAmount, order.AdvancePayment,
		order.MechanicID, order.MechanicNotes, order.EstimatedDeliveryDate,
	).Scan(&id)
	return id, err
}

// UpdateWorkOrder updates work order fields.
func (t *txRepository) UpdateWorkOrder(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	var setClauses []string
	var args []any
	argPos := 1

	for field, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, value)
		argPos++
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now())
	argPos++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE work_orders SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)

	cmdTag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLines swaps the current line set for the given one.
func (t *txRepository) ReplaceLines(ctx context.Context, orderID int64, lines []Line) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM work_order_lines WHERE work_order_id = $1`, orderID); err != nil {
		return err
	}
	return t.insertLines(ctx, "work_order_lines", orderID, lines)
}

// InsertBaselineLines writes the frozen snapshot. It refuses to
// overwrite an existing baseline: the freeze happens exactly once.
func (t *txRepository) InsertBaselineLines(ctx context.Context, orderID int64, lines []Line) error {
	var existing int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM work_order_baseline_lines WHERE work_order_id = $1`, orderID).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return errors.New("workorder: baseline already frozen")
	}
	return t.insertLines(ctx, "work_order_baseline_lines", orderID, lines)
}

func (t *txRepository) insertLines(ctx context.Context, table string, orderID int64, lines []Line) error {
	for _, l := range lines {
		_, err := t.tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, work_order_id, kind, catalog_id, description, unit_price, quantity, price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table),
			l.ID, orderID, l.Kind, l.CatalogID, l.Description, l.UnitPrice, l.Quantity, l.Price, l.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertQuote inserts or updates the negotiation record.
func (t *txRepository) UpsertQuote(ctx context.Context, quote Quote) error {
	rejectedServices := quote.RejectedItems.Services
	if rejectedServices == nil {
		rejectedServices = []string{}
	}
	rejectedParts := quote.RejectedItems.Parts
	if rejectedParts == nil {
		rejectedParts = []string{}
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO work_order_quotes (
			work_order_id, status, sent_at, responded_at, client_response,
			rejected_service_lines, rejected_part_lines
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (work_order_id) DO UPDATE SET
			status = EXCLUDED.status,
			sent_at = EXCLUDED.sent_at,
			responded_at = EXCLUDED.responded_at,
			client_response = EXCLUDED.client_response,
			rejected_service_lines = EXCLUDED.rejected_service_lines,
			rejected_part_lines = EXCLUDED.rejected_part_lines`,
		quote.WorkOrderID, quote.Status, quote.SentAt, quote.RespondedAt, quote.ClientResponse,
		rejectedServices, rejectedParts)
	return err
}

// DeleteQuote removes a quote record (only done while still pending).
func (t *txRepository) DeleteQuote(ctx context.Context, orderID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM work_order_quotes WHERE work_order_id = $1`, orderID)
	return err
}

// DeleteWorkOrder removes the order and its dependents.
func (t *txRepository) DeleteWorkOrder(ctx context.Context, orderID int64) error {
	for _, query := range []string{
		`DELETE FROM work_order_quotes WHERE work_order_id = $1`,
		`DELETE FROM work_order_baseline_lines WHERE work_order_id = $1`,
		`DELETE FROM work_order_lines WHERE work_order_id = $1`,
	} {
		if _, err := t.tx.Exec(ctx, query, orderID); err != nil {
			return err
		}
	}
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
