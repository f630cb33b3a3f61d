package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velodesk/velodesk/internal/platform/httpx"
)

// Repository defines persistence for catalog entries.
type Repository interface {
	ListServices(ctx context.Context, filters ListFilters) ([]ServiceItem, int, error)
	GetService(ctx context.Context, id int64) (ServiceItem, error)
	CreateService(ctx context.Context, item ServiceItem) (ServiceItem, error)
	UpdateService(ctx context.Context, id int64, updates map[string]any) error

	ListParts(ctx context.Context, filters ListFilters) ([]PartItem, int, error)
	GetPart(ctx context.Context, id int64) (PartItem, error)
	GetPartsByIDs(ctx context.Context, ids []int64) ([]PartItem, error)
	CreatePart(ctx context.Context, item PartItem) (PartItem, error)
	UpdatePart(ctx context.Context, id int64, updates map[string]any) error
	ListPartsBelowStock(ctx context.Context, threshold int) ([]PartItem, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const serviceColumns = `id, description, price, is_active, created_at, updated_at`

func scanService(row pgx.Row) (ServiceItem, error) {
	var s ServiceItem
	err := row.Scan(&s.ID, &s.Description, &s.Price, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) ListServices(ctx context.Context, filters ListFilters) ([]ServiceItem, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argPos := 1

	if filters.Search != "" {
		where = append(where, fmt.Sprintf("description ILIKE $%d", argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM catalog_services WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}

	query := fmt.Sprintf(`SELECT %s FROM catalog_services WHERE %s ORDER BY description LIMIT $%d OFFSET $%d`,
		serviceColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []ServiceItem
	for rows.Next() {
		item, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *repository) GetService(ctx context.Context, id int64) (ServiceItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_services WHERE id = $1`, serviceColumns)
	item, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceItem{}, httpx.ErrNotFound
		}
		return ServiceItem{}, err
	}
	return item, nil
}

func (r *repository) CreateService(ctx context.Context, item ServiceItem) (ServiceItem, error) {
	query := `
		INSERT INTO catalog_services (description, price, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING ` + serviceColumns
	return scanService(r.pool.QueryRow(ctx, query, item.Description, item.Price))
}

func (r *repository) UpdateService(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "catalog_services", id, updates)
}

const partColumns = `id, code, brand, department, price, cost_price, stock, is_active, created_at, updated_at`

func scanPart(row pgx.Row) (PartItem, error) {
	var p PartItem
	err := row.Scan(&p.ID, &p.Code, &p.Brand, &p.Department, &p.Price, &p.CostPrice, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) ListParts(ctx context.Context, filters ListFilters) ([]PartItem, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argPos := 1

	if filters.Search != "" {
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR brand ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.Department != "" {
		where = append(where, fmt.Sprintf("department = $%d", argPos))
		args = append(args, filters.Department)
		argPos++
	}
	if filters.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM catalog_parts WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}

	query := fmt.Sprintf(`SELECT %s FROM catalog_parts WHERE %s ORDER BY code LIMIT $%d OFFSET $%d`,
		partColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []PartItem
	for rows.Next() {
		item, err := scanPart(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *repository) GetPart(ctx context.Context, id int64) (PartItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_parts WHERE id = $1`, partColumns)
	item, err := scanPart(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartItem{}, httpx.ErrNotFound
		}
		return PartItem{}, err
	}
	return item, nil
}

func (r *repository) GetPartsByIDs(ctx context.Context, ids []int64) ([]PartItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM catalog_parts WHERE id = ANY($1)`, partColumns)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PartItem
	for rows.Next() {
		item, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) CreatePart(ctx context.Context, item PartItem) (PartItem, error) {
	query := `
		INSERT INTO catalog_parts (code, brand, department, price, cost_price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING ` + partColumns
	created, err := scanPart(r.pool.QueryRow(ctx, query,
		item.Code, item.Brand, item.Department, item.Price, item.CostPrice, item.Stock))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return PartItem{}, fmt.Errorf("%w: part code %s", httpx.ErrDuplicate, item.Code)
		}
		return PartItem{}, err
	}
	return created, nil
}

func (r *repository) UpdatePart(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "catalog_parts", id, updates)
}

func (r *repository) ListPartsBelowStock(ctx context.Context, threshold int) ([]PartItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_parts WHERE is_active AND stock <= $1 ORDER BY stock, code`, partColumns)
	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PartItem
	for rows.Next() {
		item, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) update(ctx context.Context, table string, id int64, updates map[string]any) error {
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

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, table, strings.Join(setClauses, ", "), argPos)

	cmdTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
