package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velodesk/velodesk/internal/platform/httpx"
)

// Repository defines persistence for clients and bicycles.
type Repository interface {
	ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error)
	GetClient(ctx context.Context, id int64) (Client, error)
	CreateClient(ctx context.Context, client Client) (Client, error)
	UpdateClient(ctx context.Context, id int64, updates map[string]any) error

	ListBicycles(ctx context.Context, clientID int64) ([]Bicycle, error)
	GetBicycle(ctx context.Context, id int64) (Bicycle, error)
	CreateBicycle(ctx context.Context, bicycle Bicycle) (Bicycle, error)
	UpdateBicycle(ctx context.Context, id int64, updates map[string]any) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new masterdata repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, name, phone, email, address, is_active, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argPos := 1

	if filters.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM clients WHERE %s`, whereClause)
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

	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Client
	for rows.Next() {
		item, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *repository) GetClient(ctx context.Context, id int64) (Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)
	client, err := scanClient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, httpx.ErrNotFound
		}
		return Client{}, err
	}
	return client, nil
}

func (r *repository) CreateClient(ctx context.Context, client Client) (Client, error) {
	query := `
		INSERT INTO clients (name, phone, email, address, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING ` + clientColumns
	return scanClient(r.pool.QueryRow(ctx, query, client.Name, client.Phone, client.Email, client.Address))
}

func (r *repository) UpdateClient(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "clients", id, updates)
}

const bicycleColumns = `id, client_id, brand, model, color, serial_number, created_at, updated_at`

func scanBicycle(row pgx.Row) (Bicycle, error) {
	var b Bicycle
	err := row.Scan(&b.ID, &b.ClientID, &b.Brand, &b.Model, &b.Color, &b.SerialNumber, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) ListBicycles(ctx context.Context, clientID int64) ([]Bicycle, error) {
	query := fmt.Sprintf(`SELECT %s FROM bicycles WHERE client_id = $1 ORDER BY brand, model`, bicycleColumns)
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Bicycle
	for rows.Next() {
		item, err := scanBicycle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) GetBicycle(ctx context.Context, id int64) (Bicycle, error) {
	query := fmt.Sprintf(`SELECT %s FROM bicycles WHERE id = $1`, bicycleColumns)
	bicycle, err := scanBicycle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bicycle{}, httpx.ErrNotFound
		}
		return Bicycle{}, err
	}
	return bicycle, nil
}

func (r *repository) CreateBicycle(ctx context.Context, bicycle Bicycle) (Bicycle, error) {
	query := `
		INSERT INTO bicycles (client_id, brand, model, color, serial_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bicycleColumns
	return scanBicycle(r.pool.QueryRow(ctx, query,
		bicycle.ClientID, bicycle.Brand, bicycle.Model, bicycle.Color, bicycle.SerialNumber))
}

func (r *repository) UpdateBicycle(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "bicycles", id, updates)
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
