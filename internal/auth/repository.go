package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velodesk/velodesk/internal/shared"
)

// Repository reads mechanic accounts.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (Mechanic, error)
	GetByID(ctx context.Context, id string) (Mechanic, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new auth repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const mechanicColumns = `id, username, name, password_hash, is_active, created_at, updated_at`

func scanMechanic(row pgx.Row) (Mechanic, error) {
	var m Mechanic
	err := row.Scan(&m.ID, &m.Username, &m.Name, &m.PasswordHash, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) GetByUsername(ctx context.Context, username string) (Mechanic, error) {
	query := `SELECT ` + mechanicColumns + ` FROM mechanics WHERE username = $1`
	m, err := scanMechanic(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mechanic{}, shared.ErrNotFound
		}
		return Mechanic{}, err
	}
	return m, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (Mechanic, error) {
	query := `SELECT ` + mechanicColumns + ` FROM mechanics WHERE id = $1`
	m, err := scanMechanic(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mechanic{}, shared.ErrNotFound
		}
		return Mechanic{}, err
	}
	return m, nil
}
