// Command seed creates the Velodesk schema and loads development data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/velodesk/velodesk/internal/app"
	"github.com/velodesk/velodesk/internal/platform/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS mechanics (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bicycles (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		brand TEXT NOT NULL,
		model TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		serial_number TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_services (
		id BIGSERIAL PRIMARY KEY,
		description TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_parts (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		brand TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL,
		cost_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id BIGSERIAL PRIMARY KEY,
		part_id BIGINT NOT NULL REFERENCES catalog_parts(id),
		qty_change INTEGER NOT NULL,
		stock_after INTEGER NOT NULL,
		ref_module TEXT NOT NULL DEFAULT '',
		ref_id TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		actor_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_part ON stock_movements (part_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		bicycle_id BIGINT NOT NULL REFERENCES bicycles(id),
		status TEXT NOT NULL DEFAULT 'open',
		needs_quote BOOLEAN NOT NULL DEFAULT FALSE,
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		original_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		advance_payment NUMERIC(12,2) NOT NULL DEFAULT 0,
		mechanic_id TEXT NOT NULL DEFAULT '',
		mechanic_notes TEXT,
		estimated_delivery_date TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		delivered_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_status ON work_orders (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS work_order_lines (
		id TEXT PRIMARY KEY,
		work_order_id BIGINT NOT NULL REFERENCES work_orders(id),
		kind TEXT NOT NULL,
		catalog_id BIGINT NOT NULL,
		description TEXT NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_order_lines_order ON work_order_lines (work_order_id)`,
	`CREATE TABLE IF NOT EXISTS work_order_baseline_lines (
		id TEXT PRIMARY KEY,
		work_order_id BIGINT NOT NULL REFERENCES work_orders(id),
		kind TEXT NOT NULL,
		catalog_id BIGINT NOT NULL,
		description TEXT NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_order_baseline_lines_order ON work_order_baseline_lines (work_order_id)`,
	`CREATE TABLE IF NOT EXISTS work_order_quotes (
		work_order_id BIGINT PRIMARY KEY REFERENCES work_orders(id),
		status TEXT NOT NULL DEFAULT 'pending',
		sent_at TIMESTAMPTZ,
		responded_at TIMESTAMPTZ,
		client_response TEXT,
		rejected_service_lines TEXT[] NOT NULL DEFAULT '{}',
		rejected_part_lines TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		key TEXT NOT NULL,
		module TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (key, module)
	)`,
}

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		fail(err)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		fail(err)
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			fail(err)
		}
	}
	fmt.Println("schema ready")

	for _, m := range []struct{ username, name, password string }{
		{"marco", "Marco Ruiz", "taller123"},
		{"lucia", "Lucía Fernández", "taller123"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(m.password), bcrypt.DefaultCost)
		if err != nil {
			fail(err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO mechanics (id, username, name, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING`,
			uuid.NewString(), m.username, m.name, string(hash))
		if err != nil {
			fail(err)
		}
	}

	var clientID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO clients (name, phone, email, address)
		VALUES ('Ana Torres', '+34 600 111 222', 'ana@example.com', 'Calle Mayor 5')
		RETURNING id`).Scan(&clientID)
	if err == nil {
		_, _ = pool.Exec(ctx, `
			INSERT INTO bicycles (client_id, brand, model, color)
			VALUES ($1, 'Orbea', 'Terra H30', 'green')`, clientID)
	}

	for _, s := range []struct {
		description string
		price       float64
	}{
		{"Full tune-up", 45.00},
		{"Brake adjustment", 15.00},
		{"Wheel truing", 20.00},
		{"Drivetrain cleaning", 25.00},
	} {
		_, _ = pool.Exec(ctx, `INSERT INTO catalog_services (description, price) VALUES ($1, $2)`, s.description, s.price)
	}

	for _, p := range []struct {
		code, brand, department string
		price, cost             float64
		stock                   int
	}{
		{"CH-X11", "Shimano", "drivetrain", 32.50, 21.00, 8},
		{"BP-R55", "Shimano", "brakes", 12.90, 7.40, 15},
		{"TI-700C", "Continental", "wheels", 39.95, 24.00, 6},
		{"CB-105", "Shimano", "drivetrain", 28.00, 17.50, 4},
	} {
		_, _ = pool.Exec(ctx, `
			INSERT INTO catalog_parts (code, brand, department, price, cost_price, stock)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (code) DO NOTHING`,
			p.code, p.brand, p.department, p.price, p.cost, p.stock)
	}

	fmt.Println("seed data loaded")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "seed:", err)
	os.Exit(1)
}
