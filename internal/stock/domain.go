// Package stock applies signed quantity deltas to part inventory as
// all-or-nothing batches. It is the only code path allowed to mutate
// catalog_parts.stock.
package stock

import (
	"errors"
	"fmt"
	"time"
)

// Delta is one signed stock change for a part. A positive QtyChange is
// consumption (stock decreases); a negative QtyChange is a restock.
type Delta struct {
	PartID    int64
	QtyChange int
}

// Batch groups the deltas of one commit so they succeed or fail together.
type Batch struct {
	RefModule string
	RefID     string
	Note      string
	ActorID   string
	Deltas    []Delta
}

// Movement is a journal entry recorded for every applied delta.
type Movement struct {
	ID         int64     `json:"id" db:"id"`
	PartID     int64     `json:"part_id" db:"part_id"`
	QtyChange  int       `json:"qty_change" db:"qty_change"`
	StockAfter int       `json:"stock_after" db:"stock_after"`
	RefModule  string    `json:"ref_module" db:"ref_module"`
	RefID      string    `json:"ref_id" db:"ref_id"`
	Note       string    `json:"note,omitempty" db:"note"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// InsufficientStockError names the first part whose stock would go
// negative and how much is actually available.
type InsufficientStockError struct {
	PartID    int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock: insufficient stock for part %d (available %d)", e.PartID, e.Available)
}

// Batch validation errors.
var (
	ErrEmptyBatch    = errors.New("stock: batch has no deltas")
	ErrDuplicatePart = errors.New("stock: batch names the same part twice")
	ErrZeroDelta     = errors.New("stock: delta must be non-zero")
	ErrPartNotFound  = errors.New("stock: part not found")
)
