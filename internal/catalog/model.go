// Package catalog holds the workshop's priced services and stocked parts.
package catalog

import "time"

// ServiceItem is a fixed-price labor entry in the catalog.
type ServiceItem struct {
	ID          int64     `json:"id" db:"id"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PartItem is a priced, stocked component. Stock is mutated only through
// the stock ledger, never by catalog writes.
type PartItem struct {
	ID         int64     `json:"id" db:"id"`
	Code       string    `json:"code" db:"code"`
	Brand      string    `json:"brand" db:"brand"`
	Department string    `json:"department" db:"department"`
	Price      float64   `json:"price" db:"price"`
	CostPrice  float64   `json:"cost_price" db:"cost_price"`
	Stock      int       `json:"stock" db:"stock"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page       int
	Limit      int
	Search     string
	Department string
	IsActive   *bool
}
