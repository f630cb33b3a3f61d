// Package masterdata manages the shop's reference records: the clients
// who bring bicycles in and the bicycles themselves.
package masterdata

import "time"

// Client is a customer of the shop.
type Client struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email,omitempty" db:"email"`
	Address   string    `json:"address,omitempty" db:"address"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Bicycle belongs to a client and is the subject of work orders.
type Bicycle struct {
	ID           int64     `json:"id" db:"id"`
	ClientID     int64     `json:"client_id" db:"client_id"`
	Brand        string    `json:"brand" db:"brand"`
	Model        string    `json:"model" db:"model"`
	Color        string    `json:"color,omitempty" db:"color"`
	SerialNumber string    `json:"serial_number,omitempty" db:"serial_number"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilters narrows client listings.
type ListFilters struct {
	Search string
	Page   int
	Limit  int
}
