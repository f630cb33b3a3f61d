package catalog

// CreateServiceRequest represents a request to add a labor service.
type CreateServiceRequest struct {
	Description string  `json:"description" validate:"required,max=300"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

// UpdateServiceRequest updates a labor service.
type UpdateServiceRequest struct {
	Description *string  `json:"description,omitempty" validate:"omitempty,max=300"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// CreatePartRequest represents a request to add a part.
type CreatePartRequest struct {
	Code         string  `json:"code" validate:"required,max=60"`
	Brand        string  `json:"brand" validate:"required,max=120"`
	Department   string  `json:"department" validate:"required,max=120"`
	Price        float64 `json:"price" validate:"required,gt=0"`
	CostPrice    float64 `json:"cost_price" validate:"gte=0"`
	InitialStock int     `json:"initial_stock" validate:"gte=0"`
}

// UpdatePartRequest updates part master data. Stock is intentionally
// absent: stock changes go through the ledger.
type UpdatePartRequest struct {
	Brand      *string  `json:"brand,omitempty" validate:"omitempty,max=120"`
	Department *string  `json:"department,omitempty" validate:"omitempty,max=120"`
	Price      *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	CostPrice  *float64 `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	IsActive   *bool    `json:"is_active,omitempty"`
}
