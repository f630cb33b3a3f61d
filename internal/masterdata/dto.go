package masterdata

// CreateClientRequest registers a new client.
type CreateClientRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// UpdateClientRequest updates client fields.
type UpdateClientRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CreateBicycleRequest registers a bicycle under a client.
type CreateBicycleRequest struct {
	ClientID     int64  `json:"client_id" validate:"required,gt=0"`
	Brand        string `json:"brand" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Color        string `json:"color"`
	SerialNumber string `json:"serial_number"`
}

// UpdateBicycleRequest updates bicycle fields.
type UpdateBicycleRequest struct {
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	Color        *string `json:"color,omitempty"`
	SerialNumber *string `json:"serial_number,omitempty"`
}
