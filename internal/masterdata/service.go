package masterdata

import (
	"context"
	"errors"
	"strings"
)

// Service coordinates client and bicycle operations.
type Service struct {
	repo Repository
}

// NewService creates a new masterdata service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListClients returns clients matching the filters.
func (s *Service) ListClients(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	return s.repo.ListClients(ctx, filters)
}

// GetClient returns one client.
func (s *Service) GetClient(ctx context.Context, id int64) (Client, error) {
	if id <= 0 {
		return Client{}, errors.New("masterdata: invalid client id")
	}
	return s.repo.GetClient(ctx, id)
}

// CreateClient registers a new client.
func (s *Service) CreateClient(ctx context.Context, req CreateClientRequest) (Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Client{}, errors.New("masterdata: name required")
	}
	return s.repo.CreateClient(ctx, Client{
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	})
}

// UpdateClient updates client fields.
func (s *Service) UpdateClient(ctx context.Context, id int64, req UpdateClientRequest) error {
	if id <= 0 {
		return errors.New("masterdata: invalid client id")
	}
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	return s.repo.UpdateClient(ctx, id, updates)
}

// ListBicycles returns a client's bicycles.
func (s *Service) ListBicycles(ctx context.Context, clientID int64) ([]Bicycle, error) {
	if clientID <= 0 {
		return nil, errors.New("masterdata: invalid client id")
	}
	return s.repo.ListBicycles(ctx, clientID)
}

// GetBicycle returns one bicycle.
func (s *Service) GetBicycle(ctx context.Context, id int64) (Bicycle, error) {
	if id <= 0 {
		return Bicycle{}, errors.New("masterdata: invalid bicycle id")
	}
	return s.repo.GetBicycle(ctx, id)
}

// CreateBicycle registers a bicycle. The owning client must exist.
func (s *Service) CreateBicycle(ctx context.Context, req CreateBicycleRequest) (Bicycle, error) {
	if _, err := s.repo.GetClient(ctx, req.ClientID); err != nil {
		return Bicycle{}, err
	}
	return s.repo.CreateBicycle(ctx, Bicycle{
		ClientID:     req.ClientID,
		Brand:        strings.TrimSpace(req.Brand),
		Model:        strings.TrimSpace(req.Model),
		Color:        strings.TrimSpace(req.Color),
		SerialNumber: strings.TrimSpace(req.SerialNumber),
	})
}

// UpdateBicycle updates bicycle fields.
func (s *Service) UpdateBicycle(ctx context.Context, id int64, req UpdateBicycleRequest) error {
	if id <= 0 {
		return errors.New("masterdata: invalid bicycle id")
	}
	updates := make(map[string]any)
	if req.Brand != nil {
		updates["brand"] = strings.TrimSpace(*req.Brand)
	}
	if req.Model != nil {
		updates["model"] = strings.TrimSpace(*req.Model)
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
	}
	if req.SerialNumber != nil {
		updates["serial_number"] = strings.TrimSpace(*req.SerialNumber)
	}
	return s.repo.UpdateBicycle(ctx, id, updates)
}
