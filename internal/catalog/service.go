package catalog

import (
	"context"
	"errors"
	"strings"
)

// Stock updates are owned by the stock ledger; the catalog service only
// exposes master data writes.
var ErrStockReadOnly = errors.New("catalog: stock is managed by the stock ledger")

// Service coordinates catalog operations.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListServices returns labor services matching the filters.
func (s *Service) ListServices(ctx context.Context, filters ListFilters) ([]ServiceItem, int, error) {
	return s.repo.ListServices(ctx, filters)
}

// GetService returns one labor service.
func (s *Service) GetService(ctx context.Context, id int64) (ServiceItem, error) {
	if id <= 0 {
		return ServiceItem{}, errors.New("catalog: invalid service id")
	}
	return s.repo.GetService(ctx, id)
}

// CreateService adds a labor service to the catalog.
func (s *Service) CreateService(ctx context.Context, req CreateServiceRequest) (ServiceItem, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return ServiceItem{}, errors.New("catalog: description required")
	}
	if req.Price <= 0 {
		return ServiceItem{}, errors.New("catalog: price must be positive")
	}
	return s.repo.CreateService(ctx, ServiceItem{Description: description, Price: req.Price})
}

// UpdateService updates a labor service.
func (s *Service) UpdateService(ctx context.Context, id int64, req UpdateServiceRequest) error {
	if id <= 0 {
		return errors.New("catalog: invalid service id")
	}
	updates := make(map[string]any)
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	return s.repo.UpdateService(ctx, id, updates)
}

// ListParts returns parts matching the filters.
func (s *Service) ListParts(ctx context.Context, filters ListFilters) ([]PartItem, int, error) {
	return s.repo.ListParts(ctx, filters)
}

// GetPart returns one part.
func (s *Service) GetPart(ctx context.Context, id int64) (PartItem, error) {
	if id <= 0 {
		return PartItem{}, errors.New("catalog: invalid part id")
	}
	return s.repo.GetPart(ctx, id)
}

// GetPartsByIDs returns the parts for the given catalog ids.
func (s *Service) GetPartsByIDs(ctx context.Context, ids []int64) ([]PartItem, error) {
	return s.repo.GetPartsByIDs(ctx, ids)
}

// CreatePart adds a part to the catalog. InitialStock seeds the opening
// balance; afterwards stock only moves through the ledger.
func (s *Service) CreatePart(ctx context.Context, req CreatePartRequest) (PartItem, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return PartItem{}, errors.New("catalog: code required")
	}
	if req.Price <= 0 {
		return PartItem{}, errors.New("catalog: price must be positive")
	}
	if req.InitialStock < 0 {
		return PartItem{}, errors.New("catalog: initial stock cannot be negative")
	}
	return s.repo.CreatePart(ctx, PartItem{
		Code:       code,
		Brand:      strings.TrimSpace(req.Brand),
		Department: strings.TrimSpace(req.Department),
		Price:      req.Price,
		CostPrice:  req.CostPrice,
		Stock:      req.InitialStock,
	})
}

// UpdatePart updates part master data. Stock is rejected here by
// construction: the DTO carries no stock field.
func (s *Service) UpdatePart(ctx context.Context, id int64, req UpdatePartRequest) error {
	if id <= 0 {
		return errors.New("catalog: invalid part id")
	}
	updates := make(map[string]any)
	if req.Brand != nil {
		updates["brand"] = strings.TrimSpace(*req.Brand)
	}
	if req.Department != nil {
		updates["department"] = strings.TrimSpace(*req.Department)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CostPrice != nil {
		updates["cost_price"] = *req.CostPrice
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	return s.repo.UpdatePart(ctx, id, updates)
}

// ListPartsBelowStock lists active parts at or below the reorder threshold.
func (s *Service) ListPartsBelowStock(ctx context.Context, threshold int) ([]PartItem, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.repo.ListPartsBelowStock(ctx, threshold)
}
