package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velodesk/velodesk/internal/platform/httpx"
)

type memoryRepo struct {
	nextService int64
	nextPart    int64
	services    map[int64]ServiceItem
	parts       map[int64]PartItem
	updates     []map[string]any
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextService: 1,
		nextPart:    1,
		services:    make(map[int64]ServiceItem),
		parts:       make(map[int64]PartItem),
	}
}

func (r *memoryRepo) ListServices(_ context.Context, _ ListFilters) ([]ServiceItem, int, error) {
	var out []ServiceItem
	for _, s := range r.services {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetService(_ context.Context, id int64) (ServiceItem, error) {
	s, ok := r.services[id]
	if !ok {
		return ServiceItem{}, httpx.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) CreateService(_ context.Context, item ServiceItem) (ServiceItem, error) {
	item.ID = r.nextService
	item.IsActive = true
	r.nextService++
	r.services[item.ID] = item
	return item, nil
}

func (r *memoryRepo) UpdateService(_ context.Context, id int64, updates map[string]any) error {
	if _, ok := r.services[id]; !ok {
		return httpx.ErrNotFound
	}
	r.updates = append(r.updates, updates)
	return nil
}

func (r *memoryRepo) ListParts(_ context.Context, _ ListFilters) ([]PartItem, int, error) {
	var out []PartItem
	for _, p := range r.parts {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetPart(_ context.Context, id int64) (PartItem, error) {
	p, ok := r.parts[id]
	if !ok {
		return PartItem{}, httpx.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) GetPartsByIDs(_ context.Context, ids []int64) ([]PartItem, error) {
	var out []PartItem
	for _, id := range ids {
		if p, ok := r.parts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) CreatePart(_ context.Context, item PartItem) (PartItem, error) {
	for _, p := range r.parts {
		if p.Code == item.Code {
			return PartItem{}, httpx.ErrDuplicate
		}
	}
	item.ID = r.nextPart
	item.IsActive = true
	r.nextPart++
	r.parts[item.ID] = item
	return item, nil
}

func (r *memoryRepo) UpdatePart(_ context.Context, id int64, updates map[string]any) error {
	if _, ok := r.parts[id]; !ok {
		return httpx.ErrNotFound
	}
	r.updates = append(r.updates, updates)
	return nil
}

func (r *memoryRepo) ListPartsBelowStock(_ context.Context, threshold int) ([]PartItem, error) {
	var out []PartItem
	for _, p := range r.parts {
		if p.IsActive && p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestCreateServiceValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateService(ctx, CreateServiceRequest{Description: "  ", Price: 10})
	require.Error(t, err)

	_, err = svc.CreateService(ctx, CreateServiceRequest{Description: "Tune-up", Price: 0})
	require.Error(t, err)

	item, err := svc.CreateService(ctx, CreateServiceRequest{Description: " Tune-up ", Price: 45})
	require.NoError(t, err)
	require.Equal(t, "Tune-up", item.Description)
	require.True(t, item.IsActive)
}

func TestCreatePartInitialStock(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreatePart(ctx, CreatePartRequest{Code: "CH-X11", Price: 30, InitialStock: -1})
	require.Error(t, err)

	part, err := svc.CreatePart(ctx, CreatePartRequest{Code: "CH-X11", Price: 30, InitialStock: 8})
	require.NoError(t, err)
	require.Equal(t, 8, part.Stock)

	_, err = svc.CreatePart(ctx, CreatePartRequest{Code: "CH-X11", Price: 30})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdatePartCannotTouchStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	part, err := svc.CreatePart(ctx, CreatePartRequest{Code: "BP-R55", Price: 12.9, InitialStock: 5})
	require.NoError(t, err)

	price := 14.5
	require.NoError(t, svc.UpdatePart(ctx, part.ID, UpdatePartRequest{Price: &price}))

	// The update map can only carry master data fields; stock has no
	// path through here.
	require.Len(t, repo.updates, 1)
	_, hasStock := repo.updates[0]["stock"]
	require.False(t, hasStock)
}

func TestListPartsBelowStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreatePart(ctx, CreatePartRequest{Code: "A", Price: 1, InitialStock: 2})
	require.NoError(t, err)
	_, err = svc.CreatePart(ctx, CreatePartRequest{Code: "B", Price: 1, InitialStock: 9})
	require.NoError(t, err)

	low, err := svc.ListPartsBelowStock(ctx, 3)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "A", low[0].Code)
}
