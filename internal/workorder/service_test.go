package workorder

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/stock"
)

// memoryRepo keeps full aggregates in memory. Its tx wrapper mutates
// the store directly; the service's guard-then-write flow is what the
// tests exercise, not transactional rollback.
type memoryRepo struct {
	nextID int64
	orders map[int64]*WorkOrder
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, orders: make(map[int64]*WorkOrder)}
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func cloneOrder(o *WorkOrder) *WorkOrder {
	c := *o
	c.Services = cloneLines(o.Services)
	c.Parts = cloneLines(o.Parts)
	c.OriginalServices = cloneLines(o.OriginalServices)
	c.OriginalParts = cloneLines(o.OriginalParts)
	if o.Quote != nil {
		q := *o.Quote
		c.Quote = &q
	}
	return &c
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*WorkOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *memoryRepo) List(_ context.Context, req ListRequest) ([]WithDetails, int, error) {
	var out []WithDetails
	for _, o := range r.orders {
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		out = append(out, WithDetails{WorkOrder: *cloneOrder(o)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *memoryRepo) CountByStatus(_ context.Context) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, o := range r.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (r *memoryRepo) Create(_ context.Context, order WorkOrder) (int64, error) {
	id := r.nextID
	r.nextID++
	order.ID = id
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[id] = &order
	return id, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) UpdateWorkOrder(_ context.Context, id int64, updates map[string]any) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "status":
			o.Status = value.(Status)
		case "mechanic_id":
			o.MechanicID = value.(string)
		case "original_amount":
			o.OriginalAmount = value.(float64)
		case "needs_quote":
			o.NeedsQuote = value.(bool)
		case "total_amount":
			o.TotalAmount = value.(float64)
		case "mechanic_notes":
			notes := value.(string)
			o.MechanicNotes = &notes
		case "started_at":
			at := value.(time.Time)
			o.StartedAt = &at
		case "completed_at":
			at := value.(time.Time)
			o.CompletedAt = &at
		case "delivered_at":
			at := value.(time.Time)
			o.DeliveredAt = &at
		case "estimated_delivery_date":
			at := value.(time.Time)
			o.EstimatedDeliveryDate = &at
		}
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) ReplaceLines(_ context.Context, orderID int64, lines []Line) error {
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Services = nil
	o.Parts = nil
	for _, l := range lines {
		if l.Kind == KindService {
			o.Services = append(o.Services, l)
		} else {
			o.Parts = append(o.Parts, l)
		}
	}
	return nil
}

func (r *memoryRepo) InsertBaselineLines(_ context.Context, orderID int64, lines []Line) error {
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	for _, l := range lines {
		if l.Kind == KindService {
			o.OriginalServices = append(o.OriginalServices, l)
		} else {
			o.OriginalParts = append(o.OriginalParts, l)
		}
	}
	return nil
}

func (r *memoryRepo) UpsertQuote(_ context.Context, quote Quote) error {
	o, ok := r.orders[quote.WorkOrderID]
	if !ok {
		return ErrNotFound
	}
	o.Quote = &quote
	return nil
}

func (r *memoryRepo) DeleteQuote(_ context.Context, orderID int64) error {
	if o, ok := r.orders[orderID]; ok {
		o.Quote = nil
	}
	return nil
}

func (r *memoryRepo) DeleteWorkOrder(_ context.Context, orderID int64) error {
	if _, ok := r.orders[orderID]; !ok {
		return ErrNotFound
	}
	delete(r.orders, orderID)
	return nil
}

// fakeLedger validates and applies batches against an in-memory stock
// table with the same all-or-nothing semantics as the real one.
type fakeLedger struct {
	stocks  map[int64]int
	batches []stock.Batch
}

func (f *fakeLedger) Apply(_ context.Context, batch stock.Batch) error {
	if len(batch.Deltas) == 0 {
		return stock.ErrEmptyBatch
	}
	for _, d := range batch.Deltas {
		current, ok := f.stocks[d.PartID]
		if !ok {
			return stock.ErrPartNotFound
		}
		if current-d.QtyChange < 0 {
			return &stock.InsufficientStockError{PartID: d.PartID, Available: current}
		}
	}
	for _, d := range batch.Deltas {
		f.stocks[d.PartID] -= d.QtyChange
	}
	f.batches = append(f.batches, batch)
	return nil
}

// fakeCatalog serves pricing from fixed maps and stock levels straight
// from the ledger's table, like the real catalog reads catalog_parts.
type fakeCatalog struct {
	services map[int64]catalog.ServiceItem
	parts    map[int64]catalog.PartItem
	ledger   *fakeLedger
}

func (f *fakeCatalog) GetService(_ context.Context, id int64) (catalog.ServiceItem, error) {
	s, ok := f.services[id]
	if !ok {
		return catalog.ServiceItem{}, ErrUnknownCatalogItem
	}
	return s, nil
}

func (f *fakeCatalog) GetPartsByIDs(_ context.Context, ids []int64) ([]catalog.PartItem, error) {
	var out []catalog.PartItem
	for _, id := range ids {
		p, ok := f.parts[id]
		if !ok {
			continue
		}
		p.Stock = f.ledger.stocks[id]
		out = append(out, p)
	}
	return out, nil
}

type fixture struct {
	repo    *memoryRepo
	ledger  *fakeLedger
	service *Service
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	ledger := &fakeLedger{stocks: map[int64]int{10: 5, 11: 2}}
	cat := &fakeCatalog{
		services: map[int64]catalog.ServiceItem{
			1: {ID: 1, Description: "Full tune-up", Price: 45},
			2: {ID: 2, Description: "Brake adjustment", Price: 20},
		},
		parts: map[int64]catalog.PartItem{
			10: {ID: 10, Code: "CH-X11", Brand: "Shimano", Price: 32.5},
			11: {ID: 11, Code: "TI-700C", Brand: "Continental", Price: 40},
		},
		ledger: ledger,
	}
	svc := NewService(repo, ledger, cat, nil, nil, nil)
	return &fixture{repo: repo, ledger: ledger, service: svc}
}

// keepAll builds the edit inputs that re-state the order's current lines.
func keepAll(order *WorkOrder) CommitEditRequest {
	var req CommitEditRequest
	for _, l := range order.Services {
		req.Services = append(req.Services, LineInput{LineID: l.ID, CatalogID: l.CatalogID, Quantity: l.Quantity})
	}
	for _, l := range order.Parts {
		req.Parts = append(req.Parts, LineInput{LineID: l.ID, CatalogID: l.CatalogID, Quantity: l.Quantity})
	}
	return req
}

func TestWorkOrderLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1, AdvancePayment: 20})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, order.Status)
	require.Empty(t, order.Services)

	// Compose the agreed scope while still open.
	req := CommitEditRequest{
		Services: []LineInput{{CatalogID: 1, Quantity: 1}},
		Parts:    []LineInput{{CatalogID: 10, Quantity: 2}},
	}
	order, err = f.service.CommitEdit(ctx, order.ID, req)
	require.NoError(t, err)
	require.Equal(t, 110.0, order.TotalAmount)
	require.False(t, order.NeedsQuote)
	require.Equal(t, 3, f.ledger.stocks[10])

	order, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m1"})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, order.Status)
	require.Equal(t, "m1", order.MechanicID)
	require.Equal(t, 110.0, order.OriginalAmount)
	require.Len(t, order.OriginalServices, 1)
	require.Len(t, order.OriginalParts, 1)
	require.NotNil(t, order.StartedAt)

	// Mid-repair the mechanic finds extra work.
	extra := keepAll(order)
	extra.Services = append(extra.Services, LineInput{CatalogID: 2, Quantity: 1})
	order, err = f.service.CommitEdit(ctx, order.ID, extra)
	require.NoError(t, err)
	require.True(t, order.NeedsQuote)
	require.NotNil(t, order.Quote)
	require.Equal(t, QuoteStatusPending, order.Quote.Status)
	require.Equal(t, 130.0, order.TotalAmount)

	// Completion is blocked until the client answers.
	_, err = f.service.Complete(ctx, order.ID)
	require.ErrorIs(t, err, ErrQuoteUnresolved)

	order, err = f.service.SendQuote(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, QuoteStatusSent, order.Quote.Status)
	require.NotNil(t, order.Quote.SentAt)

	_, err = f.service.Complete(ctx, order.ID)
	require.ErrorIs(t, err, ErrQuoteUnresolved)

	// Find the additional line id.
	var extraLineID string
	baseline := map[string]bool{}
	for _, l := range order.OriginalServices {
		baseline[l.ID] = true
	}
	for _, l := range order.Services {
		if !baseline[l.ID] {
			extraLineID = l.ID
		}
	}
	require.NotEmpty(t, extraLineID)

	// Rejecting a baseline line is refused.
	_, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{
		Outcome:       QuoteStatusPartialReject,
		RejectedItems: &RejectedItems{Services: []string{order.OriginalServices[0].ID}},
	})
	require.ErrorIs(t, err, ErrRejectedNotAdditional)

	order, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{
		Outcome:       QuoteStatusPartialReject,
		RejectedItems: &RejectedItems{Services: []string{extraLineID}},
	})
	require.NoError(t, err)
	require.Equal(t, QuoteStatusPartialReject, order.Quote.Status)
	require.Equal(t, 110.0, order.TotalAmount)

	order, err = f.service.Complete(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReadyForDelivery, order.Status)
	require.NotNil(t, order.CompletedAt)

	order, err = f.service.Deliver(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, order.Status)
	require.NotNil(t, order.DeliveredAt)

	_, err = f.service.CommitEdit(ctx, order.ID, keepAll(order))
	require.ErrorIs(t, err, ErrCannotEdit)
}

func TestStartGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)

	_, err = f.service.Start(ctx, order.ID, StartRequest{})
	require.ErrorIs(t, err, ErrMechanicRequired)

	_, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m1"})
	require.NoError(t, err)

	// The baseline freezes once; a second start is refused.
	_, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m2"})
	require.ErrorIs(t, err, ErrCannotStart)

	_, err = f.service.Complete(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.Deliver(ctx, order.ID)
	require.ErrorIs(t, err, ErrCannotDeliver)
}

func TestCommitEditInsufficientStockChangesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)

	// Part 11 has stock 2; asking for 3 must fail and leave the order
	// and the stock untouched.
	_, err = f.service.CommitEdit(ctx, order.ID, CommitEditRequest{
		Parts: []LineInput{{CatalogID: 11, Quantity: 3}},
	})
	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(11), insufficient.PartID)

	order, err = f.service.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, order.Parts)
	require.Equal(t, 2, f.ledger.stocks[11])
}

func TestQuoteDroppedWhenBackAtBaseline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)
	order, err = f.service.CommitEdit(ctx, order.ID, CommitEditRequest{
		Services: []LineInput{{CatalogID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	order, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m1"})
	require.NoError(t, err)

	extra := keepAll(order)
	extra.Services = append(extra.Services, LineInput{CatalogID: 2, Quantity: 1})
	order, err = f.service.CommitEdit(ctx, order.ID, extra)
	require.NoError(t, err)
	require.True(t, order.NeedsQuote)
	require.NotNil(t, order.Quote)

	// Removing the extra line before the quote is sent drops it again.
	var back CommitEditRequest
	for _, l := range order.OriginalServices {
		back.Services = append(back.Services, LineInput{LineID: l.ID, CatalogID: l.CatalogID, Quantity: l.Quantity})
	}
	order, err = f.service.CommitEdit(ctx, order.ID, back)
	require.NoError(t, err)
	require.False(t, order.NeedsQuote)
	require.Nil(t, order.Quote)

	_, err = f.service.SendQuote(ctx, order.ID)
	require.ErrorIs(t, err, ErrQuoteNotNeeded)
}

func TestQuoteRejectedBillsOriginalAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)
	order, err = f.service.CommitEdit(ctx, order.ID, CommitEditRequest{
		Services: []LineInput{{CatalogID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	order, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m1"})
	require.NoError(t, err)

	extra := keepAll(order)
	extra.Parts = append(extra.Parts, LineInput{CatalogID: 10, Quantity: 2})
	order, err = f.service.CommitEdit(ctx, order.ID, extra)
	require.NoError(t, err)
	require.Equal(t, 110.0, order.TotalAmount)

	_, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{Outcome: QuoteStatusRejected})
	require.ErrorIs(t, err, ErrQuoteNotSent)

	_, err = f.service.SendQuote(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{Outcome: "maybe"})
	require.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{Outcome: QuoteStatusPartialReject})
	require.ErrorIs(t, err, ErrRejectedItemsEmpty)

	order, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{Outcome: QuoteStatusRejected})
	require.NoError(t, err)
	require.Equal(t, 45.0, order.TotalAmount)
	// Rejected lines stay on the order for the record.
	require.Len(t, order.Parts, 1)

	// A resolved quote cannot be sent or answered again.
	_, err = f.service.SendQuote(ctx, order.ID)
	require.ErrorIs(t, err, ErrQuoteAlreadySent)
	_, err = f.service.RespondToQuote(ctx, order.ID, RespondQuoteRequest{Outcome: QuoteStatusApproved})
	require.ErrorIs(t, err, ErrQuoteNotSent)
}

func TestDeleteRestocksParts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)
	order, err = f.service.CommitEdit(ctx, order.ID, CommitEditRequest{
		Parts: []LineInput{{CatalogID: 10, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.ledger.stocks[10])

	require.NoError(t, f.service.Delete(ctx, order.ID))
	require.Equal(t, 5, f.ledger.stocks[10])

	_, err = f.service.Get(ctx, order.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCompletedOrderRefused(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)
	_, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m1"})
	require.NoError(t, err)
	_, err = f.service.Complete(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.service.Deliver(ctx, order.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.service.Delete(ctx, order.ID), ErrCannotDelete)
}
