package workorder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/shared"
	"github.com/velodesk/velodesk/internal/stock"
)

// StockApplier applies atomic stock delta batches.
type StockApplier interface {
	Apply(ctx context.Context, batch stock.Batch) error
}

// CatalogPort reads pricing and stock snapshots from the catalog.
type CatalogPort interface {
	GetService(ctx context.Context, id int64) (catalog.ServiceItem, error)
	GetPartsByIDs(ctx context.Context, ids []int64) ([]catalog.PartItem, error)
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier is told when a quote goes out to the client. Implementations
// enqueue the actual delivery; a nil notifier disables it.
type Notifier interface {
	QuoteSent(ctx context.Context, order *WorkOrder) error
}

// Service coordinates the work order lifecycle.
type Service struct {
	repo     Repository
	ledger   StockApplier
	catalog  CatalogPort
	audit    AuditPort
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a work order service. Audit and notifier may be nil.
func NewService(repo Repository, ledger StockApplier, cat CatalogPort, audit AuditPort, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, catalog: cat, audit: audit, notifier: notifier, logger: logger}
}

// Create opens a new work order in open. Initial lines, when given,
// go through the same commit path as later edits so stock is consumed
// consistently.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*WorkOrder, error) {
	order := WorkOrder{
		ClientID:              req.ClientID,
		BicycleID:             req.BicycleID,
		Status:                StatusOpen,
		AdvancePayment:        req.AdvancePayment,
		MechanicNotes:         req.MechanicNotes,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
	}
	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "workorder:create", id, nil)

	if len(req.Services) > 0 || len(req.Parts) > 0 {
		return s.CommitEdit(ctx, id, CommitEditRequest{Services: req.Services, Parts: req.Parts})
	}
	return s.repo.GetByID(ctx, id)
}

// Get returns the full aggregate.
func (s *Service) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns work orders matching the filters.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	orders, total, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResponse{}, err
	}
	return ListResponse{WorkOrders: orders, Total: total, Limit: req.Limit, Offset: req.Offset}, nil
}

// Start assigns a mechanic and moves the order from open to in_progress.
// The current line set is frozen as the baseline and its total recorded
// as the original amount. An order can only be started once.
func (s *Service) Start(ctx context.Context, id int64, req StartRequest) (*WorkOrder, error) {
	if req.MechanicID == "" {
		return nil, ErrMechanicRequired
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusOpen {
		return nil, ErrCannotStart
	}

	baseline := append(append([]Line{}, order.Services...), order.Parts...)
	originalAmount := linesTotal(order.Services) + linesTotal(order.Parts)
	now := time.Now()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertBaselineLines(ctx, id, baseline); err != nil {
			return err
		}
		return tx.UpdateWorkOrder(ctx, id, map[string]any{
			"status":          StatusInProgress,
			"mechanic_id":     req.MechanicID,
			"original_amount": originalAmount,
			"needs_quote":     false,
			"started_at":      now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "workorder:start", id, map[string]any{
		"mechanic_id":     req.MechanicID,
		"original_amount": originalAmount,
	})
	return s.repo.GetByID(ctx, id)
}

// CommitEdit replaces the order's working line set with the requested
// one. Stock deltas for part lines are reconciled through the ledger in
// one atomic batch before anything on the order changes; a rejected
// batch leaves both stock and the order untouched. After a successful
// commit the quote flag and billable total are re-derived.
func (s *Service) CommitEdit(ctx context.Context, id int64, req CommitEditRequest) (*WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanEdit() {
		return nil, ErrCannotEdit
	}

	composer, err := s.compose(ctx, order, req)
	if err != nil {
		return nil, err
	}

	newServices := composer.Services()
	newParts := composer.Parts()

	deltas := partDeltas(order.Parts, newParts)
	if len(deltas) > 0 {
		batch := stock.Batch{
			RefModule: "workorder",
			RefID:     strconv.FormatInt(id, 10),
			Note:      "work order edit",
			ActorID:   actorID(ctx),
			Deltas:    deltas,
		}
		if err := s.ledger.Apply(ctx, batch); err != nil {
			return nil, err
		}
	}

	order.Services = newServices
	order.Parts = newParts
	needsQuote, quote, dropQuote := s.deriveQuote(order)
	order.NeedsQuote = needsQuote
	if dropQuote {
		order.Quote = nil
	} else if quote != nil {
		order.Quote = quote
	}
	total := BillableTotal(order)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		allLines := append(append([]Line{}, newServices...), newParts...)
		if err := tx.ReplaceLines(ctx, id, allLines); err != nil {
			return err
		}
		updates := map[string]any{
			"needs_quote":  needsQuote,
			"total_amount": total,
		}
		if req.MechanicNotes != nil {
			updates["mechanic_notes"] = *req.MechanicNotes
		}
		if req.EstimatedDeliveryDate != nil {
			updates["estimated_delivery_date"] = *req.EstimatedDeliveryDate
		}
		if err := tx.UpdateWorkOrder(ctx, id, updates); err != nil {
			return err
		}
		if dropQuote {
			return tx.DeleteQuote(ctx, id)
		}
		if quote != nil {
			return tx.UpsertQuote(ctx, *quote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "workorder:edit", id, map[string]any{
		"needs_quote":  needsQuote,
		"total_amount": total,
	})
	return s.repo.GetByID(ctx, id)
}

// compose replays the requested line set over the order's current lines.
func (s *Service) compose(ctx context.Context, order *WorkOrder, req CommitEditRequest) (*Composer, error) {
	partIDs := make(map[int64]bool)
	for _, l := range order.Parts {
		partIDs[l.CatalogID] = true
	}
	for _, in := range req.Parts {
		partIDs[in.CatalogID] = true
	}
	ids := make([]int64, 0, len(partIDs))
	for id := range partIDs {
		ids = append(ids, id)
	}
	parts, err := s.catalog.GetPartsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	partByID := make(map[int64]catalog.PartItem, len(parts))
	for _, p := range parts {
		partByID[p.ID] = p
	}

	composer := NewComposer(order, parts)

	// Lines absent from the request are removed.
	keep := make(map[string]bool, len(req.Services)+len(req.Parts))
	for _, in := range req.Services {
		if in.LineID != "" {
			keep[in.LineID] = true
		}
	}
	for _, in := range req.Parts {
		if in.LineID != "" {
			keep[in.LineID] = true
		}
	}
	for _, l := range append(append([]Line{}, order.Services...), order.Parts...) {
		if !keep[l.ID] {
			composer.RemoveLine(l.ID)
		}
	}

	for _, in := range req.Services {
		lineID := in.LineID
		if lineID == "" {
			item, err := s.catalog.GetService(ctx, in.CatalogID)
			if err != nil {
				return nil, ErrUnknownCatalogItem
			}
			lineID = composer.AddServiceLine(item)
			if lineID == "" {
				continue
			}
		} else if _, ok := composer.Line(lineID); !ok {
			return nil, ErrLineNotFound
		}
		if in.Quantity > 0 {
			if err := composer.SetLineQuantity(lineID, in.Quantity); err != nil {
				return nil, err
			}
		}
	}

	for _, in := range req.Parts {
		lineID := in.LineID
		if lineID == "" {
			item, ok := partByID[in.CatalogID]
			if !ok {
				return nil, ErrUnknownCatalogItem
			}
			lineID = composer.AddPartLine(item)
			if lineID == "" {
				continue
			}
		} else if _, ok := composer.Line(lineID); !ok {
			return nil, ErrLineNotFound
		}
		if in.Quantity > 0 {
			if err := composer.SetLineQuantity(lineID, in.Quantity); err != nil {
				return nil, err
			}
		}
	}

	return composer, nil
}

// deriveQuote evaluates the quote flag after an edit. Additional lines
// beyond a frozen baseline require client sign-off, so a pending quote
// is materialized the moment they appear. If a later edit brings the
// line set back within the baseline before the quote went out, the
// pending record is dropped again. A sent or resolved quote is never
// touched here.
func (s *Service) deriveQuote(order *WorkOrder) (needsQuote bool, quote *Quote, dropQuote bool) {
	if order.StartedAt == nil {
		return false, nil, false
	}
	hasAdditional := len(order.AdditionalLineIDs()) > 0

	if hasAdditional {
		if order.Quote == nil {
			return true, &Quote{WorkOrderID: order.ID, Status: QuoteStatusPending}, false
		}
		return true, order.Quote, false
	}

	if order.Quote != nil && order.Quote.Status == QuoteStatusPending {
		return false, nil, true
	}
	return false, order.Quote, false
}

// SendQuote marks the pending quote as sent to the client.
func (s *Service) SendQuote(ctx context.Context, id int64) (*WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.NeedsQuote || order.Quote == nil {
		return nil, ErrQuoteNotNeeded
	}
	if order.Quote.Status != QuoteStatusPending {
		return nil, ErrQuoteAlreadySent
	}

	now := time.Now()
	quote := *order.Quote
	quote.Status = QuoteStatusSent
	quote.SentAt = &now

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpsertQuote(ctx, quote)
	})
	if err != nil {
		return nil, err
	}

	order.Quote = &quote
	if s.notifier != nil {
		if err := s.notifier.QuoteSent(ctx, order); err != nil {
			s.logger.Warn("quote notification enqueue failed", "work_order_id", id, "error", err)
		}
	}
	s.record(ctx, "workorder:quote_sent", id, nil)
	return s.repo.GetByID(ctx, id)
}

// RespondToQuote records the client's answer to a sent quote and
// recomputes the billable total. A partial rejection must name at
// least one line, and only additional lines can be named; baseline
// work was agreed before the order started and cannot be rejected.
func (s *Service) RespondToQuote(ctx context.Context, id int64, req RespondQuoteRequest) (*WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Quote == nil || order.Quote.Status != QuoteStatusSent {
		return nil, ErrQuoteNotSent
	}

	switch req.Outcome {
	case QuoteStatusApproved, QuoteStatusRejected:
	case QuoteStatusPartialReject:
		if req.RejectedItems == nil || req.RejectedItems.Empty() {
			return nil, ErrRejectedItemsEmpty
		}
		additional := order.AdditionalLineIDs()
		for _, lineID := range append(append([]string{}, req.RejectedItems.Services...), req.RejectedItems.Parts...) {
			if !additional[lineID] {
				return nil, ErrRejectedNotAdditional
			}
		}
	default:
		return nil, ErrInvalidOutcome
	}

	now := time.Now()
	quote := *order.Quote
	quote.Status = req.Outcome
	quote.RespondedAt = &now
	quote.ClientResponse = req.ClientResponse
	if req.Outcome == QuoteStatusPartialReject {
		quote.RejectedItems = *req.RejectedItems
	}

	order.Quote = &quote
	total := BillableTotal(order)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpsertQuote(ctx, quote); err != nil {
			return err
		}
		return tx.UpdateWorkOrder(ctx, id, map[string]any{"total_amount": total})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "workorder:quote_response", id, map[string]any{
		"outcome":      string(req.Outcome),
		"total_amount": total,
	})
	return s.repo.GetByID(ctx, id)
}

// Complete moves an in-progress order to ready_for_delivery. Completion
// is blocked while an additional-work quote awaits the client.
func (s *Service) Complete(ctx context.Context, id int64) (*WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusInProgress {
		return nil, ErrCannotComplete
	}
	if order.QuoteUnresolved() {
		return nil, ErrQuoteUnresolved
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateWorkOrder(ctx, id, map[string]any{
			"status":       StatusReadyForDelivery,
			"completed_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "workorder:complete", id, nil)
	return s.repo.GetByID(ctx, id)
}

// Deliver hands the bicycle back to the client and closes the order.
func (s *Service) Deliver(ctx context.Context, id int64) (*WorkOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusReadyForDelivery {
		return nil, ErrCannotDeliver
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateWorkOrder(ctx, id, map[string]any{
			"status":       StatusCompleted,
			"delivered_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, "workorder:deliver", id, nil)
	return s.repo.GetByID(ctx, id)
}

// Delete removes a not-yet-completed order. Consumed parts are returned
// to stock through the ledger before the rows go away.
func (s *Service) Delete(ctx context.Context, id int64) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == StatusCompleted {
		return ErrCannotDelete
	}

	deltas := partDeltas(order.Parts, nil)
	if len(deltas) > 0 {
		batch := stock.Batch{
			RefModule: "workorder",
			RefID:     strconv.FormatInt(id, 10),
			Note:      "work order deleted",
			ActorID:   actorID(ctx),
			Deltas:    deltas,
		}
		if err := s.ledger.Apply(ctx, batch); err != nil {
			return err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteWorkOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, "workorder:delete", id, nil)
	return nil
}

// partDeltas aggregates stock consumption changes per catalog part id
// between the old and new part line sets. A positive delta consumes
// stock, a negative one restocks. Zero-change parts are skipped.
func partDeltas(oldParts, newParts []Line) []stock.Delta {
	qty := make(map[int64]int)
	for _, l := range newParts {
		qty[l.CatalogID] += l.Quantity
	}
	for _, l := range oldParts {
		qty[l.CatalogID] -= l.Quantity
	}

	var deltas []stock.Delta
	for partID, change := range qty {
		if change == 0 {
			continue
		}
		deltas = append(deltas, stock.Delta{PartID: partID, QtyChange: change})
	}
	return deltas
}

func actorID(ctx context.Context) string {
	if actor := shared.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return "system"
}

func (s *Service) record(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID(ctx),
		Action:   action,
		Entity:   "work_order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "work_order_id", orderID, "error", err)
	}
}
