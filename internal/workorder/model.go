// Package workorder implements the repair-ticket lifecycle: line item
// composition, the forward-only status machine, additional-work quote
// negotiation and the billing total rule.
package workorder

import "time"

// Status represents the lifecycle of a work order on the shop floor.
type Status string

const (
	StatusOpen             Status = "open"               // Created, awaiting a mechanic
	StatusInProgress       Status = "in_progress"        // Assigned, baseline frozen
	StatusReadyForDelivery Status = "ready_for_delivery" // Work finished, awaiting pickup
	StatusCompleted        Status = "completed"          // Delivered to the client
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusReadyForDelivery, StatusCompleted:
		return true
	default:
		return false
	}
}

// CanEdit checks whether line items may still change in this status.
func (s Status) CanEdit() bool {
	return s != StatusCompleted
}

// rank orders statuses for the monotonicity guarantee. Transitions only
// ever move to the next rank.
func (s Status) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusInProgress:
		return 1
	case StatusReadyForDelivery:
		return 2
	case StatusCompleted:
		return 3
	default:
		return -1
	}
}

// LineKind distinguishes labor from parts on a work order line.
type LineKind string

const (
	KindService LineKind = "service"
	KindPart    LineKind = "part"
)

// Line is one service or part entry attached to a work order. Its id is
// the line identity, distinct from the catalog entry it prices from.
type Line struct {
	ID          string    `json:"id" db:"id"`
	Kind        LineKind  `json:"kind" db:"kind"`
	CatalogID   int64     `json:"catalog_id" db:"catalog_id"`
	Description string    `json:"description" db:"description"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Price       float64   `json:"price" db:"price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// QuoteStatus tracks the negotiation of additional work with the client.
type QuoteStatus string

const (
	QuoteStatusPending       QuoteStatus = "pending"
	QuoteStatusSent          QuoteStatus = "sent"
	QuoteStatusApproved      QuoteStatus = "approved"
	QuoteStatusRejected      QuoteStatus = "rejected"
	QuoteStatusPartialReject QuoteStatus = "partial_reject"
)

// Unresolved reports whether the client still owes a response.
func (s QuoteStatus) Unresolved() bool {
	return s == QuoteStatusPending || s == QuoteStatusSent
}

// RejectedItems names the additional line ids excluded by a partial
// rejection. Ids are line ids, never catalog ids.
type RejectedItems struct {
	Services []string `json:"services"`
	Parts    []string `json:"parts"`
}

// Contains reports whether the line id is named in either list.
func (r RejectedItems) Contains(lineID string) bool {
	for _, id := range r.Services {
		if id == lineID {
			return true
		}
	}
	for _, id := range r.Parts {
		if id == lineID {
			return true
		}
	}
	return false
}

// Empty reports whether no line is named.
func (r RejectedItems) Empty() bool {
	return len(r.Services) == 0 && len(r.Parts) == 0
}

// Quote is the negotiation record for work beyond the frozen baseline.
type Quote struct {
	WorkOrderID    int64         `json:"work_order_id" db:"work_order_id"`
	Status         QuoteStatus   `json:"status" db:"status"`
	SentAt         *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
	RespondedAt    *time.Time    `json:"responded_at,omitempty" db:"responded_at"`
	ClientResponse *string       `json:"client_response,omitempty" db:"client_response"`
	RejectedItems  RejectedItems `json:"rejected_items" db:"-"`
}

// WorkOrder is the repair-ticket aggregate.
type WorkOrder struct {
	ID        int64  `json:"id" db:"id"`
	ClientID  int64  `json:"client_id" db:"client_id"`
	BicycleID int64  `json:"bicycle_id" db:"bicycle_id"`
	Status    Status `json:"status" db:"status"`

	Services []Line `json:"services" db:"-"`
	Parts    []Line `json:"parts" db:"-"`

	// Frozen snapshot captured the first time the order leaves open.
	OriginalServices []Line  `json:"original_services,omitempty" db:"-"`
	OriginalParts    []Line  `json:"original_parts,omitempty" db:"-"`
	OriginalAmount   float64 `json:"original_amount" db:"original_amount"`

	NeedsQuote bool   `json:"needs_quote" db:"needs_quote"`
	Quote      *Quote `json:"quote,omitempty" db:"-"`

	TotalAmount    float64 `json:"total_amount" db:"total_amount"`
	AdvancePayment float64 `json:"advance_payment" db:"advance_payment"`

	MechanicID    string  `json:"mechanic_id,omitempty" db:"mechanic_id"`
	MechanicNotes *string `json:"mechanic_notes,omitempty" db:"mechanic_notes"`

	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty" db:"estimated_delivery_date"`
	StartedAt             *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DeliveredAt           *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// baselineIDs indexes the frozen snapshot's line ids. A line is
// "additional" exactly when its id is absent here; re-adding a removed
// catalog item mints a new line id and therefore stays additional.
func (w *WorkOrder) baselineIDs() map[string]bool {
	ids := make(map[string]bool, len(w.OriginalServices)+len(w.OriginalParts))
	for _, l := range w.OriginalServices {
		ids[l.ID] = true
	}
	for _, l := range w.OriginalParts {
		ids[l.ID] = true
	}
	return ids
}

// AdditionalLineIDs returns the current line ids beyond the baseline.
func (w *WorkOrder) AdditionalLineIDs() map[string]bool {
	baseline := w.baselineIDs()
	additional := make(map[string]bool)
	for _, l := range w.Services {
		if !baseline[l.ID] {
			additional[l.ID] = true
		}
	}
	for _, l := range w.Parts {
		if !baseline[l.ID] {
			additional[l.ID] = true
		}
	}
	return additional
}

// QuoteUnresolved reports whether an additional-work quote still blocks
// completion.
func (w *WorkOrder) QuoteUnresolved() bool {
	if !w.NeedsQuote {
		return false
	}
	if w.Quote == nil {
		// needs_quote without a materialized record is treated as pending.
		return true
	}
	return w.Quote.Status.Unresolved()
}

// WithDetails includes joined data for display.
type WithDetails struct {
	WorkOrder
	ClientName   string `json:"client_name" db:"client_name"`
	BicycleBrand string `json:"bicycle_brand" db:"bicycle_brand"`
	BicycleModel string `json:"bicycle_model" db:"bicycle_model"`
	LineCount    int    `json:"line_count" db:"line_count"`
}
