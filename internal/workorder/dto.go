package workorder

import "time"

// CreateRequest opens a new work order in open. Initial lines are
// optional; when present they are committed as a first edit.
type CreateRequest struct {
	ClientID              int64       `json:"client_id" validate:"required,gt=0"`
	BicycleID             int64       `json:"bicycle_id" validate:"required,gt=0"`
	Services              []LineInput `json:"services,omitempty" validate:"dive"`
	Parts                 []LineInput `json:"parts,omitempty" validate:"dive"`
	AdvancePayment        float64     `json:"advance_payment" validate:"gte=0"`
	EstimatedDeliveryDate *time.Time  `json:"estimated_delivery_date,omitempty"`
	MechanicNotes         *string     `json:"mechanic_notes,omitempty"`
}

// LineInput describes one desired line in an edit. A blank LineID adds a
// new line for the catalog entry; an existing LineID adjusts quantity.
type LineInput struct {
	LineID    string `json:"line_id,omitempty"`
	CatalogID int64  `json:"catalog_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// CommitEditRequest replaces the working line set. Lines on the order
// but absent from the request are removed (and their stock returned).
type CommitEditRequest struct {
	Services              []LineInput `json:"services" validate:"dive"`
	Parts                 []LineInput `json:"parts" validate:"dive"`
	MechanicNotes         *string     `json:"mechanic_notes,omitempty"`
	EstimatedDeliveryDate *time.Time  `json:"estimated_delivery_date,omitempty"`
}

// StartRequest binds a mechanic and moves the order to in_progress.
type StartRequest struct {
	MechanicID string `json:"mechanic_id" validate:"required"`
}

// RespondQuoteRequest records the client's answer to a sent quote.
type RespondQuoteRequest struct {
	Outcome        QuoteStatus    `json:"outcome" validate:"required"`
	RejectedItems  *RejectedItems `json:"rejected_items,omitempty"`
	ClientResponse *string        `json:"client_response,omitempty"`
}

// ListRequest filters work order listings.
type ListRequest struct {
	Status     *Status `json:"status,omitempty"`
	MechanicID *string `json:"mechanic_id,omitempty"`
	ClientID   *int64  `json:"client_id,omitempty"`
	NeedsQuote *bool   `json:"needs_quote,omitempty"`
	Search     *string `json:"search,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}

// ListResponse is the API shape for listings.
type ListResponse struct {
	WorkOrders []WithDetails `json:"work_orders"`
	Total      int           `json:"total"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// BoardSummary feeds the shop-floor kanban view.
type BoardSummary struct {
	Counts map[Status]int `json:"counts"`
	Recent []WithDetails  `json:"recent"`
}
