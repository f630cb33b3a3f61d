package workorder

import "errors"

// Domain errors for work orders.
var (
	// ErrNotFound indicates the requested work order was not found.
	ErrNotFound = errors.New("work order not found")

	// Status transition guards. Invoking a transition from the wrong
	// source state reports one of these; state is never mutated.
	ErrCannotStart    = errors.New("work order can only be started from open")
	ErrCannotEdit     = errors.New("completed work orders cannot be edited")
	ErrCannotComplete = errors.New("only in-progress work orders can be completed")
	ErrCannotDeliver  = errors.New("only ready-for-delivery work orders can be delivered")
	ErrCannotDelete   = errors.New("completed work orders cannot be deleted")

	// ErrQuoteUnresolved blocks completion while additional work awaits a
	// client response.
	ErrQuoteUnresolved = errors.New("cannot complete while the additional-work quote is pending or sent")

	// Quote negotiation errors.
	ErrQuoteNotNeeded        = errors.New("work order has no additional work to quote")
	ErrQuoteAlreadySent      = errors.New("quote was already sent or resolved")
	ErrQuoteNotSent          = errors.New("quote must be sent before recording a response")
	ErrInvalidOutcome        = errors.New("quote outcome must be approved, rejected or partial_reject")
	ErrRejectedItemsEmpty    = errors.New("partial rejection must name at least one line")
	ErrRejectedNotAdditional = errors.New("rejected items may only reference additional lines")

	// Validation errors.
	ErrMechanicRequired   = errors.New("mechanic id is required")
	ErrLineNotFound       = errors.New("line not found on work order")
	ErrUnknownCatalogItem = errors.New("catalog item not found")
)
