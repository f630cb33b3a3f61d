package workorder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// negotiatedOrder builds an order whose baseline holds one service
// (30000) and one part (10000), with one additional service (5000) and
// one additional part (8000) added after start.
func negotiatedOrder() *WorkOrder {
	baseService := Line{ID: "s-base", Kind: KindService, Price: 30000}
	basePart := Line{ID: "p-base", Kind: KindPart, Price: 10000}
	extraService := Line{ID: "s-extra", Kind: KindService, Price: 5000}
	extraPart := Line{ID: "p-extra", Kind: KindPart, Price: 8000}

	return &WorkOrder{
		Services:         []Line{baseService, extraService},
		Parts:            []Line{basePart, extraPart},
		OriginalServices: []Line{baseService},
		OriginalParts:    []Line{basePart},
		OriginalAmount:   40000,
		NeedsQuote:       true,
	}
}

func TestBillableTotalNoQuote(t *testing.T) {
	order := &WorkOrder{
		Services: []Line{{ID: "s1", Price: 30000}},
		Parts:    []Line{{ID: "p1", Price: 10000}},
	}
	require.Equal(t, 40000.0, BillableTotal(order))
}

func TestBillableTotalPendingAndSentBillEverything(t *testing.T) {
	order := negotiatedOrder()
	for _, status := range []QuoteStatus{QuoteStatusPending, QuoteStatusSent} {
		order.Quote = &Quote{Status: status}
		require.Equal(t, 53000.0, BillableTotal(order), "status %s", status)
	}
}

func TestBillableTotalApproved(t *testing.T) {
	order := negotiatedOrder()
	order.Quote = &Quote{Status: QuoteStatusApproved}
	require.Equal(t, 53000.0, BillableTotal(order))
}

func TestBillableTotalRejectedFallsBackToOriginal(t *testing.T) {
	order := negotiatedOrder()
	order.Quote = &Quote{Status: QuoteStatusRejected}
	require.Equal(t, 40000.0, BillableTotal(order))

	// The additional lines are still stored on the order.
	require.Len(t, order.Services, 2)
	require.Len(t, order.Parts, 2)
}

func TestBillableTotalPartialReject(t *testing.T) {
	order := negotiatedOrder()
	order.Quote = &Quote{
		Status:        QuoteStatusPartialReject,
		RejectedItems: RejectedItems{Parts: []string{"p-extra"}},
	}
	// Baseline 40000 plus the surviving additional service 5000.
	require.Equal(t, 45000.0, BillableTotal(order))
}

func TestBillableTotalPartialRejectNeverExcludesBaseline(t *testing.T) {
	order := negotiatedOrder()
	// A rejection list naming a baseline id has no effect on it.
	order.Quote = &Quote{
		Status:        QuoteStatusPartialReject,
		RejectedItems: RejectedItems{Services: []string{"s-base"}, Parts: []string{"p-extra"}},
	}
	require.Equal(t, 45000.0, BillableTotal(order))
}

func TestReAddedLineStaysAdditional(t *testing.T) {
	// Removing a baseline line and adding the same catalog item again
	// mints a new line id, so the new line counts as additional.
	base := Line{ID: "s-old", Kind: KindService, CatalogID: 1, Price: 30000}
	readded := Line{ID: "s-new", Kind: KindService, CatalogID: 1, Price: 30000}
	order := &WorkOrder{
		Services:         []Line{readded},
		OriginalServices: []Line{base},
		OriginalAmount:   30000,
		StartedAt:        &base.CreatedAt,
	}
	additional := order.AdditionalLineIDs()
	require.True(t, additional["s-new"])
	require.Len(t, additional, 1)
}
