package workorder

// linesTotal sums line prices.
func linesTotal(lines []Line) float64 {
	var total float64
	for _, l := range lines {
		total += l.Price
	}
	return total
}

// BillableTotal derives the order's billable amount from the current
// lines, the frozen baseline and the quote outcome:
//
//   - no quote, or quote pending/sent/approved: every current line bills.
//   - quote rejected: the order bills exactly the frozen original amount;
//     additional lines stay stored but are excluded in full.
//   - quote partially rejected: baseline lines bill, plus every
//     additional line not named in the rejection. Rejection is binary per
//     line; quantity-level partial billing is not computed.
func BillableTotal(order *WorkOrder) float64 {
	if order.Quote == nil {
		return linesTotal(order.Services) + linesTotal(order.Parts)
	}

	switch order.Quote.Status {
	case QuoteStatusRejected:
		return order.OriginalAmount
	case QuoteStatusPartialReject:
		baseline := order.baselineIDs()
		rejected := order.Quote.RejectedItems
		var total float64
		for _, l := range order.Services {
			if baseline[l.ID] || !rejected.Contains(l.ID) {
				total += l.Price
			}
		}
		for _, l := range order.Parts {
			if baseline[l.ID] || !rejected.Contains(l.ID) {
				total += l.Price
			}
		}
		return total
	default:
		return linesTotal(order.Services) + linesTotal(order.Parts)
	}
}
