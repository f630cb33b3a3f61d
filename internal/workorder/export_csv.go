package workorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// csvFlushEvery bounds buffered rows between flushes while streaming.
const csvFlushEvery = 200

// exportPageSize is the repository page size used while streaming.
const exportPageSize = 500

// CSVExporter streams work order listings as CSV for the back office.
type CSVExporter struct {
	repo    Repository
	printer *message.Printer
}

// NewCSVExporter builds an exporter. Amounts are formatted with Spanish
// digit grouping to match the shop's invoices.
func NewCSVExporter(repo Repository) *CSVExporter {
	return &CSVExporter{
		repo:    repo,
		printer: message.NewPrinter(language.Spanish),
	}
}

var csvHeader = []string{
	"id", "client", "bicycle", "status", "needs_quote",
	"original_amount", "total_amount", "advance_payment",
	"mechanic_id", "created_at", "delivered_at",
}

// Write streams every order matching the filters to w. Rows are fetched
// in pages and flushed in chunks so large exports never buffer fully in
// memory.
func (e *CSVExporter) Write(ctx context.Context, w io.Writer, req ListRequest) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	req.Limit = exportPageSize
	req.Offset = 0
	written := 0

	for {
		orders, total, err := e.repo.List(ctx, req)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if err := cw.Write(e.row(o)); err != nil {
				return err
			}
			written++
			if written%csvFlushEvery == 0 {
				cw.Flush()
				if err := cw.Error(); err != nil {
					return err
				}
			}
		}
		req.Offset += len(orders)
		if len(orders) == 0 || req.Offset >= total {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

func (e *CSVExporter) row(o WithDetails) []string {
	deliveredAt := ""
	if o.DeliveredAt != nil {
		deliveredAt = o.DeliveredAt.Format(time.RFC3339)
	}
	return []string{
		fmt.Sprintf("%d", o.ID),
		o.ClientName,
		fmt.Sprintf("%s %s", o.BicycleBrand, o.BicycleModel),
		string(o.Status),
		fmt.Sprintf("%t", o.NeedsQuote),
		e.amount(o.OriginalAmount),
		e.amount(o.TotalAmount),
		e.amount(o.AdvancePayment),
		o.MechanicID,
		o.CreatedAt.Format(time.RFC3339),
		deliveredAt,
	}
}

func (e *CSVExporter) amount(v float64) string {
	return e.printer.Sprintf("%.2f", v)
}
