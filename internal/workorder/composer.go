package workorder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/stock"
)

// Composer maintains the working set of line items for a single order
// during an edit session, before the edit is committed. It enforces the
// line rules: one line per catalog entry, quantity at least 1, and part
// increments bounded by the stock snapshot taken at session start.
// Nothing here touches stock; the ledger reconciles deltas on commit.
type Composer struct {
	services []Line
	parts    []Line

	// committed holds the previously persisted quantity per part line id.
	// Session-new lines are absent (committed quantity zero).
	committed map[string]int

	// partStock snapshots catalog stock per part id. Committed quantities
	// were already deducted from stock at the last commit, so the snapshot
	// is the headroom available for increments.
	partStock map[int64]int
}

// NewComposer opens an edit session over the order's current lines.
// The parts slice provides stock snapshots for every part line that may
// be touched during the session.
func NewComposer(order *WorkOrder, parts []catalog.PartItem) *Composer {
	c := &Composer{
		services:  make([]Line, len(order.Services)),
		parts:     make([]Line, len(order.Parts)),
		committed: make(map[string]int, len(order.Parts)),
		partStock: make(map[int64]int, len(parts)),
	}
	copy(c.services, order.Services)
	copy(c.parts, order.Parts)
	for _, l := range order.Parts {
		c.committed[l.ID] = l.Quantity
	}
	for _, p := range parts {
		c.partStock[p.ID] = p.Stock
	}
	return c
}

// AddServiceLine appends a new line for the catalog service at quantity 1.
// Adding a service that already has a line is a silent no-op; the empty
// string is returned.
func (c *Composer) AddServiceLine(item catalog.ServiceItem) string {
	for _, l := range c.services {
		if l.CatalogID == item.ID {
			return ""
		}
	}
	line := Line{
		ID:          uuid.NewString(),
		Kind:        KindService,
		CatalogID:   item.ID,
		Description: item.Description,
		UnitPrice:   item.Price,
		Quantity:    1,
		Price:       item.Price,
		CreatedAt:   time.Now().UTC(),
	}
	c.services = append(c.services, line)
	return line.ID
}

// AddPartLine appends a new line for the catalog part at quantity 1.
// It is a silent no-op when a line for that part already exists or the
// part has no stock.
func (c *Composer) AddPartLine(item catalog.PartItem) string {
	for _, l := range c.parts {
		if l.CatalogID == item.ID {
			return ""
		}
	}
	if item.Stock <= 0 {
		return ""
	}
	line := Line{
		ID:          uuid.NewString(),
		Kind:        KindPart,
		CatalogID:   item.ID,
		Description: fmt.Sprintf("%s %s", item.Brand, item.Code),
		UnitPrice:   item.Price,
		Quantity:    1,
		Price:       item.Price,
		CreatedAt:   time.Now().UTC(),
	}
	c.parts = append(c.parts, line)
	c.partStock[item.ID] = item.Stock
	return line.ID
}

// SetLineQuantity changes a line's quantity, clamping to a minimum of 1.
// For part lines, raising the quantity above the previously committed
// quantity consumes stock headroom; if the increment exceeds the stock
// snapshot the line is left unchanged and the error names the part.
func (c *Composer) SetLineQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.services {
		if c.services[i].ID == lineID {
			c.services[i].Quantity = quantity
			c.services[i].Price = c.services[i].UnitPrice * float64(quantity)
			return nil
		}
	}

	for i := range c.parts {
		if c.parts[i].ID != lineID {
			continue
		}
		increment := quantity - c.committed[lineID]
		if increment > 0 {
			available := c.partStock[c.parts[i].CatalogID]
			if increment > available {
				return &stock.InsufficientStockError{PartID: c.parts[i].CatalogID, Available: available}
			}
		}
		c.parts[i].Quantity = quantity
		c.parts[i].Price = c.parts[i].UnitPrice * float64(quantity)
		return nil
	}

	return ErrLineNotFound
}

// RemoveLine removes the line regardless of quantity. Stock is restocked
// only at commit time by the ledger.
func (c *Composer) RemoveLine(lineID string) {
	for i := range c.services {
		if c.services[i].ID == lineID {
			c.services = append(c.services[:i], c.services[i+1:]...)
			return
		}
	}
	for i := range c.parts {
		if c.parts[i].ID == lineID {
			c.parts = append(c.parts[:i], c.parts[i+1:]...)
			return
		}
	}
}

// Total sums the price over all current lines. Pure, no side effects.
func (c *Composer) Total() float64 {
	return linesTotal(c.services) + linesTotal(c.parts)
}

// Services returns a copy of the current service lines.
func (c *Composer) Services() []Line {
	out := make([]Line, len(c.services))
	copy(out, c.services)
	return out
}

// Parts returns a copy of the current part lines.
func (c *Composer) Parts() []Line {
	out := make([]Line, len(c.parts))
	copy(out, c.parts)
	return out
}

// Line looks up a line in the working set by id.
func (c *Composer) Line(lineID string) (Line, bool) {
	for _, l := range c.services {
		if l.ID == lineID {
			return l, true
		}
	}
	for _, l := range c.parts {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}
