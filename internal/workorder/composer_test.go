package workorder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/stock"
)

func tuneUp() catalog.ServiceItem {
	return catalog.ServiceItem{ID: 1, Description: "Full tune-up", Price: 45}
}

func chainPart(stockLevel int) catalog.PartItem {
	return catalog.PartItem{ID: 10, Code: "CH-X11", Brand: "Shimano", Price: 32.5, Stock: stockLevel}
}

func TestComposerAddService(t *testing.T) {
	c := NewComposer(&WorkOrder{}, nil)

	id := c.AddServiceLine(tuneUp())
	require.NotEmpty(t, id)
	require.Len(t, c.Services(), 1)
	require.Equal(t, 1, c.Services()[0].Quantity)
	require.Equal(t, 45.0, c.Total())

	// Duplicate add is a silent no-op.
	require.Empty(t, c.AddServiceLine(tuneUp()))
	require.Len(t, c.Services(), 1)
}

func TestComposerAddPartZeroStock(t *testing.T) {
	c := NewComposer(&WorkOrder{}, nil)

	require.Empty(t, c.AddPartLine(chainPart(0)))
	require.Empty(t, c.Parts())

	id := c.AddPartLine(chainPart(3))
	require.NotEmpty(t, id)
	require.Empty(t, c.AddPartLine(chainPart(3)))
	require.Len(t, c.Parts(), 1)
}

func TestComposerQuantityClamp(t *testing.T) {
	c := NewComposer(&WorkOrder{}, nil)
	id := c.AddServiceLine(tuneUp())

	require.NoError(t, c.SetLineQuantity(id, 0))
	line, ok := c.Line(id)
	require.True(t, ok)
	require.Equal(t, 1, line.Quantity)

	require.NoError(t, c.SetLineQuantity(id, 3))
	line, _ = c.Line(id)
	require.Equal(t, 3, line.Quantity)
	require.Equal(t, 135.0, line.Price)
}

func TestComposerPartQuantityBoundedByStock(t *testing.T) {
	c := NewComposer(&WorkOrder{}, nil)
	id := c.AddPartLine(chainPart(3))

	// 1 already held by the new line; raising to 3 needs 2 more of the
	// 3 snapshotted, which is fine.
	require.NoError(t, c.SetLineQuantity(id, 3))

	err := c.SetLineQuantity(id, 10)
	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(10), insufficient.PartID)
	require.Equal(t, 3, insufficient.Available)

	// The line is untouched by the rejected change.
	line, _ := c.Line(id)
	require.Equal(t, 3, line.Quantity)
}

func TestComposerCommittedQuantityIsHeadroomFree(t *testing.T) {
	// A committed line of 2 was already deducted from stock, so with a
	// snapshot of 1 the mechanic can still go from 2 to 3 but not to 4.
	order := &WorkOrder{
		Parts: []Line{{
			ID: "line-1", Kind: KindPart, CatalogID: 10,
			UnitPrice: 32.5, Quantity: 2, Price: 65,
		}},
	}
	c := NewComposer(order, []catalog.PartItem{chainPart(1)})

	require.NoError(t, c.SetLineQuantity("line-1", 3))
	err := c.SetLineQuantity("line-1", 4)
	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	// Lowering below the committed quantity never consults stock.
	require.NoError(t, c.SetLineQuantity("line-1", 1))
}

func TestComposerRemoveLine(t *testing.T) {
	c := NewComposer(&WorkOrder{}, nil)
	sid := c.AddServiceLine(tuneUp())
	pid := c.AddPartLine(chainPart(5))

	c.RemoveLine(sid)
	require.Empty(t, c.Services())
	require.Len(t, c.Parts(), 1)

	c.RemoveLine(pid)
	require.Empty(t, c.Parts())
	require.Zero(t, c.Total())
}

func TestComposerUnknownLine(t *testing.T) {
	c := NewComposer(&WorkOrder{}, nil)
	require.ErrorIs(t, c.SetLineQuantity("nope", 2), ErrLineNotFound)
	_, ok := c.Line("nope")
	require.False(t, ok)
}
