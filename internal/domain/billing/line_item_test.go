package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewLineItem(t *testing.T) {
	t.Run("computes rounded total", func(t *testing.T) {
		li, err := NewLineItem("Cedar picket 6ft", dec("3"), dec("3.335"))
		require.NoError(t, err)
		assert.True(t, li.Total.Equal(dec("10.01")), "got %s", li.Total)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewLineItem("", dec("1"), dec("1"))
		assert.Error(t, err)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewLineItem("Post cap", dec("-1"), dec("1"))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewLineItem("Post cap", dec("1"), dec("-1"))
		assert.Error(t, err)
	})

	t.Run("zero quantity is valid", func(t *testing.T) {
		li, err := NewLineItem("Gate hinge", dec("0"), dec("12.50"))
		require.NoError(t, err)
		assert.True(t, li.Total.IsZero())
	})
}

func TestLineItemRecalculate(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		isReturn  bool
		want      string
	}{
		{"whole numbers", "4", "25.00", false, "100.00"},
		{"rounds half up", "1", "2.005", false, "2.01"},
		{"rounds half up at scale", "10", "0.3335", false, "3.34"},
		{"fractional quantity", "12.5", "2.40", false, "30.00"},
		{"return negates", "2", "15.00", true, "-30.00"},
		{"return rounds before negating", "1", "2.005", true, "-2.01"},
		{"zero price", "5", "0", false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li := LineItem{Quantity: dec(tt.quantity), UnitPrice: dec(tt.unitPrice), IsReturn: tt.isReturn}
			li.Recalculate()
			assert.True(t, li.Total.Equal(dec(tt.want)), "got %s want %s", li.Total, tt.want)
		})
	}
}

func TestLineItemBackordered(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		received string
		want     string
	}{
		{"nothing received", "10", "0", "10"},
		{"partial", "10", "4", "6"},
		{"fully received", "10", "10", "0"},
		{"over received clamps to zero", "10", "12", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li := LineItem{Quantity: dec(tt.quantity), ReceivedQuantity: dec(tt.received)}
			assert.True(t, li.Backordered().Equal(dec(tt.want)), "got %s", li.Backordered())
		})
	}
}

func TestLineItemPromoteToProduct(t *testing.T) {
	t.Run("back-fills reference and clears flags", func(t *testing.T) {
		li, err := NewNonStockLineItem("Custom lattice panel", dec("2"), dec("45.00"))
		require.NoError(t, err)
		li.AddToProductList = true

		productID := uuid.New()
		require.NoError(t, li.PromoteToProduct(productID))

		require.NotNil(t, li.ProductID)
		assert.Equal(t, productID, *li.ProductID)
		assert.False(t, li.IsNonStock)
		assert.False(t, li.AddToProductList)
	})

	t.Run("rejects catalog line", func(t *testing.T) {
		li, err := NewCatalogLineItem(uuid.New(), "Cedar picket", dec("1"), dec("3.35"))
		require.NoError(t, err)
		assert.Error(t, li.PromoteToProduct(uuid.New()))
	})

	t.Run("rejects nil product ID", func(t *testing.T) {
		li, err := NewNonStockLineItem("Custom panel", dec("1"), dec("10"))
		require.NoError(t, err)
		assert.Error(t, li.PromoteToProduct(uuid.Nil))
	})
}

func TestLineItemsSubtotal(t *testing.T) {
	t.Run("sums signed totals and rounds once", func(t *testing.T) {
		items := LineItems{
			{Quantity: dec("3"), UnitPrice: dec("3.335")},
			{Quantity: dec("2"), UnitPrice: dec("15.00"), IsReturn: true},
		}
		for i := range items {
			items[i].Recalculate()
		}
		// 10.01 + (-30.00)
		assert.True(t, items.Subtotal().Equal(dec("-19.99")), "got %s", items.Subtotal())
	})

	t.Run("empty slice is zero", func(t *testing.T) {
		assert.True(t, LineItems{}.Subtotal().IsZero())
	})

	t.Run("stable under repeated recalculation", func(t *testing.T) {
		items := LineItems{{Quantity: dec("7"), UnitPrice: dec("1.435")}}
		items[0].Recalculate()
		first := items.Subtotal()
		items[0].Recalculate()
		assert.True(t, items.Subtotal().Equal(first))
	})
}

func TestLineItemsScanValue(t *testing.T) {
	items := LineItems{{ID: uuid.New(), Name: "Cedar picket", Quantity: dec("4"), UnitPrice: dec("3.35")}}
	items[0].Recalculate()

	v, err := items.Value()
	require.NoError(t, err)

	var out LineItems
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.Equal(t, items[0].ID, out[0].ID)
	assert.True(t, out[0].Total.Equal(dec("13.40")))

	t.Run("nil scans to empty", func(t *testing.T) {
		var empty LineItems
		require.NoError(t, empty.Scan(nil))
		assert.Empty(t, empty)
	})
}
