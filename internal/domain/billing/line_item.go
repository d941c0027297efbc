package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a value object within the FinancialDocument aggregate.
// The ID is stable across edits so receiving quantities can be reconciled
// against the same line after the document has been modified.
type LineItem struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        *uuid.UUID      `json:"product_id"` // nil for non-stock items
	Name             string          `json:"name"`       // denormalized display text
	Category         string          `json:"category,omitempty"`
	Unit             string          `json:"unit,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Cost             decimal.Decimal `json:"cost"`
	MarkupPercent    decimal.Decimal `json:"markup_percent"`
	IsReturn         bool            `json:"is_return"`
	IsNonStock       bool            `json:"is_non_stock"`
	AddToProductList bool            `json:"add_to_product_list,omitempty"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	Total            decimal.Decimal `json:"total"` // signed, cents-rounded
}

// NewLineItem creates a new line item and computes its signed total.
// Zero quantity or price is valid; the line simply contributes nothing.
func NewLineItem(name string, quantity, unitPrice decimal.Decimal) (*LineItem, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Line item name cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	li := &LineItem{
		ID:        uuid.New(),
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	li.Recalculate()
	return li, nil
}

// NewCatalogLineItem creates a line item referencing a catalog product
func NewCatalogLineItem(productID uuid.UUID, name string, quantity, unitPrice decimal.Decimal) (*LineItem, error) {
	li, err := NewLineItem(name, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	li.ProductID = &productID
	return li, nil
}

// NewNonStockLineItem creates an ad-hoc line item with no catalog reference.
// The unit price is exactly what the caller supplied; it is never derived.
func NewNonStockLineItem(name string, quantity, unitPrice decimal.Decimal) (*LineItem, error) {
	li, err := NewLineItem(name, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	li.IsNonStock = true
	return li, nil
}

// Recalculate recomputes the signed total: round2(quantity * unitPrice),
// negated for returns.
func (li *LineItem) Recalculate() {
	total := valueobject.Round2(li.Quantity.Mul(li.UnitPrice))
	if li.IsReturn {
		total = total.Neg()
	}
	li.Total = total
}

// MarkReturn flags the line as a return and flips the sign of its total
func (li *LineItem) MarkReturn() {
	li.IsReturn = true
	li.Recalculate()
}

// Backordered returns max(0, quantity - receivedQuantity).
// It is derived on read and never stored.
func (li *LineItem) Backordered() decimal.Decimal {
	b := li.Quantity.Sub(li.ReceivedQuantity)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// PromoteToProduct back-fills the catalog reference created for a non-stock
// line and clears the non-stock flags. The product must already exist.
func (li *LineItem) PromoteToProduct(productID uuid.UUID) error {
	if !li.IsNonStock {
		return shared.NewDomainError("NOT_NON_STOCK", "Line item is not a non-stock item")
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	li.ProductID = &productID
	li.IsNonStock = false
	li.AddToProductList = false
	return nil
}

// LineItems is a slice of LineItem that implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Subtotal returns round2 of the sum of signed line totals.
// Running it twice on the same input yields the same result; it reads
// the already-rounded per-line totals and rounds the sum once more.
func (l LineItems) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range l {
		sum = sum.Add(l[i].Total)
	}
	return valueobject.Round2(sum)
}

// TotalOrdered returns the sum of ordered quantities across all lines
func (l LineItems) TotalOrdered() decimal.Decimal {
	sum := decimal.Zero
	for i := range l {
		sum = sum.Add(l[i].Quantity)
	}
	return sum
}

// TotalReceived returns the sum of received quantities across all lines
func (l LineItems) TotalReceived() decimal.Decimal {
	sum := decimal.Zero
	for i := range l {
		sum = sum.Add(l[i].ReceivedQuantity)
	}
	return sum
}

// FindByID returns a pointer to the line with the given ID, or nil
func (l LineItems) FindByID(id uuid.UUID) *LineItem {
	for i := range l {
		if l[i].ID == id {
			return &l[i]
		}
	}
	return nil
}
