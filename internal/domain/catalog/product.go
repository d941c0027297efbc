package catalog

import (
	"context"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Products come from two paths: direct
// catalog maintenance, and promotion of a non-stock line item at
// document save time.
type Product struct {
	shared.BaseAggregateRoot

	Name          string
	SKU           string
	Category      string
	Unit          string
	Price         decimal.Decimal
	Cost          decimal.Decimal
	MarkupPercent decimal.Decimal
	VendorID      *uuid.UUID
	IsActive      bool
}

// NewProduct creates an active catalog product
func NewProduct(name, category, unit string, price, cost decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Category:          category,
		Unit:              unit,
		Price:             price,
		Cost:              cost,
		IsActive:          true,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p.ID, name, category))
	return p, nil
}

// UpdatePricing replaces the price, cost, and markup together
func (p *Product) UpdatePricing(price, cost, markupPercent decimal.Decimal) error {
	if price.IsNegative() || cost.IsNegative() || markupPercent.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Pricing values cannot be negative")
	}
	p.Price = price
	p.Cost = cost
	p.MarkupPercent = markupPercent
	p.IncrementVersion()
	return nil
}

// Deactivate hides the product from active listings
func (p *Product) Deactivate() {
	if !p.IsActive {
		return
	}
	p.IsActive = false
	p.IncrementVersion()
}

// ProductCreatedEvent is raised when a product enters the catalog
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

func NewProductCreatedEvent(productID uuid.UUID, name, category string) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("product.created", "Product", productID),
		Name:            name,
		Category:        category,
	}
}

// ProductRepository persists catalog products
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Product], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
