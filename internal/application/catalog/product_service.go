package catalog

import (
	"context"
	"fmt"

	"github.com/fenceline/backend/internal/domain/catalog"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService maintains the catalog directly. Promotion of non-stock
// line items is the other entry path into the catalog and happens in
// the document save flow, not here.
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductRequest carries the fields for a new catalog entry
type CreateProductRequest struct {
	Name          string
	SKU           string
	Category      string
	Unit          string
	Price         decimal.Decimal
	Cost          decimal.Decimal
	MarkupPercent decimal.Decimal
	VendorID      *uuid.UUID
}

// Create adds a product to the catalog
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*catalog.Product, error) {
	product, err := catalog.NewProduct(req.Name, req.Category, req.Unit, req.Price, req.Cost)
	if err != nil {
		return nil, err
	}
	product.SKU = req.SKU
	product.VendorID = req.VendorID
	if !req.MarkupPercent.IsZero() {
		if req.MarkupPercent.IsNegative() {
			return nil, shared.NewDomainError("INVALID_MARKUP", "Markup percent cannot be negative")
		}
		product.MarkupPercent = req.MarkupPercent
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return product, nil
}

// UpdateProductRequest updates catalog fields; nil means keep current
type UpdateProductRequest struct {
	Name     *string
	SKU      *string
	Category *string
	Unit     *string
	VendorID *uuid.UUID
	IsActive *bool
}

// Update applies a partial update to a product's descriptive fields
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*catalog.Product, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
		}
		product.Name = *req.Name
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.VendorID != nil {
		product.VendorID = req.VendorID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.IncrementVersion()

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return product, nil
}

// UpdatePricing replaces the product's price, cost, and markup together
func (s *ProductService) UpdatePricing(ctx context.Context, productID uuid.UUID, price, cost, markupPercent decimal.Decimal) (*catalog.Product, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.UpdatePricing(price, cost, markupPercent); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return product, nil
}

// Get loads a single product
func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	return s.loadProduct(ctx, productID)
}

// List returns a filtered page of products
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*catalog.Product], error) {
	return s.productRepo.FindAll(ctx, filter)
}

// Delete removes a product from the catalog
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	return s.productRepo.Delete(ctx, productID)
}

func (s *ProductService) loadProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	}
	return product, nil
}
