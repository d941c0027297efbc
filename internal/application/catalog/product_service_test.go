package catalog

import (
	"context"
	"testing"

	"github.com/fenceline/backend/internal/domain/catalog"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*catalog.Product], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*catalog.Product]), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestProductServiceCreate(t *testing.T) {
	productRepo := new(MockProductRepository)
	svc := NewProductService(productRepo)

	productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	product, err := svc.Create(context.Background(), CreateProductRequest{
		Name:          "Cedar picket 6ft",
		Category:      "lumber",
		Unit:          "ea",
		Price:         decimal.NewFromFloat(4.25),
		Cost:          decimal.NewFromFloat(2.80),
		MarkupPercent: decimal.NewFromInt(15),
	})

	require.NoError(t, err)
	assert.Equal(t, "Cedar picket 6ft", product.Name)
	assert.True(t, product.Price.Equal(decimal.NewFromFloat(4.25)))
	assert.True(t, product.MarkupPercent.Equal(decimal.NewFromInt(15)))
	assert.True(t, product.IsActive)
	productRepo.AssertExpectations(t)
}

func TestProductServiceCreateNegativePrice(t *testing.T) {
	svc := NewProductService(new(MockProductRepository))

	_, err := svc.Create(context.Background(), CreateProductRequest{
		Name:  "Cedar picket 6ft",
		Price: decimal.NewFromInt(-1),
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PRICE", domainErr.Code)
}

func TestProductServiceUpdatePricing(t *testing.T) {
	productRepo := new(MockProductRepository)
	svc := NewProductService(productRepo)

	existing, err := catalog.NewProduct("Cedar picket 6ft", "lumber", "ea", decimal.NewFromFloat(4.25), decimal.NewFromFloat(2.80))
	require.NoError(t, err)
	productRepo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	productRepo.On("Save", mock.Anything, existing).Return(nil)

	updated, err := svc.UpdatePricing(context.Background(), existing.ID, decimal.NewFromFloat(4.75), decimal.NewFromFloat(3.10), decimal.NewFromInt(20))

	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromFloat(4.75)))
	assert.True(t, updated.Cost.Equal(decimal.NewFromFloat(3.10)))
	assert.True(t, updated.MarkupPercent.Equal(decimal.NewFromInt(20)))
}

func TestProductServiceGetNotFound(t *testing.T) {
	productRepo := new(MockProductRepository)
	svc := NewProductService(productRepo)

	id := uuid.New()
	productRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.Get(context.Background(), id)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PRODUCT_NOT_FOUND", domainErr.Code)
}

func TestProductServiceUpdateDescriptive(t *testing.T) {
	productRepo := new(MockProductRepository)
	svc := NewProductService(productRepo)

	existing, err := catalog.NewProduct("Cedar picket 6ft", "lumber", "ea", decimal.NewFromFloat(4.25), decimal.NewFromFloat(2.80))
	require.NoError(t, err)
	productRepo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	productRepo.On("Save", mock.Anything, existing).Return(nil)

	sku := "CED-PKT-6"
	updated, err := svc.Update(context.Background(), existing.ID, UpdateProductRequest{SKU: &sku})

	require.NoError(t, err)
	assert.Equal(t, "CED-PKT-6", updated.SKU)
	assert.Equal(t, "Cedar picket 6ft", updated.Name)
}
