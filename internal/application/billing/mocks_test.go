package billing

import (
	"context"
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/catalog"
	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock repositories shared by the billing service tests
// =============================================================================

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *billing.FinancialDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FinancialDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FinancialDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByNumber(ctx context.Context, number string) (*billing.FinancialDocument, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FinancialDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, filter billing.DocumentFilter) (*shared.Paginated[*billing.FinancialDocument], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.FinancialDocument]), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID, kind billing.DocumentKind) ([]*billing.FinancialDocument, error) {
	args := m.Called(ctx, customerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.FinancialDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindReadyForPickup(ctx context.Context, readyBefore time.Time) ([]*billing.FinancialDocument, error) {
	args := m.Called(ctx, readyBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.FinancialDocument), args.Error(1)
}

func (m *MockDocumentRepository) NextSequence(ctx context.Context, kind billing.DocumentKind) (int64, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(int64), args.Error(1)
}

type MockBulkPaymentRepository struct {
	mock.Mock
}

func (m *MockBulkPaymentRepository) Create(ctx context.Context, bp *billing.BulkPayment) error {
	args := m.Called(ctx, bp)
	return args.Error(0)
}

func (m *MockBulkPaymentRepository) Save(ctx context.Context, bp *billing.BulkPayment) error {
	args := m.Called(ctx, bp)
	return args.Error(0)
}

func (m *MockBulkPaymentRepository) FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*billing.BulkPayment, error) {
	args := m.Called(ctx, customerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BulkPayment), args.Error(1)
}

func (m *MockBulkPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BulkPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BulkPayment), args.Error(1)
}

func (m *MockBulkPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.BulkPayment, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.BulkPayment), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*partner.Customer]), args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) Save(ctx context.Context, vendor *partner.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Vendor), args.Error(1)
}

func (m *MockVendorRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*partner.Vendor], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*partner.Vendor]), args.Error(1)
}

func (m *MockVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

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

type MockCreditTransactionRepository struct {
	mock.Mock
}

func (m *MockCreditTransactionRepository) Create(ctx context.Context, tx *partner.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCreditTransactionRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.CreditTransaction, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*partner.CreditTransaction), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkApplied(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsApplied(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
