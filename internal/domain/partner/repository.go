package partner

import (
	"context"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository persists customers
type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Customer], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VendorRepository persists vendors
type VendorRepository interface {
	Save(ctx context.Context, vendor *Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Vendor], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreditTransactionRepository is an append-only ledger store
type CreditTransactionRepository interface {
	Create(ctx context.Context, tx *CreditTransaction) error
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CreditTransaction, error)
}
