package billing

import (
	"context"
	"time"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentFilter narrows document list queries
type DocumentFilter struct {
	shared.Filter
	Kind              *DocumentKind
	CustomerID        *uuid.UUID
	VendorID          *uuid.UUID
	PaymentStatus     *PaymentStatus
	FulfillmentStatus *FulfillmentStatus
	IncludeVoided     bool
	DateFrom          *time.Time
	DateTo            *time.Time
}

// DocumentRepository persists financial documents
type DocumentRepository interface {
	Save(ctx context.Context, doc *FinancialDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialDocument, error)
	FindByNumber(ctx context.Context, number string) (*FinancialDocument, error)
	FindAll(ctx context.Context, filter DocumentFilter) (*shared.Paginated[*FinancialDocument], error)
	Delete(ctx context.Context, id uuid.UUID) error

	// FindOutstandingByCustomer returns non-voided documents of the kind
	// with a positive balance, ordered oldest first by effective due date.
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID, kind DocumentKind) ([]*FinancialDocument, error)

	// FindReadyForPickup returns documents sitting in READY_FOR_PICKUP
	// whose ready date is on or before the cutoff.
	FindReadyForPickup(ctx context.Context, readyBefore time.Time) ([]*FinancialDocument, error)

	// NextSequence reserves the next document number sequence for the kind
	NextSequence(ctx context.Context, kind DocumentKind) (int64, error)
}

// BulkPaymentRepository persists bulk payment audit records. Records
// are created once; Save exists so a retried run can complete the
// record it started.
type BulkPaymentRepository interface {
	Create(ctx context.Context, bp *BulkPayment) error
	Save(ctx context.Context, bp *BulkPayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*BulkPayment, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*BulkPayment, error)

	// FindByIdempotencyKey returns the customer's record created under
	// the given retry key, or nil when no such run has been recorded.
	FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*BulkPayment, error)
}
