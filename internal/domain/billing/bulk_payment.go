package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BulkPaymentApplication records how much of a bulk payment landed on one invoice
type BulkPaymentApplication struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

// BulkPaymentApplications is stored as JSONB on the bulk payment record
type BulkPaymentApplications []BulkPaymentApplication

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a BulkPaymentApplications) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *BulkPaymentApplications) Scan(value interface{}) error {
	if value == nil {
		*a = BulkPaymentApplications{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan BulkPaymentApplications: unsupported type")
	}

	if len(bytes) == 0 {
		*a = BulkPaymentApplications{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// TotalApplied sums the amounts applied across all invoices
func (a BulkPaymentApplications) TotalApplied() decimal.Decimal {
	sum := decimal.Zero
	for i := range a {
		sum = sum.Add(a[i].AmountApplied)
	}
	return sum
}

// BulkPayment is the audit record of one bulk payment run. It is
// written after application and only ever grows: a retry of the same
// run appends the shares it completed, corrections are new runs. The
// per-invoice payments themselves live on the invoices.
type BulkPayment struct {
	shared.BaseAggregateRoot

	CustomerID   uuid.UUID
	CustomerName string

	Amount         decimal.Decimal
	Date           time.Time
	Method         PaymentMethod
	Reference      string
	Notes          string
	Applications   BulkPaymentApplications
	CreditedAmount decimal.Decimal // remainder deposited to customer credit

	// IdempotencyKey is the caller-supplied retry key of the run. A
	// retried request carrying the same key finds this record and places
	// only the unaccounted portion. Empty when the caller sent none.
	IdempotencyKey string

	// IsCreditDeposit marks a run that applied nothing to invoices and
	// put the entire amount on the customer's credit balance.
	IsCreditDeposit bool
}

// NewBulkPayment creates the audit record for a bulk payment run
func NewBulkPayment(customerID uuid.UUID, customerName string, amount decimal.Decimal, date time.Time, method PaymentMethod) (*BulkPayment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Bulk payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+method.String())
	}
	if date.IsZero() {
		date = time.Now()
	}

	return &BulkPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		CustomerName:      customerName,
		Amount:            amount,
		Date:              date,
		Method:            method,
		Applications:      BulkPaymentApplications{},
		CreditedAmount:    decimal.Zero,
	}, nil
}

// RecordApplication appends one invoice application to the audit trail
func (b *BulkPayment) RecordApplication(invoiceID uuid.UUID, invoiceNumber string, amountApplied decimal.Decimal) {
	b.Applications = append(b.Applications, BulkPaymentApplication{
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		AmountApplied: amountApplied,
	})
}

// RecordCredit records the unapplied remainder that went to customer credit
func (b *BulkPayment) RecordCredit(amount decimal.Decimal) {
	b.CreditedAmount = amount
	if len(b.Applications) == 0 && valueobject.ApproxEqual(amount, b.Amount) {
		b.IsCreditDeposit = true
	}
}

// Unaccounted returns the portion of the run neither applied nor credited.
// A completed run reads zero within the cent epsilon.
func (b *BulkPayment) Unaccounted() decimal.Decimal {
	return b.Amount.Sub(b.Applications.TotalApplied()).Sub(b.CreditedAmount)
}
