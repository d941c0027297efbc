package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was tendered
type PaymentMethod string

const (
	MethodCash          PaymentMethod = "CASH"
	MethodCheck         PaymentMethod = "CHECK"
	MethodCreditCard    PaymentMethod = "CREDIT_CARD"
	MethodDebitCard     PaymentMethod = "DEBIT_CARD"
	MethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	MethodAccountCredit PaymentMethod = "ACCOUNT_CREDIT"
	MethodOther         PaymentMethod = "OTHER"
)

// IsValid checks whether the payment method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodCreditCard, MethodDebitCard,
		MethodBankTransfer, MethodAccountCredit, MethodOther:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is an immutable record of money applied to a document.
// Payments are never edited or removed; corrections are made by voiding
// the document or recording an offsetting entry.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Method        PaymentMethod   `json:"method"`
	Reference     string          `json:"reference,omitempty"` // check number, last four, etc.
	Notes         string          `json:"notes,omitempty"`
	BulkPaymentID *uuid.UUID      `json:"bulk_payment_id,omitempty"`
}

// NewPayment creates a payment record with a positive amount
func NewPayment(amount decimal.Decimal, date time.Time, method PaymentMethod) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+method.String())
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	return &Payment{
		ID:     uuid.New(),
		Amount: amount,
		Date:   date,
		Method: method,
	}, nil
}

// Payments is a slice of Payment that implements GORM Scanner/Valuer for JSONB storage
type Payments []Payment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *Payments) Scan(value interface{}) error {
	if value == nil {
		*p = Payments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Payments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = Payments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Total returns the sum of all payment amounts
func (p Payments) Total() decimal.Decimal {
	sum := decimal.Zero
	for i := range p {
		sum = sum.Add(p[i].Amount)
	}
	return sum
}

// HasBulkPayment reports whether any payment came from the given bulk run.
// Used to make bulk application retries idempotent per invoice.
func (p Payments) HasBulkPayment(bulkID uuid.UUID) bool {
	for i := range p {
		if p[i].BulkPaymentID != nil && *p[i].BulkPaymentID == bulkID {
			return true
		}
	}
	return false
}
