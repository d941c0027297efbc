package partner

import (
	"time"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditTransactionType classifies a credit ledger entry
type CreditTransactionType string

const (
	CreditDeposit       CreditTransactionType = "DEPOSIT"
	CreditBulkRemainder CreditTransactionType = "BULK_REMAINDER"
	CreditConsume       CreditTransactionType = "CONSUME"
	CreditAdjustment    CreditTransactionType = "ADJUSTMENT"
)

// IsValid checks whether the transaction type is a known value
func (t CreditTransactionType) IsValid() bool {
	switch t {
	case CreditDeposit, CreditBulkRemainder, CreditConsume, CreditAdjustment:
		return true
	}
	return false
}

// CreditTransactionSource identifies what produced the entry
type CreditTransactionSource string

const (
	SourceManual      CreditTransactionSource = "MANUAL"
	SourceBulkPayment CreditTransactionSource = "BULK_PAYMENT"
	SourceInvoice     CreditTransactionSource = "INVOICE"
)

// CreditTransaction is one append-only entry in a customer's credit
// ledger. Amount is signed: positive for deposits, negative for draws.
// BalanceBefore and BalanceAfter snapshot the running balance so the
// ledger can be audited without replaying it.
type CreditTransaction struct {
	shared.BaseEntity

	CustomerID    uuid.UUID
	Type          CreditTransactionType
	Source        CreditTransactionSource
	SourceID      *uuid.UUID // bulk payment or invoice reference
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Date          time.Time
	Notes         string
}

// NewCreditTransaction records one credit balance movement
func NewCreditTransaction(customerID uuid.UUID, txType CreditTransactionType, source CreditTransactionSource, amount, balanceBefore, balanceAfter decimal.Decimal, date time.Time) (*CreditTransaction, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Unknown credit transaction type")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_CREDIT_AMOUNT", "Credit transaction amount cannot be zero")
	}

	return &CreditTransaction{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		Type:          txType,
		Source:        source,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Date:          date,
	}, nil
}
