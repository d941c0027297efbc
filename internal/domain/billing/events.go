package billing

import (
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const aggregateTypeDocument = "FinancialDocument"

// DocumentCreatedEvent is raised when a new financial document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	Kind           DocumentKind `json:"kind"`
	DocumentNumber string       `json:"document_number"`
	CustomerID     uuid.UUID    `json:"customer_id"`
}

func NewDocumentCreatedEvent(docID uuid.UUID, kind DocumentKind, documentNumber string, customerID uuid.UUID) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("document.created", aggregateTypeDocument, docID),
		Kind:            kind,
		DocumentNumber:  documentNumber,
		CustomerID:      customerID,
	}
}

// PaymentAppliedEvent is raised whenever money is applied to a document
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string          `json:"document_number"`
	PaymentID      uuid.UUID       `json:"payment_id"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
}

func NewPaymentAppliedEvent(docID uuid.UUID, documentNumber string, paymentID uuid.UUID, amount, balanceDue decimal.Decimal) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("document.payment_applied", aggregateTypeDocument, docID),
		DocumentNumber:  documentNumber,
		PaymentID:       paymentID,
		Amount:          amount,
		BalanceDue:      balanceDue,
	}
}

// DocumentVoidedEvent is raised when a document is voided
type DocumentVoidedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string `json:"document_number"`
	Reason         string `json:"reason,omitempty"`
}

func NewDocumentVoidedEvent(docID uuid.UUID, documentNumber, reason string) *DocumentVoidedEvent {
	return &DocumentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("document.voided", aggregateTypeDocument, docID),
		DocumentNumber:  documentNumber,
		Reason:          reason,
	}
}

// FulfillmentChangedEvent is raised on every fulfillment axis move,
// whether operator-driven or receipt-driven
type FulfillmentChangedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string            `json:"document_number"`
	From           FulfillmentStatus `json:"from"`
	To             FulfillmentStatus `json:"to"`
}

func NewFulfillmentChangedEvent(docID uuid.UUID, documentNumber string, from, to FulfillmentStatus) *FulfillmentChangedEvent {
	return &FulfillmentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("document.fulfillment_changed", aggregateTypeDocument, docID),
		DocumentNumber:  documentNumber,
		From:            from,
		To:              to,
	}
}

// DocumentConvertedEvent is raised on the source document when it is
// converted into a downstream kind
type DocumentConvertedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string       `json:"document_number"`
	TargetID       uuid.UUID    `json:"target_id"`
	TargetKind     DocumentKind `json:"target_kind"`
}

func NewDocumentConvertedEvent(docID uuid.UUID, documentNumber string, targetID uuid.UUID, targetKind DocumentKind) *DocumentConvertedEvent {
	return &DocumentConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("document.converted", aggregateTypeDocument, docID),
		DocumentNumber:  documentNumber,
		TargetID:        targetID,
		TargetKind:      targetKind,
	}
}
