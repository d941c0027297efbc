package models

import (
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the FinancialDocument aggregate.
// Line items and payments are stored as JSONB alongside the header so a
// document loads and saves as one row.
type DocumentModel struct {
	AggregateModel
	Kind           billing.DocumentKind `gorm:"type:varchar(20);not null;index"`
	DocumentNumber string               `gorm:"type:varchar(50);not null;uniqueIndex"`

	CustomerID   *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName string     `gorm:"type:varchar(200)"`
	VendorID     *uuid.UUID `gorm:"type:uuid;index"`
	VendorName   string     `gorm:"type:varchar(200)"`

	DocumentDate time.Time  `gorm:"not null;index"`
	DueDate      *time.Time `gorm:"index"`

	LineItems billing.LineItems `gorm:"type:jsonb;not null"`
	Subtotal  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Total     decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`

	Payments   billing.Payments `gorm:"type:jsonb;not null"`
	AmountPaid decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceDue decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`

	PaymentStatus     billing.PaymentStatus     `gorm:"type:varchar(20);not null;index"`
	FulfillmentStatus billing.FulfillmentStatus `gorm:"type:varchar(30);not null;index"`

	Voided     bool   `gorm:"not null;default:false;index"`
	VoidReason string `gorm:"type:text"`

	IsFinalized bool `gorm:"not null;default:false"`

	ExpectedDeliveryDate *time.Time
	ReceivedDate         *time.Time
	ReceivedBy           string `gorm:"type:varchar(100)"`
	ReadyForPickUpDate   *time.Time `gorm:"index"`
	PickedUpDate         *time.Time

	Notes string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain FinancialDocument.
func (m *DocumentModel) ToDomain() *billing.FinancialDocument {
	doc := &billing.FinancialDocument{
		Kind:                 m.Kind,
		DocumentNumber:       m.DocumentNumber,
		CustomerID:           m.CustomerID,
		CustomerName:         m.CustomerName,
		VendorID:             m.VendorID,
		VendorName:           m.VendorName,
		DocumentDate:         m.DocumentDate,
		DueDate:              m.DueDate,
		LineItems:            m.LineItems,
		Subtotal:             m.Subtotal,
		TaxAmount:            m.TaxAmount,
		Total:                m.Total,
		Payments:             m.Payments,
		AmountPaid:           m.AmountPaid,
		BalanceDue:           m.BalanceDue,
		PaymentStatus:        m.PaymentStatus,
		FulfillmentStatus:    m.FulfillmentStatus,
		Voided:               m.Voided,
		VoidReason:           m.VoidReason,
		IsFinalized:          m.IsFinalized,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		ReceivedDate:         m.ReceivedDate,
		ReceivedBy:           m.ReceivedBy,
		ReadyForPickUpDate:   m.ReadyForPickUpDate,
		PickedUpDate:         m.PickedUpDate,
		Notes:                m.Notes,
	}
	m.PopulateAggregateRoot(&doc.BaseAggregateRoot)
	return doc
}

// FromDomain populates the persistence model from a domain FinancialDocument.
func (m *DocumentModel) FromDomain(d *billing.FinancialDocument) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.Kind = d.Kind
	m.DocumentNumber = d.DocumentNumber
	m.CustomerID = d.CustomerID
	m.CustomerName = d.CustomerName
	m.VendorID = d.VendorID
	m.VendorName = d.VendorName
	m.DocumentDate = d.DocumentDate
	m.DueDate = d.DueDate
	m.LineItems = d.LineItems
	m.Subtotal = d.Subtotal
	m.TaxAmount = d.TaxAmount
	m.Total = d.Total
	m.Payments = d.Payments
	m.AmountPaid = d.AmountPaid
	m.BalanceDue = d.BalanceDue
	m.PaymentStatus = d.PaymentStatus
	m.FulfillmentStatus = d.FulfillmentStatus
	m.Voided = d.Voided
	m.VoidReason = d.VoidReason
	m.IsFinalized = d.IsFinalized
	m.ExpectedDeliveryDate = d.ExpectedDeliveryDate
	m.ReceivedDate = d.ReceivedDate
	m.ReceivedBy = d.ReceivedBy
	m.ReadyForPickUpDate = d.ReadyForPickUpDate
	m.PickedUpDate = d.PickedUpDate
	m.Notes = d.Notes
}

// DocumentModelFromDomain creates a new persistence model from a domain FinancialDocument.
func DocumentModelFromDomain(d *billing.FinancialDocument) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// BulkPaymentModel is the persistence model for the BulkPayment audit record.
type BulkPaymentModel struct {
	AggregateModel
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName string    `gorm:"type:varchar(200)"`

	Amount         decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	Date           time.Time                       `gorm:"not null"`
	Method         billing.PaymentMethod           `gorm:"type:varchar(20);not null"`
	Reference      string                          `gorm:"type:varchar(100)"`
	Notes          string                          `gorm:"type:text"`
	IdempotencyKey string                          `gorm:"type:varchar(100);index"`
	Applications   billing.BulkPaymentApplications `gorm:"type:jsonb;not null"`
	CreditedAmount decimal.Decimal                 `gorm:"type:decimal(18,2);not null;default:0"`

	IsCreditDeposit bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (BulkPaymentModel) TableName() string {
	return "bulk_payments"
}

// ToDomain converts the persistence model to a domain BulkPayment.
func (m *BulkPaymentModel) ToDomain() *billing.BulkPayment {
	bp := &billing.BulkPayment{
		CustomerID:      m.CustomerID,
		CustomerName:    m.CustomerName,
		Amount:          m.Amount,
		Date:            m.Date,
		Method:          m.Method,
		Reference:       m.Reference,
		Notes:           m.Notes,
		IdempotencyKey:  m.IdempotencyKey,
		Applications:    m.Applications,
		CreditedAmount:  m.CreditedAmount,
		IsCreditDeposit: m.IsCreditDeposit,
	}
	m.PopulateAggregateRoot(&bp.BaseAggregateRoot)
	return bp
}

// FromDomain populates the persistence model from a domain BulkPayment.
func (m *BulkPaymentModel) FromDomain(bp *billing.BulkPayment) {
	m.FromDomainAggregateRoot(bp.BaseAggregateRoot)
	m.CustomerID = bp.CustomerID
	m.CustomerName = bp.CustomerName
	m.Amount = bp.Amount
	m.Date = bp.Date
	m.Method = bp.Method
	m.Reference = bp.Reference
	m.Notes = bp.Notes
	m.IdempotencyKey = bp.IdempotencyKey
	m.Applications = bp.Applications
	m.CreditedAmount = bp.CreditedAmount
	m.IsCreditDeposit = bp.IsCreditDeposit
}

// BulkPaymentModelFromDomain creates a new persistence model from a domain BulkPayment.
func BulkPaymentModelFromDomain(bp *billing.BulkPayment) *BulkPaymentModel {
	m := &BulkPaymentModel{}
	m.FromDomain(bp)
	return m
}

// DocumentSequenceModel backs per-kind document numbering. One row per
// document kind, incremented atomically on reservation.
type DocumentSequenceModel struct {
	Kind  string `gorm:"type:varchar(20);primary_key"`
	Value int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
