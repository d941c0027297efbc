package billing

import (
	"fmt"
	"time"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialDocument is the aggregate root for estimates, orders, and
// invoices. All three kinds share one lifecycle: line items and money on
// one axis, fulfillment progress on the other. The externally visible
// status is derived from both axes on read and is never stored.
type FinancialDocument struct {
	shared.BaseAggregateRoot

	Kind           DocumentKind
	DocumentNumber string

	CustomerID   *uuid.UUID
	CustomerName string // denormalized snapshot at creation time
	VendorID     *uuid.UUID
	VendorName   string

	DocumentDate time.Time
	DueDate      *time.Time

	LineItems LineItems
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal // carried through totals, currently always zero
	Total     decimal.Decimal

	Payments   Payments
	AmountPaid decimal.Decimal
	BalanceDue decimal.Decimal

	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus

	Voided     bool
	VoidReason string

	// IsFinalized locks line items and header fields. Payments and
	// fulfillment stamps remain allowed on a finalized document.
	IsFinalized bool

	ExpectedDeliveryDate *time.Time
	ReceivedDate         *time.Time
	ReceivedBy           string
	ReadyForPickUpDate   *time.Time
	PickedUpDate         *time.Time

	Notes string
}

// NewFinancialDocument creates a document of the given kind for a customer
func NewFinancialDocument(kind DocumentKind, documentNumber string, customerID uuid.UUID, customerName string, documentDate time.Time) (*FinancialDocument, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind: "+kind.String())
	}
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if documentDate.IsZero() {
		documentDate = time.Now()
	}

	doc := &FinancialDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		DocumentNumber:    documentNumber,
		CustomerID:        &customerID,
		CustomerName:      customerName,
		DocumentDate:      documentDate,
		LineItems:         LineItems{},
		Subtotal:          decimal.Zero,
		TaxAmount:         decimal.Zero,
		Total:             decimal.Zero,
		Payments:          Payments{},
		AmountPaid:        decimal.Zero,
		BalanceDue:        decimal.Zero,
		PaymentStatus:     PaymentStatusUnpaid,
		FulfillmentStatus: FulfillmentStatusDraft,
	}

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc.ID, kind, documentNumber, customerID))
	return doc, nil
}

// Status derives the single externally visible status from both axes
func (d *FinancialDocument) Status() DocumentStatus {
	return DeriveStatus(d.Total, d.AmountPaid, d.BalanceDue, d.Voided, d.FulfillmentStatus)
}

// RecalculateTotals recomputes every line total and all money fields
// from the line items and recorded payments. It is the only place the
// stored money fields are written, so a document read back from storage
// can always be re-derived by calling it again.
func (d *FinancialDocument) RecalculateTotals() {
	for i := range d.LineItems {
		d.LineItems[i].Recalculate()
	}
	d.Subtotal = d.LineItems.Subtotal()
	d.Total = valueobject.Round2(d.Subtotal.Add(d.TaxAmount))
	d.AmountPaid = d.Payments.Total()
	d.BalanceDue = valueobject.Round2(d.Total.Sub(d.AmountPaid))
	d.PaymentStatus = DerivePaymentStatus(d.AmountPaid, d.BalanceDue)
	d.IncrementVersion()
}

// AddLineItem appends a line to an open document
func (d *FinancialDocument) AddLineItem(item *LineItem) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	if item == nil {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Line item cannot be nil")
	}

	d.LineItems = append(d.LineItems, *item)
	d.RecalculateTotals()
	return nil
}

// UpdateLineItem replaces the quantity and price of an existing line
func (d *FinancialDocument) UpdateLineItem(lineID uuid.UUID, quantity, unitPrice decimal.Decimal) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	line := d.LineItems.FindByID(lineID)
	if line == nil {
		return shared.ErrNotFound
	}
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	line.Quantity = quantity
	line.UnitPrice = unitPrice
	d.RecalculateTotals()
	return nil
}

// RemoveLineItem deletes a line from an open document
func (d *FinancialDocument) RemoveLineItem(lineID uuid.UUID) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	for i := range d.LineItems {
		if d.LineItems[i].ID == lineID {
			d.LineItems = append(d.LineItems[:i], d.LineItems[i+1:]...)
			d.RecalculateTotals()
			return nil
		}
	}
	return shared.ErrNotFound
}

// ApplyPayment records a payment against the document. Overpayment is
// allowed; the balance goes negative and the document reads as Paid.
// Payments are accepted on finalized documents but never on voided ones.
func (d *FinancialDocument) ApplyPayment(payment *Payment) error {
	if d.Voided {
		return shared.NewDomainError("DOCUMENT_VOIDED", "Cannot apply payment to a voided document")
	}
	if payment == nil || !payment.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}

	d.Payments = append(d.Payments, *payment)
	d.RecalculateTotals()
	d.AddDomainEvent(NewPaymentAppliedEvent(d.ID, d.DocumentNumber, payment.ID, payment.Amount, d.BalanceDue))
	return nil
}

// Void marks the document void. Terminal for every purpose: no further
// payments, edits, or fulfillment changes.
func (d *FinancialDocument) Void(reason string) error {
	if d.Voided {
		return shared.NewDomainError("ALREADY_VOIDED", "Document is already voided")
	}
	if d.FulfillmentStatus.IsTerminal() {
		return shared.NewDomainError("DOCUMENT_COMPLETED", "Cannot void a picked-up document")
	}

	d.Voided = true
	d.VoidReason = reason
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentVoidedEvent(d.ID, d.DocumentNumber, reason))
	return nil
}

// Finalize locks the document against line item and header edits
func (d *FinancialDocument) Finalize() error {
	if d.Voided {
		return shared.NewDomainError("DOCUMENT_VOIDED", "Cannot finalize a voided document")
	}
	if d.IsFinalized {
		return nil
	}
	d.IsFinalized = true
	d.IncrementVersion()
	return nil
}

// Unfinalize reopens a finalized document for editing
func (d *FinancialDocument) Unfinalize() error {
	if d.Voided {
		return shared.NewDomainError("DOCUMENT_VOIDED", "Cannot reopen a voided document")
	}
	if !d.IsFinalized {
		return nil
	}
	d.IsFinalized = false
	d.IncrementVersion()
	return nil
}

// SetFulfillmentStatus applies an operator-driven transition, enforcing
// the ladder. Receipt-driven promotions go through promoteFulfillment
// instead and are not subject to the operator table.
func (d *FinancialDocument) SetFulfillmentStatus(target FulfillmentStatus) error {
	if d.Voided {
		return shared.NewDomainError("DOCUMENT_VOIDED", "Cannot change fulfillment on a voided document")
	}
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown fulfillment status: "+target.String())
	}
	if target == d.FulfillmentStatus {
		return nil
	}
	if !d.FulfillmentStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to %s", d.FulfillmentStatus, target))
	}

	from := d.FulfillmentStatus
	d.FulfillmentStatus = target
	d.IncrementVersion()
	d.AddDomainEvent(NewFulfillmentChangedEvent(d.ID, d.DocumentNumber, from, target))
	return nil
}

// PromoteFulfillment moves fulfillment without consulting the operator
// transition table. Used by receiving reconciliation, which derives the
// target from recorded quantities rather than operator intent.
func (d *FinancialDocument) PromoteFulfillment(target FulfillmentStatus) {
	if d.FulfillmentStatus == target {
		return
	}
	from := d.FulfillmentStatus
	d.FulfillmentStatus = target
	d.IncrementVersion()
	d.AddDomainEvent(NewFulfillmentChangedEvent(d.ID, d.DocumentNumber, from, target))
}

// AttachVendor associates a vendor, typically on purchase-side documents
func (d *FinancialDocument) AttachVendor(vendorID uuid.UUID, vendorName string) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	if vendorID == uuid.Nil {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	d.VendorID = &vendorID
	d.VendorName = vendorName
	d.IncrementVersion()
	return nil
}

// SetDueDate sets or clears the payment due date
func (d *FinancialDocument) SetDueDate(due *time.Time) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	d.DueDate = due
	d.IncrementVersion()
	return nil
}

// EffectiveDueDate returns the due date when present, falling back to
// the document date. Bulk payment ordering sorts on this value.
func (d *FinancialDocument) EffectiveDueDate() time.Time {
	if d.DueDate != nil {
		return *d.DueDate
	}
	return d.DocumentDate
}

// IsOutstanding reports whether the document still carries a collectible balance
func (d *FinancialDocument) IsOutstanding() bool {
	return !d.Voided && d.BalanceDue.GreaterThan(valueobject.CentEpsilon)
}

// StampReceived records the receipt date and actor exactly once. Later
// calls with a value already present leave the original stamp intact.
func (d *FinancialDocument) StampReceived(receivedDate time.Time, receivedBy string) {
	changed := false
	if d.ReceivedDate == nil {
		rd := receivedDate
		d.ReceivedDate = &rd
		changed = true
	}
	if d.ReceivedBy == "" && receivedBy != "" {
		d.ReceivedBy = receivedBy
		changed = true
	}
	if changed {
		d.IncrementVersion()
	}
}

// StampReadyForPickup records the ready-for-pickup date exactly once
func (d *FinancialDocument) StampReadyForPickup(readyDate time.Time) {
	if d.ReadyForPickUpDate != nil {
		return
	}
	rd := readyDate
	d.ReadyForPickUpDate = &rd
	d.IncrementVersion()
}

// StampPickedUp records the pickup date exactly once
func (d *FinancialDocument) StampPickedUp(pickedUpDate time.Time) {
	if d.PickedUpDate != nil {
		return
	}
	pd := pickedUpDate
	d.PickedUpDate = &pd
	d.IncrementVersion()
}

// ConvertTo produces a new document of the target kind carrying over the
// customer, lines, and notes. Payments and fulfillment history stay on
// the source. The conversion order is estimate -> order -> invoice; the
// source document is left untouched apart from finalization.
func (d *FinancialDocument) ConvertTo(kind DocumentKind, documentNumber string, documentDate time.Time) (*FinancialDocument, error) {
	if d.Voided {
		return nil, shared.NewDomainError("DOCUMENT_VOIDED", "Cannot convert a voided document")
	}
	if !d.Kind.CanConvertTo(kind) {
		return nil, shared.NewDomainError("INVALID_CONVERSION",
			fmt.Sprintf("Cannot convert %s to %s", d.Kind, kind))
	}
	if d.CustomerID == nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Source document has no customer")
	}

	target, err := NewFinancialDocument(kind, documentNumber, *d.CustomerID, d.CustomerName, documentDate)
	if err != nil {
		return nil, err
	}

	target.LineItems = make(LineItems, len(d.LineItems))
	copy(target.LineItems, d.LineItems)
	for i := range target.LineItems {
		target.LineItems[i].ID = uuid.New()
		target.LineItems[i].ReceivedQuantity = decimal.Zero
	}
	target.VendorID = d.VendorID
	target.VendorName = d.VendorName
	target.Notes = d.Notes
	target.TaxAmount = d.TaxAmount
	target.RecalculateTotals()

	if err := d.Finalize(); err != nil {
		return nil, err
	}
	d.AddDomainEvent(NewDocumentConvertedEvent(d.ID, d.DocumentNumber, target.ID, kind))
	return target, nil
}

func (d *FinancialDocument) ensureEditable() error {
	if d.Voided {
		return shared.NewDomainError("DOCUMENT_VOIDED", "Document is voided")
	}
	if d.IsFinalized {
		return shared.ErrDocumentFinalized
	}
	return nil
}
