package billing

import (
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes the three financial document types.
// They share one shape; only the status vocabulary and numbering differ.
type DocumentKind string

const (
	DocumentKindEstimate DocumentKind = "ESTIMATE"
	DocumentKindOrder    DocumentKind = "ORDER"
	DocumentKindInvoice  DocumentKind = "INVOICE"
)

// IsValid checks if the kind is a valid DocumentKind
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindEstimate, DocumentKindOrder, DocumentKindInvoice:
		return true
	}
	return false
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// NumberPrefix returns the document-number prefix for the kind
func (k DocumentKind) NumberPrefix() string {
	switch k {
	case DocumentKindEstimate:
		return "EST"
	case DocumentKindOrder:
		return "ORD"
	case DocumentKindInvoice:
		return "INV"
	}
	return "DOC"
}

// CanConvertTo checks whether a document of this kind converts forward
// into the target kind. Conversion only moves toward the invoice.
func (k DocumentKind) CanConvertTo(target DocumentKind) bool {
	switch k {
	case DocumentKindEstimate:
		return target == DocumentKindOrder || target == DocumentKindInvoice
	case DocumentKindOrder:
		return target == DocumentKindInvoice
	}
	return false
}

// PaymentStatus is the payment-derived axis of a document's lifecycle.
// It is always recomputed from amounts, never set directly.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// FulfillmentStatus is the fulfillment/manual axis of a document's lifecycle.
// Operators move documents along this ladder; the only automatic transitions
// are the receipt-driven promotions to PARTIAL_RECEIVED and RECEIVED.
type FulfillmentStatus string

const (
	FulfillmentStatusDraft           FulfillmentStatus = "DRAFT"
	FulfillmentStatusSent            FulfillmentStatus = "SENT"
	FulfillmentStatusPending         FulfillmentStatus = "PENDING" // vendor attached, order not yet placed
	FulfillmentStatusOrdered         FulfillmentStatus = "ORDERED"
	FulfillmentStatusShipped         FulfillmentStatus = "SHIPPED"
	FulfillmentStatusPartialReceived FulfillmentStatus = "PARTIAL_RECEIVED"
	FulfillmentStatusReceived        FulfillmentStatus = "RECEIVED"
	FulfillmentStatusPartialPacked   FulfillmentStatus = "PARTIAL_PACKED"
	FulfillmentStatusPacked          FulfillmentStatus = "PACKED"
	FulfillmentStatusReadyForPickup  FulfillmentStatus = "READY_FOR_PICKUP"
	FulfillmentStatusPickedUp        FulfillmentStatus = "PICKED_UP"
	FulfillmentStatusDiscrepancy     FulfillmentStatus = "DISCREPANCY"
)

// IsValid checks if the status is a valid FulfillmentStatus
func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case FulfillmentStatusDraft, FulfillmentStatusSent, FulfillmentStatusPending,
		FulfillmentStatusOrdered, FulfillmentStatusShipped,
		FulfillmentStatusPartialReceived, FulfillmentStatusReceived,
		FulfillmentStatusPartialPacked, FulfillmentStatusPacked,
		FulfillmentStatusReadyForPickup, FulfillmentStatusPickedUp,
		FulfillmentStatusDiscrepancy:
		return true
	}
	return false
}

// String returns the string representation of FulfillmentStatus
func (s FulfillmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no operator transition leaves this status
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentStatusPickedUp
}

// IsReceivedState returns true for the two receipt-derived states
func (s FulfillmentStatus) IsReceivedState() bool {
	return s == FulfillmentStatusPartialReceived || s == FulfillmentStatusReceived
}

// CanTransitionTo checks if an operator may move the status to the target.
// Receipt-driven promotions bypass this table (see ApplyReceipt).
func (s FulfillmentStatus) CanTransitionTo(target FulfillmentStatus) bool {
	if target == FulfillmentStatusDiscrepancy {
		// Discrepancy is a corrective side state reachable from any
		// non-terminal status.
		return !s.IsTerminal()
	}
	switch s {
	case FulfillmentStatusDraft:
		return target == FulfillmentStatusSent || target == FulfillmentStatusOrdered
	case FulfillmentStatusSent:
		return target == FulfillmentStatusOrdered ||
			target == FulfillmentStatusPartialPacked || target == FulfillmentStatusPacked
	case FulfillmentStatusPending:
		return target == FulfillmentStatusOrdered
	case FulfillmentStatusOrdered:
		return target == FulfillmentStatusShipped ||
			target == FulfillmentStatusPartialReceived || target == FulfillmentStatusReceived
	case FulfillmentStatusShipped:
		return target == FulfillmentStatusPartialReceived || target == FulfillmentStatusReceived
	case FulfillmentStatusPartialReceived:
		return target == FulfillmentStatusReceived || target == FulfillmentStatusReadyForPickup
	case FulfillmentStatusReceived:
		return target == FulfillmentStatusReadyForPickup
	case FulfillmentStatusPartialPacked:
		return target == FulfillmentStatusPacked || target == FulfillmentStatusReadyForPickup
	case FulfillmentStatusPacked:
		return target == FulfillmentStatusReadyForPickup || target == FulfillmentStatusPickedUp
	case FulfillmentStatusReadyForPickup:
		return target == FulfillmentStatusPickedUp
	case FulfillmentStatusPickedUp:
		return false
	case FulfillmentStatusDiscrepancy:
		return target == FulfillmentStatusOrdered || target == FulfillmentStatusReceived
	}
	return false
}

// DocumentStatus is the single externally-visible lifecycle status.
// It is derived from the two internal axes plus the voided flag and is
// never stored as the source of truth.
type DocumentStatus string

const (
	StatusDraft          DocumentStatus = "Draft"
	StatusSent           DocumentStatus = "Sent"
	StatusPending        DocumentStatus = "Pending"
	StatusOrdered        DocumentStatus = "Ordered"
	StatusShipped        DocumentStatus = "Shipped"
	StatusPartialRcvd    DocumentStatus = "Partial Received"
	StatusReceived       DocumentStatus = "Received"
	StatusPartialPacked  DocumentStatus = "Partial Packed"
	StatusPacked         DocumentStatus = "Packed"
	StatusReadyForPickup DocumentStatus = "Ready for pick up"
	StatusPickedUp       DocumentStatus = "Picked up"
	StatusPartiallyPaid  DocumentStatus = "Partially Paid"
	StatusPaid           DocumentStatus = "Paid"
	StatusVoided         DocumentStatus = "Voided"
	StatusDiscrepancy    DocumentStatus = "Discrepancy"
)

// displayStatus maps the fulfillment axis to its external vocabulary
func displayStatus(s FulfillmentStatus) DocumentStatus {
	switch s {
	case FulfillmentStatusDraft:
		return StatusDraft
	case FulfillmentStatusSent:
		return StatusSent
	case FulfillmentStatusPending:
		return StatusPending
	case FulfillmentStatusOrdered:
		return StatusOrdered
	case FulfillmentStatusShipped:
		return StatusShipped
	case FulfillmentStatusPartialReceived:
		return StatusPartialRcvd
	case FulfillmentStatusReceived:
		return StatusReceived
	case FulfillmentStatusPartialPacked:
		return StatusPartialPacked
	case FulfillmentStatusPacked:
		return StatusPacked
	case FulfillmentStatusReadyForPickup:
		return StatusReadyForPickup
	case FulfillmentStatusPickedUp:
		return StatusPickedUp
	case FulfillmentStatusDiscrepancy:
		return StatusDiscrepancy
	}
	return StatusDraft
}

// DeriveStatus produces the externally-visible status from the document's
// amounts and axes. The ordering is load-bearing: a voided document is
// Voided no matter what; a fully paid document is Paid even if it also sits
// somewhere on the fulfillment ladder; an unpaid document keeps its
// fulfillment status rather than being forced into a payment status.
func DeriveStatus(total, amountPaid, balanceDue decimal.Decimal, voided bool, fulfillment FulfillmentStatus) DocumentStatus {
	switch {
	case voided:
		return StatusVoided
	case total.GreaterThan(valueobject.CentEpsilon) && !balanceDue.GreaterThan(valueobject.CentEpsilon):
		return StatusPaid
	case total.GreaterThan(valueobject.CentEpsilon) && amountPaid.IsPositive() && balanceDue.GreaterThan(valueobject.CentEpsilon):
		return StatusPartiallyPaid
	case !total.GreaterThan(valueobject.CentEpsilon) && !balanceDue.GreaterThan(valueobject.CentEpsilon):
		// Zero-total documents are trivially paid.
		return StatusPaid
	default:
		return displayStatus(fulfillment)
	}
}

// DerivePaymentStatus recomputes the payment axis from the amounts
func DerivePaymentStatus(amountPaid, balanceDue decimal.Decimal) PaymentStatus {
	switch {
	case !balanceDue.GreaterThan(valueobject.CentEpsilon):
		return PaymentStatusPaid
	case amountPaid.IsPositive():
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}
