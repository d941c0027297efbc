package fulfillment

import (
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptLine carries one line's received quantity as entered at the dock
type ReceiptLine struct {
	LineItemID       uuid.UUID
	ReceivedQuantity decimal.Decimal
}

// Backorder is the derived shortfall for one line. It is computed on
// read from quantity and receivedQuantity and never persisted.
type Backorder struct {
	LineItemID  uuid.UUID
	Name        string
	Ordered     decimal.Decimal
	Received    decimal.Decimal
	Backordered decimal.Decimal
}

// ApplyReceipt records received quantities against a document's lines and
// reconciles the fulfillment status from the totals:
//
//	totalReceived >= totalOrdered        -> RECEIVED
//	0 < totalReceived < totalOrdered     -> PARTIAL_RECEIVED
//	totalReceived == 0                   -> status unchanged
//
// The promotion bypasses the operator transition table since the target
// follows from the quantities. On the first transition into a received
// state the receipt date and actor are stamped and later saves never
// overwrite them.
func ApplyReceipt(doc *billing.FinancialDocument, lines []ReceiptLine, receivedBy string, now time.Time) error {
	if doc == nil {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document cannot be nil")
	}
	if doc.Voided {
		return shared.NewDomainError("DOCUMENT_VOIDED", "Cannot receive against a voided document")
	}
	if doc.FulfillmentStatus.IsTerminal() {
		return shared.NewDomainError("DOCUMENT_COMPLETED", "Cannot receive against a picked-up document")
	}

	for _, rl := range lines {
		if rl.ReceivedQuantity.IsNegative() {
			return shared.NewDomainError("INVALID_QUANTITY", "Received quantity cannot be negative")
		}
		line := doc.LineItems.FindByID(rl.LineItemID)
		if line == nil {
			return shared.ErrNotFound
		}
		line.ReceivedQuantity = rl.ReceivedQuantity
	}

	totalOrdered := doc.LineItems.TotalOrdered()
	totalReceived := doc.LineItems.TotalReceived()

	switch {
	case !totalReceived.IsPositive():
		// nothing received yet, leave the status alone
	case totalReceived.GreaterThanOrEqual(totalOrdered):
		doc.PromoteFulfillment(billing.FulfillmentStatusReceived)
		doc.StampReceived(now, receivedBy)
	default:
		doc.PromoteFulfillment(billing.FulfillmentStatusPartialReceived)
		doc.StampReceived(now, receivedBy)
	}

	doc.IncrementVersion()
	return nil
}

// MarkReadyForPickup moves the document to READY_FOR_PICKUP through the
// operator ladder and stamps the ready date once
func MarkReadyForPickup(doc *billing.FinancialDocument, now time.Time) error {
	if err := doc.SetFulfillmentStatus(billing.FulfillmentStatusReadyForPickup); err != nil {
		return err
	}
	doc.StampReadyForPickup(now)
	return nil
}

// MarkPickedUp moves the document to its terminal PICKED_UP state and
// stamps the pickup date once
func MarkPickedUp(doc *billing.FinancialDocument, now time.Time) error {
	if err := doc.SetFulfillmentStatus(billing.FulfillmentStatusPickedUp); err != nil {
		return err
	}
	doc.StampPickedUp(now)
	return nil
}

// Backorders derives the per-line shortfall for display. Lines with
// nothing outstanding are skipped.
func Backorders(doc *billing.FinancialDocument) []Backorder {
	out := make([]Backorder, 0, len(doc.LineItems))
	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		b := li.Backordered()
		if !b.IsPositive() {
			continue
		}
		out = append(out, Backorder{
			LineItemID:  li.ID,
			Name:        li.Name,
			Ordered:     li.Quantity,
			Received:    li.ReceivedQuantity,
			Backordered: b,
		})
	}
	return out
}

// PickupReminderDue reports whether a ready-for-pickup document has sat
// for at least the given number of business days (Mon-Fri, no holiday
// calendar). The ready day itself does not count.
func PickupReminderDue(doc *billing.FinancialDocument, now time.Time, thresholdDays int) bool {
	if doc.FulfillmentStatus != billing.FulfillmentStatusReadyForPickup || doc.ReadyForPickUpDate == nil {
		return false
	}
	return BusinessDaysBetween(*doc.ReadyForPickUpDate, now) >= thresholdDays
}

// BusinessDaysBetween counts the weekdays strictly after from, up to and
// including to. A negative range counts as zero.
func BusinessDaysBetween(from, to time.Time) int {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if !to.After(from) {
		return 0
	}

	days := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
