package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T) *FinancialDocument {
	t.Helper()
	doc, err := NewFinancialDocument(DocumentKindInvoice, "INV-1001", uuid.New(), "Hilltop Fencing", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return doc
}

func addLine(t *testing.T, doc *FinancialDocument, name, qty, price string) *LineItem {
	t.Helper()
	li, err := NewLineItem(name, dec(qty), dec(price))
	require.NoError(t, err)
	require.NoError(t, doc.AddLineItem(li))
	return doc.LineItems.FindByID(li.ID)
}

func TestNewFinancialDocument(t *testing.T) {
	t.Run("starts unpaid in draft", func(t *testing.T) {
		doc := newTestInvoice(t)
		assert.Equal(t, PaymentStatusUnpaid, doc.PaymentStatus)
		assert.Equal(t, FulfillmentStatusDraft, doc.FulfillmentStatus)
		assert.Len(t, doc.GetDomainEvents(), 1)
	})

	t.Run("rejects invalid kind", func(t *testing.T) {
		_, err := NewFinancialDocument(DocumentKind("RECEIPT"), "X-1", uuid.New(), "", time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewFinancialDocument(DocumentKindInvoice, "", uuid.New(), "", time.Now())
		assert.Error(t, err)
	})
}

func TestDocumentRecalculateTotals(t *testing.T) {
	t.Run("totals follow line items", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Cedar picket 6ft", "100", "3.35")
		addLine(t, doc, "Line post", "12", "18.755")

		// 335.00 + 225.06
		assert.True(t, doc.Subtotal.Equal(dec("560.06")), "subtotal %s", doc.Subtotal)
		assert.True(t, doc.Total.Equal(doc.Subtotal))
		assert.True(t, doc.TaxAmount.IsZero())
		assert.True(t, doc.BalanceDue.Equal(doc.Total))
	})

	t.Run("returns reduce the total", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Cedar picket 6ft", "100", "3.35")
		ret := addLine(t, doc, "Damaged picket return", "10", "3.35")
		ret.MarkReturn()
		doc.RecalculateTotals()

		assert.True(t, doc.Total.Equal(dec("301.50")), "total %s", doc.Total)
	})

	t.Run("idempotent", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "3", "4.335")
		first := doc.Total
		doc.RecalculateTotals()
		doc.RecalculateTotals()
		assert.True(t, doc.Total.Equal(first))
	})
}

func TestDocumentApplyPayment(t *testing.T) {
	when := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("partial then full", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Cedar picket 6ft", "100", "3.35")

		p1, err := NewPayment(dec("100.00"), when, MethodCheck)
		require.NoError(t, err)
		require.NoError(t, doc.ApplyPayment(p1))
		assert.Equal(t, PaymentStatusPartiallyPaid, doc.PaymentStatus)
		assert.Equal(t, StatusPartiallyPaid, doc.Status())
		assert.True(t, doc.BalanceDue.Equal(dec("235.00")))

		p2, err := NewPayment(dec("235.00"), when, MethodCash)
		require.NoError(t, err)
		require.NoError(t, doc.ApplyPayment(p2))
		assert.Equal(t, PaymentStatusPaid, doc.PaymentStatus)
		assert.Equal(t, StatusPaid, doc.Status())
	})

	t.Run("within epsilon counts as paid", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Cedar picket 6ft", "100", "3.35")

		p, err := NewPayment(dec("334.996"), when, MethodCash)
		require.NoError(t, err)
		require.NoError(t, doc.ApplyPayment(p))
		assert.Equal(t, PaymentStatusPaid, doc.PaymentStatus)
	})

	t.Run("overpayment reads as paid", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "1", "10.00")

		p, err := NewPayment(dec("25.00"), when, MethodCash)
		require.NoError(t, err)
		require.NoError(t, doc.ApplyPayment(p))
		assert.True(t, doc.BalanceDue.IsNegative())
		assert.Equal(t, StatusPaid, doc.Status())
	})

	t.Run("allowed on finalized document", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "1", "10.00")
		require.NoError(t, doc.Finalize())

		p, err := NewPayment(dec("10.00"), when, MethodCash)
		require.NoError(t, err)
		assert.NoError(t, doc.ApplyPayment(p))
	})

	t.Run("rejected on voided document", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "1", "10.00")
		require.NoError(t, doc.Void("duplicate entry"))

		p, err := NewPayment(dec("10.00"), when, MethodCash)
		require.NoError(t, err)
		assert.Error(t, doc.ApplyPayment(p))
	})
}

func TestDocumentStatusPrecedence(t *testing.T) {
	when := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("voided wins over paid", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "1", "10.00")
		p, err := NewPayment(dec("10.00"), when, MethodCash)
		require.NoError(t, err)
		require.NoError(t, doc.ApplyPayment(p))
		require.NoError(t, doc.Void("entered twice"))
		assert.Equal(t, StatusVoided, doc.Status())
	})

	t.Run("paid wins over fulfillment", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "1", "10.00")
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
		p, err := NewPayment(dec("10.00"), when, MethodCash)
		require.NoError(t, err)
		require.NoError(t, doc.ApplyPayment(p))
		assert.Equal(t, StatusPaid, doc.Status())
	})

	t.Run("unpaid shows fulfillment", func(t *testing.T) {
		doc := newTestInvoice(t)
		addLine(t, doc, "Post cap", "1", "10.00")
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusShipped))
		assert.Equal(t, StatusShipped, doc.Status())
	})

	t.Run("zero-total reads as paid", func(t *testing.T) {
		doc := newTestInvoice(t)
		doc.RecalculateTotals()
		assert.True(t, doc.BalanceDue.IsZero())
		assert.Equal(t, StatusPaid, doc.Status())
	})
}

func TestDocumentFulfillmentTransitions(t *testing.T) {
	t.Run("ladder enforced for operators", func(t *testing.T) {
		doc := newTestInvoice(t)
		assert.Error(t, doc.SetFulfillmentStatus(FulfillmentStatusPickedUp))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusReceived))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusReadyForPickup))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusPickedUp))
		assert.Error(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
	})

	t.Run("discrepancy reachable from anywhere non-terminal", func(t *testing.T) {
		doc := newTestInvoice(t)
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusDiscrepancy))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		doc := newTestInvoice(t)
		v := doc.GetVersion()
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusDraft))
		assert.Equal(t, v, doc.GetVersion())
	})
}

func TestDocumentFinalize(t *testing.T) {
	doc := newTestInvoice(t)
	li := addLine(t, doc, "Post cap", "1", "10.00")
	require.NoError(t, doc.Finalize())

	assert.Error(t, doc.AddLineItem(&LineItem{ID: uuid.New(), Name: "x", Quantity: dec("1"), UnitPrice: dec("1")}))
	assert.Error(t, doc.UpdateLineItem(li.ID, dec("2"), dec("10.00")))
	assert.Error(t, doc.RemoveLineItem(li.ID))

	require.NoError(t, doc.Unfinalize())
	assert.NoError(t, doc.UpdateLineItem(li.ID, dec("2"), dec("10.00")))
}

func TestDocumentVoid(t *testing.T) {
	t.Run("void is terminal", func(t *testing.T) {
		doc := newTestInvoice(t)
		require.NoError(t, doc.Void("customer cancelled"))
		assert.Error(t, doc.Void("again"))
		assert.Error(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
		assert.Error(t, doc.Finalize())
	})

	t.Run("cannot void picked up", func(t *testing.T) {
		doc := newTestInvoice(t)
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusOrdered))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusReceived))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusReadyForPickup))
		require.NoError(t, doc.SetFulfillmentStatus(FulfillmentStatusPickedUp))
		assert.Error(t, doc.Void("too late"))
	})
}

func TestDocumentStamps(t *testing.T) {
	first := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	second := time.Date(2025, 4, 3, 9, 0, 0, 0, time.UTC)

	t.Run("received stamp written once", func(t *testing.T) {
		doc := newTestInvoice(t)
		doc.StampReceived(first, "Dana")
		doc.StampReceived(second, "Morgan")

		require.NotNil(t, doc.ReceivedDate)
		assert.True(t, doc.ReceivedDate.Equal(first))
		assert.Equal(t, "Dana", doc.ReceivedBy)
	})

	t.Run("missing actor filled in later", func(t *testing.T) {
		doc := newTestInvoice(t)
		doc.StampReceived(first, "")
		doc.StampReceived(second, "Dana")

		assert.True(t, doc.ReceivedDate.Equal(first))
		assert.Equal(t, "Dana", doc.ReceivedBy)
	})

	t.Run("pickup stamps written once", func(t *testing.T) {
		doc := newTestInvoice(t)
		doc.StampReadyForPickup(first)
		doc.StampReadyForPickup(second)
		doc.StampPickedUp(first)
		doc.StampPickedUp(second)

		assert.True(t, doc.ReadyForPickUpDate.Equal(first))
		assert.True(t, doc.PickedUpDate.Equal(first))
	})
}

func TestDocumentConvertTo(t *testing.T) {
	t.Run("estimate to invoice carries lines", func(t *testing.T) {
		est, err := NewFinancialDocument(DocumentKindEstimate, "EST-42", uuid.New(), "Hilltop Fencing", time.Now())
		require.NoError(t, err)
		addLine(t, est, "Cedar picket 6ft", "100", "3.35")

		inv, err := est.ConvertTo(DocumentKindInvoice, "INV-1002", time.Now())
		require.NoError(t, err)

		assert.Equal(t, DocumentKindInvoice, inv.Kind)
		require.Len(t, inv.LineItems, 1)
		assert.NotEqual(t, est.LineItems[0].ID, inv.LineItems[0].ID)
		assert.True(t, inv.Total.Equal(est.Total))
		assert.Empty(t, inv.Payments)
		assert.True(t, est.IsFinalized)
	})

	t.Run("invoice cannot convert", func(t *testing.T) {
		doc := newTestInvoice(t)
		_, err := doc.ConvertTo(DocumentKindOrder, "ORD-1", time.Now())
		assert.Error(t, err)
	})
}

func TestEffectiveDueDate(t *testing.T) {
	doc := newTestInvoice(t)
	assert.True(t, doc.EffectiveDueDate().Equal(doc.DocumentDate))

	due := doc.DocumentDate.AddDate(0, 0, 30)
	require.NoError(t, doc.SetDueDate(&due))
	assert.True(t, doc.EffectiveDueDate().Equal(due))
}
