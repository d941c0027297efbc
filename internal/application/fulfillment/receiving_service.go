package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/fulfillment"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PickupReminderThresholdDays is how many business days a ready order
// may sit before the pickup reminder fires
const PickupReminderThresholdDays = 7

// ReceivingService drives the receiving workflow over financial
// documents: recording dock quantities, moving orders through pickup,
// and deriving backorder and reminder views.
type ReceivingService struct {
	docRepo       billing.DocumentRepository
	clock         shared.Clock
	thresholdDays int
}

// ReceivingOption configures a ReceivingService
type ReceivingOption func(*ReceivingService)

// WithReminderThreshold overrides the default pickup reminder threshold
func WithReminderThreshold(days int) ReceivingOption {
	return func(s *ReceivingService) {
		if days > 0 {
			s.thresholdDays = days
		}
	}
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(docRepo billing.DocumentRepository, clock shared.Clock, opts ...ReceivingOption) *ReceivingService {
	s := &ReceivingService{
		docRepo:       docRepo,
		clock:         clock,
		thresholdDays: PickupReminderThresholdDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReceiptLineInput is one line's received quantity as entered at the dock
type ReceiptLineInput struct {
	LineItemID       uuid.UUID
	ReceivedQuantity decimal.Decimal
}

// RecordReceiptRequest carries a receiving update for one document
type RecordReceiptRequest struct {
	DocumentID uuid.UUID
	Lines      []ReceiptLineInput
	ReceivedBy string // acting user's display name
}

// RecordReceipt saves received quantities and reconciles the document's
// fulfillment status from the totals. Safe to repeat: the receipt stamp
// is written once and re-saving the same quantities changes nothing.
func (s *ReceivingService) RecordReceipt(ctx context.Context, req RecordReceiptRequest) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "record_receipt")
	defer span.End()
	telemetry.SetAttributes(span,
		"document_id", req.DocumentID.String(),
		"line_count", len(req.Lines),
	)

	doc, err := s.loadDocument(ctx, req.DocumentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	lines := make([]fulfillment.ReceiptLine, 0, len(req.Lines))
	for _, in := range req.Lines {
		lines = append(lines, fulfillment.ReceiptLine{
			LineItemID:       in.LineItemID,
			ReceivedQuantity: in.ReceivedQuantity,
		})
	}

	if err := fulfillment.ApplyReceipt(doc, lines, req.ReceivedBy, s.clock.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	telemetry.SetAttribute(span, "fulfillment_status", doc.FulfillmentStatus.String())
	return doc, nil
}

// SetFulfillmentStatus applies an operator-driven transition
func (s *ReceivingService) SetFulfillmentStatus(ctx context.Context, documentID uuid.UUID, target billing.FulfillmentStatus) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "set_status")
	defer span.End()
	telemetry.SetAttributes(span, "document_id", documentID.String(), "target", target.String())

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.clock.Now()
	switch target {
	case billing.FulfillmentStatusReadyForPickup:
		err = fulfillment.MarkReadyForPickup(doc, now)
	case billing.FulfillmentStatusPickedUp:
		err = fulfillment.MarkPickedUp(doc, now)
	default:
		err = doc.SetFulfillmentStatus(target)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

// GetBackorders derives the outstanding shortfall per line for a document
func (s *ReceivingService) GetBackorders(ctx context.Context, documentID uuid.UUID) ([]fulfillment.Backorder, error) {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return fulfillment.Backorders(doc), nil
}

// PickupReminder is one document overdue for customer pickup
type PickupReminder struct {
	DocumentID       uuid.UUID `json:"document_id"`
	DocumentNumber   string    `json:"document_number"`
	CustomerName     string    `json:"customer_name"`
	ReadyForPickUp   time.Time `json:"ready_for_pickup"`
	BusinessDaysIdle int       `json:"business_days_idle"`
}

// ListPickupReminders returns the documents that have sat ready for
// pickup for at least the threshold of business days. Derived on read;
// nothing is stored for the reminder itself.
func (s *ReceivingService) ListPickupReminders(ctx context.Context) ([]PickupReminder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "list_pickup_reminders")
	defer span.End()

	now := s.clock.Now()
	docs, err := s.docRepo.FindReadyForPickup(ctx, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load ready documents: %w", err)
	}

	reminders := make([]PickupReminder, 0, len(docs))
	for _, doc := range docs {
		if !fulfillment.PickupReminderDue(doc, now, s.thresholdDays) {
			continue
		}
		reminders = append(reminders, PickupReminder{
			DocumentID:       doc.ID,
			DocumentNumber:   doc.DocumentNumber,
			CustomerName:     doc.CustomerName,
			ReadyForPickUp:   *doc.ReadyForPickUpDate,
			BusinessDaysIdle: fulfillment.BusinessDaysBetween(*doc.ReadyForPickUpDate, now),
		})
	}

	telemetry.SetAttribute(span, "reminder_count", len(reminders))
	return reminders, nil
}

func (s *ReceivingService) loadDocument(ctx context.Context, documentID uuid.UUID) (*billing.FinancialDocument, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
	}
	return doc, nil
}
