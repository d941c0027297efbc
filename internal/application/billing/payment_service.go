package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/fenceline/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService applies single and bulk payments. Bulk application is
// best-effort across documents: each invoice write is independent and
// keyed for idempotent retry, and the result reports the outcome per
// invoice rather than collapsing partial failures into one error.
type PaymentService struct {
	docRepo      billing.DocumentRepository
	bulkRepo     billing.BulkPaymentRepository
	customerRepo partner.CustomerRepository
	creditRepo   partner.CreditTransactionRepository
	idempotency  shared.IdempotencyStore
	idemCfg      shared.IdempotencyConfig
	clock        shared.Clock
	logger       *zap.Logger
	events       shared.EventPublisher
}

// PaymentOption configures a PaymentService
type PaymentOption func(*PaymentService)

// WithPaymentEventPublisher publishes the domain events collected by
// saved aggregates to the given publisher
func WithPaymentEventPublisher(pub shared.EventPublisher) PaymentOption {
	return func(s *PaymentService) {
		s.events = pub
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	docRepo billing.DocumentRepository,
	bulkRepo billing.BulkPaymentRepository,
	customerRepo partner.CustomerRepository,
	creditRepo partner.CreditTransactionRepository,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	clock shared.Clock,
	logger *zap.Logger,
	opts ...PaymentOption,
) *PaymentService {
	s := &PaymentService{
		docRepo:      docRepo,
		bulkRepo:     bulkRepo,
		customerRepo: customerRepo,
		creditRepo:   creditRepo,
		idempotency:  idempotency,
		idemCfg:      idemCfg,
		clock:        clock,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyPaymentRequest records one payment against one document
type ApplyPaymentRequest struct {
	DocumentID uuid.UUID
	Amount     decimal.Decimal
	Date       time.Time
	Method     billing.PaymentMethod
	Reference  string
	Notes      string
}

// ApplyPayment applies a single payment to a document. The document's
// money fields and derived status are recomputed and persisted together.
func (s *PaymentService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply")
	defer span.End()
	telemetry.SetAttributes(span,
		"document_id", req.DocumentID.String(),
		"amount", req.Amount.String(),
		"method", req.Method.String(),
	)

	doc, err := s.docRepo.FindByID(ctx, req.DocumentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		err := shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	payment, err := billing.NewPayment(req.Amount, date, req.Method)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	payment.Reference = req.Reference
	payment.Notes = req.Notes

	if err := doc.ApplyPayment(payment); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	s.publishEvents(ctx, doc)

	telemetry.SetAttribute(span, "balance_due", doc.BalanceDue.String())
	return doc, nil
}

// BulkPaymentRequest spreads one customer payment across many invoices
// or deposits it to the customer's credit balance
type BulkPaymentRequest struct {
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Date       time.Time
	Method     billing.PaymentMethod
	Reference  string
	Notes      string

	// TargetInvoiceIDs narrows the default oldest-first selection to a
	// subset. Empty means all outstanding invoices.
	TargetInvoiceIDs []uuid.UUID

	// AsCreditDeposit puts the whole amount on the customer's credit
	// balance and touches no invoice. Mutually exclusive with targets.
	AsCreditDeposit bool

	// IdempotencyKey makes the request retryable. A retry carrying the
	// same key finds the record of the earlier attempt and places only
	// the unaccounted portion; shares that already landed are skipped.
	// Empty disables cross-request retry detection.
	IdempotencyKey string
}

// InvoiceApplicationOutcome reports how one invoice fared in a bulk run
type InvoiceApplicationOutcome struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	Skipped       bool            `json:"skipped"` // already applied in an earlier attempt
	Error         string          `json:"error,omitempty"`
}

// BulkPaymentResult is the per-invoice accounting of one bulk run
type BulkPaymentResult struct {
	BulkPaymentID  uuid.UUID                   `json:"bulk_payment_id"`
	Applications   []InvoiceApplicationOutcome `json:"applications"`
	CreditedAmount decimal.Decimal             `json:"credited_amount"`
	AppliedTotal   decimal.Decimal             `json:"applied_total"`
}

// ApplyBulkPayment validates, plans, and applies a bulk payment.
//
// There is no cross-document transaction: each invoice write is
// independent and recorded under an idempotency key, so a retry after a
// partial failure skips the invoices that already took their share
// instead of double-applying. Failed invoices are reported in the
// result with their error; the run continues past them.
func (s *PaymentService) ApplyBulkPayment(ctx context.Context, req BulkPaymentRequest) (*BulkPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply_bulk")
	defer span.End()
	telemetry.SetAttributes(span,
		"customer_id", req.CustomerID.String(),
		"amount", req.Amount.String(),
		"credit_deposit", req.AsCreditDeposit,
	)

	// Validation happens before any write.
	if req.CustomerID == uuid.Nil {
		err := shared.NewDomainError("INVALID_CUSTOMER", "A customer must be selected for a bulk payment")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !req.Amount.IsPositive() {
		err := shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Bulk payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.AsCreditDeposit && len(req.TargetInvoiceIDs) > 0 {
		err := shared.NewDomainError("INVALID_BULK_REQUEST", "A credit deposit cannot target invoices")
		telemetry.RecordError(span, err)
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		err := shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	// A caller-supplied key finds the record of an earlier attempt so a
	// retry continues the same run instead of starting a fresh one.
	var prior *billing.BulkPayment
	if req.IdempotencyKey != "" {
		prior, err = s.bulkRepo.FindByIdempotencyKey(ctx, req.CustomerID, req.IdempotencyKey)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to look up bulk payment: %w", err)
		}
	}

	bulk := prior
	if bulk == nil {
		bulk, err = billing.NewBulkPayment(req.CustomerID, customer.Name, req.Amount, date, req.Method)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		bulk.Reference = req.Reference
		bulk.Notes = req.Notes
		bulk.IdempotencyKey = req.IdempotencyKey
	} else if !valueobject.ApproxEqual(bulk.Amount, req.Amount) {
		err := shared.NewDomainError("INVALID_BULK_REQUEST", "Retry amount does not match the original bulk payment")
		telemetry.RecordError(span, err)
		return nil, err
	}

	// The run's stable retry identity. Without a caller key the guard
	// only covers the current call.
	runKey := req.IdempotencyKey
	if runKey == "" {
		runKey = bulk.ID.String()
	}

	result := &BulkPaymentResult{
		BulkPaymentID:  bulk.ID,
		CreditedAmount: decimal.Zero,
		AppliedTotal:   decimal.Zero,
	}

	// On a retry only the unaccounted portion is placed; shares already
	// recorded are reported as skipped.
	remaining := req.Amount
	if prior != nil {
		remaining = prior.Unaccounted()
		for _, app := range prior.Applications {
			result.Applications = append(result.Applications, InvoiceApplicationOutcome{
				InvoiceID:     app.InvoiceID,
				InvoiceNumber: app.InvoiceNumber,
				AmountApplied: app.AmountApplied,
				Skipped:       true,
			})
		}
		if !remaining.GreaterThan(valueobject.CentEpsilon) {
			return result, nil
		}
	}

	if req.AsCreditDeposit {
		if err := s.creditOnce(ctx, runKey, customer, remaining, partner.CreditDeposit, bulk.ID, date); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		bulk.RecordCredit(bulk.CreditedAmount.Add(remaining))
		result.CreditedAmount = remaining

		if err := s.saveBulkRecord(ctx, bulk, prior != nil); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		return result, nil
	}

	docs, err := s.selectInvoices(ctx, req.CustomerID, req.TargetInvoiceIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	plan := billing.PlanBulkAllocation(docs, remaining)

	for _, alloc := range plan.Allocations {
		outcome := s.applyAllocation(ctx, runKey, bulk, alloc, date, req.Method)
		result.Applications = append(result.Applications, outcome)
		if outcome.Error == "" && !outcome.Skipped {
			result.AppliedTotal = result.AppliedTotal.Add(outcome.AmountApplied)
			bulk.RecordApplication(alloc.Document.ID, alloc.Document.DocumentNumber, outcome.AmountApplied)
		}
	}

	// The remainder is credited, never dropped. Invoice shares that
	// failed to write stay inside their invoices' retry path and are
	// not folded into the credit.
	if plan.Remainder.GreaterThan(valueobject.CentEpsilon) {
		if err := s.creditOnce(ctx, runKey, customer, plan.Remainder, partner.CreditBulkRemainder, bulk.ID, date); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		bulk.RecordCredit(bulk.CreditedAmount.Add(plan.Remainder))
		result.CreditedAmount = plan.Remainder
	}

	if err := s.saveBulkRecord(ctx, bulk, prior != nil); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"applied_total", result.AppliedTotal.String(),
		"credited_amount", result.CreditedAmount.String(),
		"invoice_count", len(result.Applications),
	)
	return result, nil
}

// applyAllocation writes one invoice's share under an idempotency key
// derived from the run's retry identity. A key already present, or a
// payment from this bulk run already on the invoice, means an earlier
// attempt landed the share and it is skipped. The key is marked only
// after the invoice write succeeds, so a failed write stays retryable.
func (s *PaymentService) applyAllocation(ctx context.Context, runKey string, bulk *billing.BulkPayment, alloc billing.Allocation, date time.Time, method billing.PaymentMethod) InvoiceApplicationOutcome {
	doc := alloc.Document
	outcome := InvoiceApplicationOutcome{
		InvoiceID:     doc.ID,
		InvoiceNumber: doc.DocumentNumber,
		AmountApplied: alloc.Amount,
		BalanceDue:    doc.BalanceDue,
	}

	if doc.Payments.HasBulkPayment(bulk.ID) {
		outcome.Skipped = true
		return outcome
	}

	key := fmt.Sprintf("bulkpay:%s:%s", runKey, doc.ID)
	if s.guardEnabled() {
		applied, err := s.idempotency.IsApplied(ctx, key)
		if err != nil {
			s.logger.Warn("idempotency store unavailable, applying without guard",
				zap.String("invoice", doc.DocumentNumber), zap.Error(err))
		} else if applied {
			outcome.Skipped = true
			return outcome
		}
	}

	payment, err := billing.NewPayment(alloc.Amount, date, method)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	bulkID := bulk.ID
	payment.BulkPaymentID = &bulkID
	payment.Notes = fmt.Sprintf("Bulk payment %s", bulk.ID)

	if err := doc.ApplyPayment(payment); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		s.logger.Error("bulk payment invoice write failed",
			zap.String("invoice", doc.DocumentNumber), zap.Error(err))
		outcome.Error = err.Error()
		return outcome
	}
	s.markApplied(ctx, key)
	s.publishEvents(ctx, doc)

	outcome.BalanceDue = doc.BalanceDue
	return outcome
}

// saveBulkRecord creates the audit record, or completes the existing
// one when the run is a retry
func (s *PaymentService) saveBulkRecord(ctx context.Context, bulk *billing.BulkPayment, retry bool) error {
	var err error
	if retry {
		err = s.bulkRepo.Save(ctx, bulk)
	} else {
		err = s.bulkRepo.Create(ctx, bulk)
	}
	if err != nil {
		return fmt.Errorf("failed to record bulk payment: %w", err)
	}
	return nil
}

func (s *PaymentService) guardEnabled() bool {
	return s.idemCfg.Enabled && s.idempotency != nil
}

// markApplied marks a key after its write succeeded. Failure to mark
// degrades the guard, it never fails the payment.
func (s *PaymentService) markApplied(ctx context.Context, key string) {
	if !s.guardEnabled() {
		return
	}
	if _, err := s.idempotency.MarkApplied(ctx, key, s.idemCfg.TTL); err != nil {
		s.logger.Warn("failed to mark idempotency key", zap.String("key", key), zap.Error(err))
	}
}

// selectInvoices returns the customer's outstanding invoices oldest
// first, narrowed to the target set when one is given
func (s *PaymentService) selectInvoices(ctx context.Context, customerID uuid.UUID, targetIDs []uuid.UUID) ([]*billing.FinancialDocument, error) {
	docs, err := s.docRepo.FindOutstandingByCustomer(ctx, customerID, billing.DocumentKindInvoice)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
	}
	if len(targetIDs) == 0 {
		return docs, nil
	}

	wanted := make(map[uuid.UUID]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = struct{}{}
	}
	selected := docs[:0]
	for _, d := range docs {
		if _, ok := wanted[d.ID]; ok {
			selected = append(selected, d)
		}
	}
	return selected, nil
}

// ListBulkPayments returns a customer's bulk payment audit records,
// newest first
func (s *PaymentService) ListBulkPayments(ctx context.Context, customerID uuid.UUID) ([]*billing.BulkPayment, error) {
	records, err := s.bulkRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bulk payments: %w", err)
	}
	return records, nil
}

// creditOnce moves an amount onto the customer's credit balance under
// the run's credit key. A marked key means an earlier attempt already
// moved the money and the movement is not repeated; the key is marked
// only after the movement succeeds.
func (s *PaymentService) creditOnce(ctx context.Context, runKey string, customer *partner.Customer, amount decimal.Decimal, txType partner.CreditTransactionType, sourceID uuid.UUID, date time.Time) error {
	key := fmt.Sprintf("bulkpay:%s:credit", runKey)
	if s.guardEnabled() {
		applied, err := s.idempotency.IsApplied(ctx, key)
		if err != nil {
			s.logger.Warn("idempotency store unavailable, crediting without guard", zap.Error(err))
		} else if applied {
			return nil
		}
	}
	if err := s.creditCustomer(ctx, customer, amount, txType, sourceID, date); err != nil {
		return err
	}
	s.markApplied(ctx, key)
	return nil
}

// creditCustomer moves an amount onto the customer's credit balance and
// appends the matching ledger entry
func (s *PaymentService) creditCustomer(ctx context.Context, customer *partner.Customer, amount decimal.Decimal, txType partner.CreditTransactionType, sourceID uuid.UUID, date time.Time) error {
	before := customer.CreditBalance
	if err := customer.AddCredit(amount); err != nil {
		return err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return fmt.Errorf("failed to save customer credit: %w", err)
	}
	s.publishEvents(ctx, customer)

	tx, err := partner.NewCreditTransaction(customer.ID, txType, partner.SourceBulkPayment, amount, before, customer.CreditBalance, date)
	if err != nil {
		return err
	}
	src := sourceID
	tx.SourceID = &src
	if err := s.creditRepo.Create(ctx, tx); err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return nil
}

// publishEvents hands the aggregate's collected events to the
// publisher, when one is configured
func (s *PaymentService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
		return
	}
	agg.ClearDomainEvents()
}
