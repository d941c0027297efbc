package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/catalog"
	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentService handles the financial document lifecycle: creation,
// line item editing, non-stock promotion at save time, voiding, and
// conversion between document kinds.
type DocumentService struct {
	docRepo      billing.DocumentRepository
	customerRepo partner.CustomerRepository
	vendorRepo   partner.VendorRepository
	productRepo  catalog.ProductRepository
	clock        shared.Clock
	events       shared.EventPublisher
}

// DocumentOption configures a DocumentService
type DocumentOption func(*DocumentService)

// WithDocumentEventPublisher publishes the domain events collected by
// saved aggregates to the given publisher
func WithDocumentEventPublisher(pub shared.EventPublisher) DocumentOption {
	return func(s *DocumentService) {
		s.events = pub
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	docRepo billing.DocumentRepository,
	customerRepo partner.CustomerRepository,
	vendorRepo partner.VendorRepository,
	productRepo catalog.ProductRepository,
	clock shared.Clock,
	opts ...DocumentOption,
) *DocumentService {
	s := &DocumentService{
		docRepo:      docRepo,
		customerRepo: customerRepo,
		vendorRepo:   vendorRepo,
		productRepo:  productRepo,
		clock:        clock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LineItemInput is one line as submitted by the caller
type LineItemInput struct {
	ProductID        *uuid.UUID
	Name             string
	Category         string
	Unit             string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	Cost             decimal.Decimal
	MarkupPercent    decimal.Decimal
	IsReturn         bool
	IsNonStock       bool
	AddToProductList bool
}

// CreateDocumentRequest carries everything needed to open a new document
type CreateDocumentRequest struct {
	Kind         billing.DocumentKind
	CustomerID   uuid.UUID
	DocumentDate time.Time
	DueDate      *time.Time
	VendorID     *uuid.UUID
	LineItems    []LineItemInput
	Notes        string
}

// CreateDocument opens a new document, assigns its number from the
// per-kind sequence, and persists it with promotion applied.
func (s *DocumentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create")
	defer span.End()

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

	seq, err := s.docRepo.NextSequence(ctx, req.Kind)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to reserve document number: %w", err)
	}
	number := fmt.Sprintf("%s-%d", req.Kind.NumberPrefix(), seq)

	docDate := req.DocumentDate
	if docDate.IsZero() {
		docDate = s.clock.Now()
	}

	doc, err := billing.NewFinancialDocument(req.Kind, number, req.CustomerID, customer.Name, docDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	doc.DueDate = req.DueDate
	doc.Notes = req.Notes

	if req.VendorID != nil {
		vendor, err := s.vendorRepo.FindByID(ctx, *req.VendorID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load vendor: %w", err)
		}
		if vendor == nil {
			err := shared.NewDomainError("VENDOR_NOT_FOUND", "Vendor not found")
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := doc.AttachVendor(vendor.ID, vendor.Name); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	for _, in := range req.LineItems {
		li, err := buildLineItem(in, customer.MarkupRules)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := doc.AddLineItem(li); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.saveWithPromotion(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"document_id", doc.ID.String(),
		"document_number", doc.DocumentNumber,
		"kind", doc.Kind.String(),
	)
	return doc, nil
}

// UpdateLineItemsRequest replaces a document's line item set
type UpdateLineItemsRequest struct {
	DocumentID uuid.UUID
	LineItems  []LineItemInput
}

// UpdateLineItems rebuilds the document's lines from the submitted set
// and persists the recomputed totals
func (s *DocumentService) UpdateLineItems(ctx context.Context, req UpdateLineItemsRequest) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "update_line_items")
	defer span.End()
	telemetry.SetAttribute(span, "document_id", req.DocumentID.String())

	doc, err := s.loadDocument(ctx, req.DocumentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Editability is checked before any further read or rebuild work.
	if doc.Voided {
		err := shared.NewDomainError("DOCUMENT_VOIDED", "Document is voided")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if doc.IsFinalized {
		telemetry.RecordError(span, shared.ErrDocumentFinalized)
		return nil, shared.ErrDocumentFinalized
	}

	var rules partner.MarkupRules
	if doc.CustomerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, *doc.CustomerID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		if customer != nil {
			rules = customer.MarkupRules
		}
	}

	rebuilt := make(billing.LineItems, 0, len(req.LineItems))
	for _, in := range req.LineItems {
		li, err := buildLineItem(in, rules)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		rebuilt = append(rebuilt, *li)
	}

	doc.LineItems = rebuilt
	doc.RecalculateTotals()

	if err := s.saveWithPromotion(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

// VoidDocument marks a document void
func (s *DocumentService) VoidDocument(ctx context.Context, documentID uuid.UUID, reason string) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "void")
	defer span.End()
	telemetry.SetAttribute(span, "document_id", documentID.String())

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := doc.Void(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	s.publishEvents(ctx, doc)
	return doc, nil
}

// FinalizeDocument locks the document against edits
func (s *DocumentService) FinalizeDocument(ctx context.Context, documentID uuid.UUID) (*billing.FinancialDocument, error) {
	return s.toggleFinalized(ctx, documentID, true)
}

// UnfinalizeDocument reopens a finalized document
func (s *DocumentService) UnfinalizeDocument(ctx context.Context, documentID uuid.UUID) (*billing.FinancialDocument, error) {
	return s.toggleFinalized(ctx, documentID, false)
}

func (s *DocumentService) toggleFinalized(ctx context.Context, documentID uuid.UUID, finalized bool) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "set_finalized")
	defer span.End()
	telemetry.SetAttributes(span, "document_id", documentID.String(), "finalized", finalized)

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if finalized {
		err = doc.Finalize()
	} else {
		err = doc.Unfinalize()
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	s.publishEvents(ctx, doc)
	return doc, nil
}

// ConvertDocument converts a document forward (estimate to order or
// invoice, order to invoice), finalizing the source
func (s *DocumentService) ConvertDocument(ctx context.Context, documentID uuid.UUID, target billing.DocumentKind) (*billing.FinancialDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "convert")
	defer span.End()
	telemetry.SetAttributes(span, "document_id", documentID.String(), "target_kind", target.String())

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	seq, err := s.docRepo.NextSequence(ctx, target)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to reserve document number: %w", err)
	}
	number := fmt.Sprintf("%s-%d", target.NumberPrefix(), seq)

	converted, err := doc.ConvertTo(target, number, s.clock.Now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// The new document is written first so a failure leaves the source
	// unconverted rather than finalized with no successor.
	if err := s.docRepo.Save(ctx, converted); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save converted document: %w", err)
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save source document: %w", err)
	}
	s.publishEvents(ctx, converted)
	s.publishEvents(ctx, doc)
	return converted, nil
}

// GetDocument loads a single document
func (s *DocumentService) GetDocument(ctx context.Context, documentID uuid.UUID) (*billing.FinancialDocument, error) {
	return s.loadDocument(ctx, documentID)
}

// GetDocumentByNumber loads a document by its human-facing number
func (s *DocumentService) GetDocumentByNumber(ctx context.Context, number string) (*billing.FinancialDocument, error) {
	doc, err := s.docRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
	}
	return doc, nil
}

// ListDocuments returns a filtered page of documents
func (s *DocumentService) ListDocuments(ctx context.Context, filter billing.DocumentFilter) (*shared.Paginated[*billing.FinancialDocument], error) {
	return s.docRepo.FindAll(ctx, filter)
}

// saveWithPromotion persists the document, first promoting any non-stock
// lines flagged for the catalog. Product creation happens before the
// parent document write so the persisted line carries a real catalog
// reference, never a placeholder.
func (s *DocumentService) saveWithPromotion(ctx context.Context, doc *billing.FinancialDocument) error {
	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		if !li.IsNonStock || !li.AddToProductList {
			continue
		}

		product, err := catalog.NewProduct(li.Name, li.Category, li.Unit, li.UnitPrice, li.Cost)
		if err != nil {
			return err
		}
		product.MarkupPercent = li.MarkupPercent
		if err := s.productRepo.Save(ctx, product); err != nil {
			return fmt.Errorf("failed to create catalog product for %q: %w", li.Name, err)
		}
		if err := li.PromoteToProduct(product.ID); err != nil {
			return err
		}
		s.publishEvents(ctx, product)
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	s.publishEvents(ctx, doc)
	return nil
}

// publishEvents hands the aggregate's collected events to the
// publisher, when one is configured
func (s *DocumentService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		return
	}
	agg.ClearDomainEvents()
}

func (s *DocumentService) loadDocument(ctx context.Context, documentID uuid.UUID) (*billing.FinancialDocument, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
	}
	return doc, nil
}

// buildLineItem constructs a line from caller input. Catalog lines with
// no explicit price fall back to the customer's markup pricing over the
// cost; non-stock lines always keep exactly the entered price.
func buildLineItem(in LineItemInput, rules partner.MarkupRules) (*billing.LineItem, error) {
	price := in.UnitPrice
	if !in.IsNonStock && price.IsZero() && in.Cost.IsPositive() {
		price = rules.PriceFor(in.Category, in.Cost)
	}

	var li *billing.LineItem
	var err error
	switch {
	case in.ProductID != nil:
		li, err = billing.NewCatalogLineItem(*in.ProductID, in.Name, in.Quantity, price)
	case in.IsNonStock:
		li, err = billing.NewNonStockLineItem(in.Name, in.Quantity, price)
	default:
		li, err = billing.NewLineItem(in.Name, in.Quantity, price)
	}
	if err != nil {
		return nil, err
	}

	li.Category = in.Category
	li.Unit = in.Unit
	li.Cost = in.Cost
	li.MarkupPercent = in.MarkupPercent
	li.AddToProductList = in.AddToProductList
	if in.IsReturn {
		li.MarkReturn()
	}
	return li, nil
}
