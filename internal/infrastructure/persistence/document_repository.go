package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/fenceline/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// documentSortFields contains allowed sort fields for documents
var documentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"document_number": true,
	"document_date":   true,
	"due_date":        true,
	"total":           true,
	"balance_due":     true,
	"customer_name":   true,
}

// GormDocumentRepository implements billing.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Save creates or updates a document
func (r *GormDocumentRepository) Save(ctx context.Context, doc *billing.FinancialDocument) error {
	model := models.DocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FinancialDocument, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a document by its document number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, number string) (*billing.FinancialDocument, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "document_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds documents matching the filter with pagination
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter billing.DocumentFilter) (*shared.Paginated[*billing.FinancialDocument], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	var total int64
	countQuery := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.DocumentModel{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	query := r.applyOrderAndPagination(
		r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.DocumentModel{}), filter),
		filter,
	)

	var documentModels []models.DocumentModel
	if err := query.Find(&documentModels).Error; err != nil {
		return nil, err
	}

	docs := make([]*billing.FinancialDocument, len(documentModels))
	for i := range documentModels {
		docs[i] = documentModels[i].ToDomain()
	}
	result := shared.NewPaginated(docs, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Delete deletes a document
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindOutstandingByCustomer returns non-voided documents of the kind with a
// collectible balance, oldest first by effective due date. The due date falls
// back to the document date for documents without payment terms.
func (r *GormDocumentRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID, kind billing.DocumentKind) ([]*billing.FinancialDocument, error) {
	var documentModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND kind = ? AND voided = false AND balance_due > ?",
			customerID, kind, valueobject.CentEpsilon).
		Order("COALESCE(due_date, document_date) ASC, document_number ASC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}

	docs := make([]*billing.FinancialDocument, len(documentModels))
	for i := range documentModels {
		docs[i] = documentModels[i].ToDomain()
	}
	return docs, nil
}

// FindReadyForPickup returns documents sitting in READY_FOR_PICKUP whose
// ready date is on or before the cutoff.
func (r *GormDocumentRepository) FindReadyForPickup(ctx context.Context, readyBefore time.Time) ([]*billing.FinancialDocument, error) {
	var documentModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("fulfillment_status = ? AND voided = false AND ready_for_pick_up_date IS NOT NULL AND ready_for_pick_up_date <= ?",
			billing.FulfillmentStatusReadyForPickup, readyBefore).
		Order("ready_for_pick_up_date ASC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}

	docs := make([]*billing.FinancialDocument, len(documentModels))
	for i := range documentModels {
		docs[i] = documentModels[i].ToDomain()
	}
	return docs, nil
}

// NextSequence reserves the next document number for the kind. The counter
// row is upserted atomically so concurrent reservations never collide.
func (r *GormDocumentRepository) NextSequence(ctx context.Context, kind billing.DocumentKind) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO document_sequences (kind, value) VALUES (?, ?)
		 ON CONFLICT (kind) DO UPDATE SET value = document_sequences.value + 1
		 RETURNING value`,
		kind.String(), firstSequenceValue,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// firstSequenceValue seeds new counters so document numbers start at a
// four digit sequence.
const firstSequenceValue = 1001

func (r *GormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.DocumentFilter) *gorm.DB {
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.FulfillmentStatus != nil {
		query = query.Where("fulfillment_status = ?", *filter.FulfillmentStatus)
	}
	if !filter.IncludeVoided {
		query = query.Where("voided = false")
	}
	if filter.DateFrom != nil {
		query = query.Where("document_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("document_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("document_number ILIKE ? OR customer_name ILIKE ? OR vendor_name ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	return query
}

func (r *GormDocumentRepository) applyOrderAndPagination(query *gorm.DB, filter billing.DocumentFilter) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, documentSortFields, "document_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	offset := (filter.Page - 1) * filter.PageSize
	return query.Offset(offset).Limit(filter.PageSize)
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ billing.DocumentRepository = (*GormDocumentRepository)(nil)
