package persistence

import (
	"context"
	"errors"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBulkPaymentRepository implements billing.BulkPaymentRepository
// using GORM. Records are created once and updated only when a retried
// run completes the record it started.
type GormBulkPaymentRepository struct {
	db *gorm.DB
}

// NewGormBulkPaymentRepository creates a new GormBulkPaymentRepository
func NewGormBulkPaymentRepository(db *gorm.DB) *GormBulkPaymentRepository {
	return &GormBulkPaymentRepository{db: db}
}

// Create inserts a bulk payment audit record
func (r *GormBulkPaymentRepository) Create(ctx context.Context, bp *billing.BulkPayment) error {
	model := models.BulkPaymentModelFromDomain(bp)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save upserts a bulk payment record by its primary key
func (r *GormBulkPaymentRepository) Save(ctx context.Context, bp *billing.BulkPayment) error {
	model := models.BulkPaymentModelFromDomain(bp)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByIdempotencyKey finds the customer's record created under the
// given retry key. Returns nil when no such run has been recorded.
func (r *GormBulkPaymentRepository) FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*billing.BulkPayment, error) {
	var model models.BulkPaymentModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND idempotency_key = ?", customerID, key).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a bulk payment by its ID
func (r *GormBulkPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BulkPayment, error) {
	var model models.BulkPaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns all bulk payments for a customer, newest first
func (r *GormBulkPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.BulkPayment, error) {
	var bulkModels []models.BulkPaymentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("date DESC, created_at DESC").
		Find(&bulkModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*billing.BulkPayment, len(bulkModels))
	for i := range bulkModels {
		payments[i] = bulkModels[i].ToDomain()
	}
	return payments, nil
}

// Ensure GormBulkPaymentRepository implements BulkPaymentRepository
var _ billing.BulkPaymentRepository = (*GormBulkPaymentRepository)(nil)
