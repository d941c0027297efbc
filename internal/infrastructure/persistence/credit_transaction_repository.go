package persistence

import (
	"context"

	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCreditTransactionRepository implements the append-only credit ledger
// store. Entries are inserted and read back, never updated or deleted.
type GormCreditTransactionRepository struct {
	db *gorm.DB
}

// NewGormCreditTransactionRepository creates a new GormCreditTransactionRepository
func NewGormCreditTransactionRepository(db *gorm.DB) *GormCreditTransactionRepository {
	return &GormCreditTransactionRepository{db: db}
}

// Create inserts a ledger entry
func (r *GormCreditTransactionRepository) Create(ctx context.Context, tx *partner.CreditTransaction) error {
	model := models.CreditTransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByCustomer returns the ledger for a customer, newest first
func (r *GormCreditTransactionRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.CreditTransaction, error) {
	var txModels []models.CreditTransactionModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("date DESC, created_at DESC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*partner.CreditTransaction, len(txModels))
	for i := range txModels {
		transactions[i] = txModels[i].ToDomain()
	}
	return transactions, nil
}

// Ensure GormCreditTransactionRepository implements CreditTransactionRepository
var _ partner.CreditTransactionRepository = (*GormCreditTransactionRepository)(nil)
