package partner

import (
	"context"
	"fmt"

	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerService manages customer accounts, their markup rule tables,
// and manual credit balance adjustments. Every credit mutation writes a
// ledger entry alongside the balance change.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	creditRepo   partner.CreditTransactionRepository
	clock        shared.Clock
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	creditRepo partner.CreditTransactionRepository,
	clock shared.Clock,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		creditRepo:   creditRepo,
		clock:        clock,
	}
}

// CreateCustomerRequest carries the fields for a new customer account
type CreateCustomerRequest struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Notes       string
}

// Create opens a new active customer account
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*partner.Customer, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "create")
	defer span.End()

	customer, err := partner.NewCustomer(req.Name)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	customer.ContactName = req.ContactName
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.Notes = req.Notes

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	telemetry.SetAttribute(span, "customer_id", customer.ID.String())
	return customer, nil
}

// UpdateCustomerRequest updates contact fields; nil means keep current
type UpdateCustomerRequest struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	Notes       *string
}

// Update applies a partial update to the customer's contact fields
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*partner.Customer, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "update")
	defer span.End()
	telemetry.SetAttribute(span, "customer_id", customerID.String())

	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			err := shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
			telemetry.RecordError(span, err)
			return nil, err
		}
		customer.Name = *req.Name
	}
	if req.ContactName != nil {
		customer.ContactName = *req.ContactName
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
	}
	customer.IncrementVersion()

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	return customer, nil
}

// Get loads a single customer
func (s *CustomerService) Get(ctx context.Context, customerID uuid.UUID) (*partner.Customer, error) {
	return s.loadCustomer(ctx, customerID)
}

// List returns a filtered page of customers
func (s *CustomerService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	return s.customerRepo.FindAll(ctx, filter)
}

// Delete removes a customer record
func (s *CustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	return s.customerRepo.Delete(ctx, customerID)
}

// SetActive activates or deactivates a customer account
func (s *CustomerService) SetActive(ctx context.Context, customerID uuid.UUID, active bool) (*partner.Customer, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if active {
		customer.Activate()
	} else {
		customer.Deactivate()
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	return customer, nil
}

// SetMarkupRule adds or replaces the customer's markup rule for a
// category. The category "*" sets the wildcard fallback.
func (s *CustomerService) SetMarkupRule(ctx context.Context, customerID uuid.UUID, category string, markupPercent decimal.Decimal) (*partner.Customer, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "set_markup_rule")
	defer span.End()
	telemetry.SetAttributes(span, "customer_id", customerID.String(), "category", category)

	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := customer.SetMarkupRule(category, markupPercent); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	return customer, nil
}

// AdjustCredit applies a signed manual adjustment to the customer's
// credit balance and appends the matching ledger entry. Negative
// amounts draw the balance down and are rejected past zero.
func (s *CustomerService) AdjustCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, notes string) (*partner.Customer, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "adjust_credit")
	defer span.End()
	telemetry.SetAttributes(span, "customer_id", customerID.String(), "amount", amount.String())

	if amount.IsZero() {
		err := shared.NewDomainError("INVALID_CREDIT_AMOUNT", "Credit adjustment amount cannot be zero")
		telemetry.RecordError(span, err)
		return nil, err
	}

	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	balanceBefore := customer.CreditBalance
	if amount.IsPositive() {
		err = customer.AddCredit(amount)
	} else {
		err = customer.ConsumeCredit(amount.Neg())
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	tx, err := partner.NewCreditTransaction(
		customer.ID,
		partner.CreditAdjustment,
		partner.SourceManual,
		amount,
		balanceBefore,
		customer.CreditBalance,
		s.clock.Now(),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	tx.Notes = notes

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	if err := s.creditRepo.Create(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return customer, nil
}

// CreditLedger returns the customer's credit transactions, newest first
func (s *CustomerService) CreditLedger(ctx context.Context, customerID uuid.UUID) ([]*partner.CreditTransaction, error) {
	if _, err := s.loadCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	txs, err := s.creditRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit ledger: %w", err)
	}
	return txs, nil
}

func (s *CustomerService) loadCustomer(ctx context.Context, customerID uuid.UUID) (*partner.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	}
	return customer, nil
}
