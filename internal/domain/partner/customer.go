package partner

import (
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Customer is the aggregate root for a buying account. The credit
// balance is a running non-negative amount fed by unallocated bulk
// payments and drawn down when applied against a balance due.
type Customer struct {
	shared.BaseAggregateRoot

	Name          string
	ContactName   string
	Email         string
	Phone         string
	Address       string
	Notes         string
	CreditBalance decimal.Decimal
	MarkupRules   MarkupRules
	IsActive      bool
}

// NewCustomer creates an active customer with an empty credit balance
func NewCustomer(name string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CreditBalance:     decimal.Zero,
		MarkupRules:       MarkupRules{},
		IsActive:          true,
	}, nil
}

// AddCredit increases the credit balance by a positive amount
func (c *Customer) AddCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_CREDIT_AMOUNT", "Credit amount must be positive")
	}
	c.CreditBalance = valueobject.Round2(c.CreditBalance.Add(amount))
	c.IncrementVersion()
	c.AddDomainEvent(NewCustomerCreditChangedEvent(c.ID, amount, c.CreditBalance))
	return nil
}

// ConsumeCredit draws down the credit balance. The balance never goes
// negative; drawing more than is available is rejected outright.
func (c *Customer) ConsumeCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_CREDIT_AMOUNT", "Credit amount must be positive")
	}
	if c.CreditBalance.LessThan(amount) {
		return shared.ErrInsufficientCredit
	}
	c.CreditBalance = valueobject.Round2(c.CreditBalance.Sub(amount))
	c.IncrementVersion()
	c.AddDomainEvent(NewCustomerCreditChangedEvent(c.ID, amount.Neg(), c.CreditBalance))
	return nil
}

// SetMarkupRule adds or replaces the markup rule for a category
func (c *Customer) SetMarkupRule(category string, markupPercent decimal.Decimal) error {
	if category == "" {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot be empty")
	}
	if markupPercent.IsNegative() {
		return shared.NewDomainError("INVALID_MARKUP", "Markup percent cannot be negative")
	}
	c.MarkupRules = c.MarkupRules.Upsert(category, markupPercent)
	c.IncrementVersion()
	return nil
}

// Deactivate hides the customer from active listings without deleting history
func (c *Customer) Deactivate() {
	if !c.IsActive {
		return
	}
	c.IsActive = false
	c.IncrementVersion()
}

// Activate restores a deactivated customer
func (c *Customer) Activate() {
	if c.IsActive {
		return
	}
	c.IsActive = true
	c.IncrementVersion()
}

// Vendor is a supplier that orders are placed with. Vendors carry no
// money fields; they exist so documents can reference a supplier for
// the receiving workflow.
type Vendor struct {
	shared.BaseAggregateRoot

	Name        string
	ContactName string
	Email       string
	Phone       string
	Notes       string
	IsActive    bool
}

// NewVendor creates an active vendor
func NewVendor(name string) (*Vendor, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
	}
	return &Vendor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		IsActive:          true,
	}, nil
}
