package partner

import (
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerCreditChangedEvent is raised on every credit balance movement
type CustomerCreditChangedEvent struct {
	shared.BaseDomainEvent
	Delta      decimal.Decimal `json:"delta"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

func NewCustomerCreditChangedEvent(customerID uuid.UUID, delta, newBalance decimal.Decimal) *CustomerCreditChangedEvent {
	return &CustomerCreditChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("customer.credit_changed", "Customer", customerID),
		Delta:           delta,
		NewBalance:      newBalance,
	}
}
