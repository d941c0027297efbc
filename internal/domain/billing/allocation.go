package billing

import (
	"sort"

	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation is one planned application of bulk funds to an invoice
type Allocation struct {
	Document *FinancialDocument
	Amount   decimal.Decimal
}

// AllocationPlan is the outcome of planning a bulk payment: the ordered
// per-invoice applications plus the remainder destined for customer credit.
type AllocationPlan struct {
	Allocations []Allocation
	Remainder   decimal.Decimal
}

// PlanBulkAllocation distributes a bulk amount across outstanding invoices,
// oldest first. Ordering is by due date when one is set, falling back to
// the document date, with the document number as a stable tie-breaker.
// Each invoice takes the lesser of its balance and the funds left; any
// unapplied remainder is reported for deposit to the customer's credit.
// Voided and fully paid documents are skipped even if passed in.
func PlanBulkAllocation(docs []*FinancialDocument, amount decimal.Decimal) AllocationPlan {
	outstanding := make([]*FinancialDocument, 0, len(docs))
	for _, d := range docs {
		if d != nil && d.IsOutstanding() {
			outstanding = append(outstanding, d)
		}
	}

	sort.SliceStable(outstanding, func(i, j int) bool {
		di, dj := outstanding[i].EffectiveDueDate(), outstanding[j].EffectiveDueDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return outstanding[i].DocumentNumber < outstanding[j].DocumentNumber
	})

	plan := AllocationPlan{Allocations: make([]Allocation, 0, len(outstanding))}
	remaining := amount

	for _, d := range outstanding {
		if !remaining.GreaterThan(valueobject.CentEpsilon) {
			break
		}
		applied := decimal.Min(remaining, d.BalanceDue)
		plan.Allocations = append(plan.Allocations, Allocation{Document: d, Amount: applied})
		remaining = remaining.Sub(applied)
	}

	if remaining.IsNegative() || valueobject.ApproxZero(remaining) {
		remaining = decimal.Zero
	}
	plan.Remainder = remaining
	return plan
}

// AllocationFor returns the planned amount for one document, or zero
func (p AllocationPlan) AllocationFor(docID uuid.UUID) decimal.Decimal {
	for _, a := range p.Allocations {
		if a.Document.ID == docID {
			return a.Amount
		}
	}
	return decimal.Zero
}

// TotalPlanned sums the planned applications
func (p AllocationPlan) TotalPlanned() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Allocations {
		sum = sum.Add(a.Amount)
	}
	return sum
}
