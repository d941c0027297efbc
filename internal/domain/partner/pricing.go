package partner

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/fenceline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// WildcardCategory matches every category when no specific rule exists
const WildcardCategory = "*"

// MarkupRule maps a product category to a customer-specific markup.
// The category "*" acts as a fallback for categories with no rule.
type MarkupRule struct {
	Category      string          `json:"category"`
	MarkupPercent decimal.Decimal `json:"markup_percent"`
}

// MarkupRules is stored as JSONB on the customer record. Lookup is by
// exact category first, wildcard second; the rule table is passed
// explicitly into pricing, never read from ambient state.
type MarkupRules []MarkupRule

// Value implements driver.Valuer interface for GORM to store as JSONB
func (r MarkupRules) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (r *MarkupRules) Scan(value interface{}) error {
	if value == nil {
		*r = MarkupRules{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan MarkupRules: unsupported type")
	}

	if len(bytes) == 0 {
		*r = MarkupRules{}
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// RuleFor returns the markup rule for a category. A rule for the exact
// category wins over the wildcard; nil when neither exists.
func (r MarkupRules) RuleFor(category string) *MarkupRule {
	var wildcard *MarkupRule
	for i := range r {
		switch r[i].Category {
		case category:
			return &r[i]
		case WildcardCategory:
			if wildcard == nil {
				wildcard = &r[i]
			}
		}
	}
	return wildcard
}

// PriceFor computes the selling price for a cost under the rule table:
// round2(cost * (1 + markup/100)). Without an applicable rule the cost
// passes through rounded and unmarked.
func (r MarkupRules) PriceFor(category string, cost decimal.Decimal) decimal.Decimal {
	rule := r.RuleFor(category)
	if rule == nil {
		return valueobject.Round2(cost)
	}
	factor := decimal.NewFromInt(1).Add(rule.MarkupPercent.Div(decimal.NewFromInt(100)))
	return valueobject.Round2(cost.Mul(factor))
}

// Upsert replaces the rule for a category or appends a new one
func (r MarkupRules) Upsert(category string, markupPercent decimal.Decimal) MarkupRules {
	for i := range r {
		if r[i].Category == category {
			r[i].MarkupPercent = markupPercent
			return r
		}
	}
	return append(r, MarkupRule{Category: category, MarkupPercent: markupPercent})
}
