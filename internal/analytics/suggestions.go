package analytics

import (
	"fmt"

	"spendlens/internal/core"
)

// Ceilings are monthly spending limits per category and overall.
type Ceilings struct {
	Currency    string
	PerCategory map[core.Category]core.Money
	// Fallback applies to categories missing from PerCategory.
	Fallback core.Money
	Overall  core.Money
}

func pkr(rupees int64) core.Money { return core.Money{Cents: rupees * 100} }

// DefaultCeilings are the PKR limits used when no budget file is configured.
func DefaultCeilings() Ceilings {
	return Ceilings{
		Currency: "PKR",
		PerCategory: map[core.Category]core.Money{
			core.CategoryFood:          pkr(30000),
			core.CategoryTransport:     pkr(15000),
			core.CategoryHousing:       pkr(50000),
			core.CategoryMobile:        pkr(3000),
			core.CategoryShopping:      pkr(20000),
			core.CategoryHealth:        pkr(10000),
			core.CategoryEducation:     pkr(25000),
			core.CategoryEntertainment: pkr(5000),
			core.CategoryGifts:         pkr(10000),
			core.CategoryFinancial:     pkr(20000),
		},
		Fallback: pkr(20000),
		Overall:  pkr(100000),
	}
}

// For returns the ceiling applying to c.
func (c Ceilings) For(cat core.Category) core.Money {
	if m, ok := c.PerCategory[cat]; ok {
		return m
	}
	return c.Fallback
}

// AcknowledgeMessage is returned when nothing is over budget.
const AcknowledgeMessage = "Great job! Your spending is within limits."

// Suggestions warns for each category strictly above its ceiling, in
// category order, then for the overall total. With no warnings it returns
// the single acknowledgment.
func (c Ceilings) Suggestions(breakdown map[core.Category]core.Money, total core.Money) []string {
	var out []string
	for _, row := range Ordered(breakdown) {
		limit := c.For(row.Category)
		if row.Amount.Cents > limit.Cents {
			out = append(out, fmt.Sprintf("Alert: High spending in %s (%s %s > Limit %s).",
				row.Category, c.Currency, row.Amount, limit))
		}
	}
	if total.Cents > c.Overall.Cents {
		out = append(out, fmt.Sprintf("Alert: Total monthly spending is high (> %s %s).",
			c.Currency, c.Overall.Grouped()))
	}
	if len(out) == 0 {
		out = append(out, AcknowledgeMessage)
	}
	return out
}

// AnomalyMessage describes one flagged expense.
func AnomalyMessage(e core.Expense, currency string) string {
	return fmt.Sprintf("Anomaly: %s (%s %s) seems unusual.", e.Description, currency, e.Amount)
}
