// Package sheets mirrors stored expenses into a spreadsheet.
package sheets

import (
	"context"

	"spendlens/internal/core"
)

// ExpenseExporter appends one expense as a spreadsheet row.
type ExpenseExporter interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}

// Header is the column layout every exporter writes.
var Header = []string{"Date", "Time", "User", "Description", "Amount", "Category"}

// Row renders e in Header order.
func Row(e core.Expense) []any {
	return []any{
		e.SpentAt.Format(core.DayLayout),
		e.SpentAt.Format("15:04:05"),
		e.UserID,
		e.Description,
		e.Amount.Float(),
		e.Category.String(),
	}
}
