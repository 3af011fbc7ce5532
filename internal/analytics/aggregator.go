// Package analytics computes read-only views over one user's expenses:
// monthly totals, per-category and per-day sums, a month-end forecast,
// outlier detection and budget suggestions. Nothing here is cached; every
// call reads the store again.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spendlens/internal/core"
)

// Source is the read side of the expense store. An empty month returns
// every record of the user.
type Source interface {
	List(ctx context.Context, userID int64, month string) ([]core.Expense, error)
}

// DailyAmount is the total spent on one calendar day.
type DailyAmount struct {
	Day    string     `json:"day"`
	Amount core.Money `json:"amount"`
}

// Aggregator reads through Source and applies the budget ceilings.
type Aggregator struct {
	src      Source
	ceilings Ceilings
	forest   IsolationForest
	now      func() time.Time
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithClock fixes "now", which decides the current month.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func WithCeilings(c Ceilings) Option {
	return func(a *Aggregator) { a.ceilings = c }
}

func NewAggregator(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:      src,
		ceilings: DefaultCeilings(),
		forest:   DefaultForest(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Ceilings returns the configured budget ceilings.
func (a *Aggregator) Ceilings() Ceilings {
	return a.ceilings
}

// CurrentMonth is the "YYYY-MM" key analytics default to.
func (a *Aggregator) CurrentMonth() string {
	return core.MonthOf(a.now())
}

func (a *Aggregator) monthRecords(ctx context.Context, userID int64) ([]core.Expense, error) {
	recs, err := a.src.List(ctx, userID, a.CurrentMonth())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return recs, nil
}

// MonthlyTotal sums the current month.
func (a *Aggregator) MonthlyTotal(ctx context.Context, userID int64) (core.Money, error) {
	recs, err := a.monthRecords(ctx, userID)
	if err != nil {
		return core.Money{}, err
	}
	return Total(recs), nil
}

// CategoryBreakdown sums the current month per category.
func (a *Aggregator) CategoryBreakdown(ctx context.Context, userID int64) (map[core.Category]core.Money, error) {
	recs, err := a.monthRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Breakdown(recs), nil
}

// DailySpending sums the current month per day, ascending.
func (a *Aggregator) DailySpending(ctx context.Context, userID int64) ([]DailyAmount, error) {
	recs, err := a.monthRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Daily(recs), nil
}

// Anomalies flags unusual amounts across all of the user's history.
func (a *Aggregator) Anomalies(ctx context.Context, userID int64) ([]core.Expense, error) {
	recs, err := a.src.List(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return a.forest.Anomalies(recs), nil
}

// Suggestions compares a breakdown and total with the ceilings.
func (a *Aggregator) Suggestions(breakdown map[core.Category]core.Money, total core.Money) []string {
	return a.ceilings.Suggestions(breakdown, total)
}

// Total sums amounts.
func Total(recs []core.Expense) core.Money {
	var t core.Money
	for _, r := range recs {
		t = t.Add(r.Amount)
	}
	return t
}

// Breakdown sums per category, leaving out categories with nothing spent.
func Breakdown(recs []core.Expense) map[core.Category]core.Money {
	out := make(map[core.Category]core.Money)
	for _, r := range recs {
		out[r.Category] = out[r.Category].Add(r.Amount)
	}
	for c, m := range out {
		if m.Cents == 0 {
			delete(out, c)
		}
	}
	return out
}

// Daily sums per calendar day, sorted by day.
func Daily(recs []core.Expense) []DailyAmount {
	sums := make(map[string]core.Money)
	for _, r := range recs {
		sums[r.Day()] = sums[r.Day()].Add(r.Amount)
	}
	out := make([]DailyAmount, 0, len(sums))
	for d, m := range sums {
		out = append(out, DailyAmount{Day: d, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// CategoryAmount is one row of an ordered breakdown.
type CategoryAmount struct {
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
}

// Ordered lists a breakdown in category display order.
func Ordered(breakdown map[core.Category]core.Money) []CategoryAmount {
	var out []CategoryAmount
	for _, c := range core.AllCategories() {
		if m, ok := breakdown[c]; ok {
			out = append(out, CategoryAmount{Category: c, Amount: m})
		}
	}
	return out
}
