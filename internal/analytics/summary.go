package analytics

import (
	"context"
	"fmt"

	"spendlens/internal/core"
)

// Summary bundles every dashboard figure for one user and month.
type Summary struct {
	Month       string           `json:"month"`
	Total       core.Money       `json:"total"`
	Breakdown   []CategoryAmount `json:"breakdown"`
	Daily       []DailyAmount    `json:"daily"`
	Forecast    core.Money       `json:"forecast"`
	Anomalies   []string         `json:"anomalies"`
	Suggestions []string         `json:"suggestions"`
}

// Summary reads the current month once and the full history once.
func (a *Aggregator) Summary(ctx context.Context, userID int64) (Summary, error) {
	recs, err := a.monthRecords(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	anomalies, err := a.Anomalies(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	breakdown := Breakdown(recs)
	total := Total(recs)
	daily := Daily(recs)
	s := Summary{
		Month:       a.CurrentMonth(),
		Total:       total,
		Breakdown:   Ordered(breakdown),
		Daily:       daily,
		Forecast:    Forecast(daily),
		Anomalies:   make([]string, 0, len(anomalies)),
		Suggestions: a.Suggestions(breakdown, total),
	}
	for _, e := range anomalies {
		s.Anomalies = append(s.Anomalies, AnomalyMessage(e, a.ceilings.Currency))
	}
	return s, nil
}

// ChartData is the parallel-array shape chart widgets consume.
type ChartData struct {
	Categories      []string     `json:"categories"`
	CategoryAmounts []core.Money `json:"category_amounts"`
	Dates           []string     `json:"dates"`
	DailyAmounts    []core.Money `json:"daily_amounts"`
}

// Chart flattens a summary into chart arrays.
func (s Summary) Chart() ChartData {
	cd := ChartData{
		Categories:      make([]string, 0, len(s.Breakdown)),
		CategoryAmounts: make([]core.Money, 0, len(s.Breakdown)),
		Dates:           make([]string, 0, len(s.Daily)),
		DailyAmounts:    make([]core.Money, 0, len(s.Daily)),
	}
	for _, b := range s.Breakdown {
		cd.Categories = append(cd.Categories, b.Category.String())
		cd.CategoryAmounts = append(cd.CategoryAmounts, b.Amount)
	}
	for _, d := range s.Daily {
		cd.Dates = append(cd.Dates, d.Day)
		cd.DailyAmounts = append(cd.DailyAmounts, d.Amount)
	}
	return cd
}

// CategoryTotal is the current month's spend in one category.
func (a *Aggregator) CategoryTotal(ctx context.Context, userID int64, cat core.Category) (core.Money, error) {
	b, err := a.CategoryBreakdown(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("category total: %w", err)
	}
	return b[cat], nil
}
