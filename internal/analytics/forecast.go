package analytics

import (
	"math"
	"time"

	"spendlens/internal/core"

	"github.com/shopspring/decimal"
)

// ForecastHorizon is the day offset the trend is evaluated at.
const ForecastHorizon = 30

// Forecast projects month-end spend from daily totals (ascending by day).
//
// No data forecasts zero and a single day is multiplied by the horizon.
// Otherwise a least-squares line is fitted to cumulative spend against days
// since the first observation and read at the horizon, floored at zero.
func Forecast(daily []DailyAmount) core.Money {
	switch len(daily) {
	case 0:
		return core.Money{}
	case 1:
		return core.Money{Cents: daily[0].Amount.Cents * ForecastHorizon}
	}

	first, err := time.Parse(core.DayLayout, daily[0].Day)
	if err != nil {
		return core.Money{}
	}
	xs := make([]float64, len(daily))
	ys := make([]float64, len(daily))
	var cum core.Money
	for i, d := range daily {
		day, err := time.Parse(core.DayLayout, d.Day)
		if err != nil {
			return core.Money{}
		}
		cum = cum.Add(d.Amount)
		xs[i] = math.Round(day.Sub(first).Hours() / 24)
		ys[i] = cum.Float()
	}

	slope, intercept, ok := leastSquares(xs, ys)
	if !ok {
		return core.Money{}
	}
	projected := math.Max(0, intercept+slope*ForecastHorizon)
	return core.FromDecimal(decimal.NewFromFloat(projected).Round(2))
}

func leastSquares(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, 0, false
	}
	slope = sxy / sxx
	return slope, my - slope*mx, true
}
