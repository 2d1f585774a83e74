package forecast

import (
	"math"
	"sort"
	"time"

	"SalesSentinel/internal/calculator"
	"SalesSentinel/internal/model"
)

const (
	// MinHistory is the fewest points Generate will forecast from.
	MinHistory = 3
	// ModelAccuracy is reported for fresh forecasts until Reconcile scores them.
	ModelAccuracy = 75.0

	maxConsidered   = 30
	minTrendPoints  = 10
	trendSample     = 5
	trendDamping    = 0.1
	confidenceWidth = 0.20
)

// TrendFactor is the ratio of the mean of the newest 5 points to the mean of
// the oldest 5. Fewer than 10 points, or an all-zero older sample, means no trend.
func TrendFactor(revenues []float64) float64 {
	if len(revenues) < minTrendPoints {
		return 1.0
	}
	older := calculator.Mean(revenues[:trendSample])
	recent := calculator.Mean(revenues[len(revenues)-trendSample:])
	if older == 0 {
		return 1.0
	}
	return recent / older
}

// Generate produces horizon forecasts stepping from reference by the forecast type.
// Only the most recent 30 history points are considered; fewer than 3 yields nothing.
func Generate(history []model.HistoryPoint, ft model.ForecastType, horizon int, reference time.Time) []model.Forecast {
	if len(history) < MinHistory || horizon <= 0 {
		return nil
	}

	sorted := make([]model.HistoryPoint, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	if len(sorted) > maxConsidered {
		sorted = sorted[len(sorted)-maxConsidered:]
	}

	revenues := make([]float64, len(sorted))
	orders := make([]float64, len(sorted))
	for i, h := range sorted {
		revenues[i] = h.Revenue
		orders[i] = float64(h.Orders)
	}
	avgRevenue := calculator.Mean(revenues)
	avgOrders := calculator.Mean(orders)
	trend := TrendFactor(revenues)

	out := make([]model.Forecast, 0, horizon)
	for i := 1; i <= horizon; i++ {
		growth := math.Pow(trend, float64(i)*trendDamping)
		predicted := avgRevenue * growth
		predictedOrders := int(math.Round(avgOrders * growth))
		if predictedOrders < 1 {
			predictedOrders = 1
		}

		date := Step(reference, ft, i)
		seasonal := SeasonalIndex(date.Month())

		out = append(out, model.Forecast{
			ForecastDate:    date,
			ForecastType:    ft,
			PredictedValue:  calculator.Round2(predicted * seasonal),
			PredictedOrders: predictedOrders,
			ConfidenceLower: calculator.Round2(predicted * (1 - confidenceWidth) * seasonal),
			ConfidenceUpper: calculator.Round2(predicted * (1 + confidenceWidth) * seasonal),
			SeasonalFactor:  seasonal,
			TrendFactor:     trend,
			ModelAccuracy:   ModelAccuracy,
		})
	}
	return out
}

// Step returns the date n periods after reference.
func Step(reference time.Time, ft model.ForecastType, n int) time.Time {
	switch ft {
	case model.ForecastWeekly:
		return reference.AddDate(0, 0, 7*n)
	case model.ForecastMonthly:
		return reference.AddDate(0, n, 0)
	case model.ForecastQuarterly:
		return reference.AddDate(0, 3*n, 0)
	default:
		return reference.AddDate(0, 0, n)
	}
}

// Accuracy scores a prediction against a realized value, floored at 0.
// A non-positive actual cannot be scored.
func Accuracy(actual, predicted float64) (float64, bool) {
	if actual <= 0 {
		return 0, false
	}
	acc := (1 - math.Abs(actual-predicted)/actual) * 100
	return calculator.Round2(math.Max(0, acc)), true
}

// Reconcile returns a copy of forecasts with ModelAccuracy overwritten for
// every forecast whose date has a realized revenue in actuals.
func Reconcile(forecasts []model.Forecast, actuals []model.HistoryPoint) []model.Forecast {
	byDay := make(map[string]float64, len(actuals))
	for _, a := range actuals {
		byDay[dayKey(a.Date)] = a.Revenue
	}
	out := make([]model.Forecast, len(forecasts))
	copy(out, forecasts)
	for i := range out {
		actual, ok := byDay[dayKey(out[i].ForecastDate)]
		if !ok {
			continue
		}
		if acc, ok := Accuracy(actual, out[i].PredictedValue); ok {
			out[i].ModelAccuracy = acc
		}
	}
	return out
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
