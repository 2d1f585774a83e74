package pipeline

import (
	"time"

	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// WinRate is the percentage of closed opportunities that were won.
func WinRate(closed []model.Opportunity) decimal.Decimal {
	won, total := winRatio(closed)
	return decimal.NewFromInt(won * 100).Div(decimal.NewFromInt(total))
}

// winRatio returns won and closed counts. With nothing closed it assumes an
// even 1/2, a 50% win rate.
func winRatio(closed []model.Opportunity) (won, total int64) {
	for _, o := range closed {
		switch o.Stage {
		case model.StageClosedWon:
			won++
			total++
		case model.StageClosedLost:
			total++
		}
	}
	if total == 0 {
		return 1, 2
	}
	return won, total
}

// Forecast projects closed revenue for the reference month and the following
// months-1 months, bucketing open opportunities by expected close month.
func Forecast(open, closed []model.Opportunity, reference time.Time, months int) []model.PipelineForecastBucket {
	if months <= 0 {
		return nil
	}
	won, total := winRatio(closed)
	winRate := WinRate(closed)
	first := monthStart(reference)

	out := make([]model.PipelineForecastBucket, months)
	for i := range out {
		out[i] = model.PipelineForecastBucket{
			Month:             first.AddDate(0, i, 0),
			TotalValue:        decimal.Zero,
			WeightedValue:     decimal.Zero,
			ForecastedRevenue: decimal.Zero,
			WinRateApplied:    winRate.Round(2),
		}
	}

	for _, o := range open {
		if !o.Stage.Open() {
			continue
		}
		i := monthIndex(first, o.ExpectedCloseDate)
		if i < 0 || i >= months {
			continue
		}
		b := &out[i]
		b.OpportunitiesCount++
		b.TotalValue = b.TotalValue.Add(o.EstimatedValue)
		b.WeightedValue = b.WeightedValue.Add(o.WeightedValue())
	}

	for i := range out {
		b := &out[i]
		// Scale by the raw counts so thirds and sevenths floor exactly.
		b.ForecastedRevenue = b.WeightedValue.Mul(decimal.NewFromInt(won)).Div(decimal.NewFromInt(total)).Round(2)
		b.ForecastedDeals = int(int64(b.OpportunitiesCount) * won / total)
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// monthIndex counts calendar months from first to t's month.
func monthIndex(first, t time.Time) int {
	t = t.In(first.Location())
	return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
}
