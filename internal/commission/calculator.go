package commission

import (
	"time"

	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// Tier maps a minimum sales total to the rate applied to the whole total.
type Tier struct {
	MinSales decimal.Decimal
	Rate     decimal.Decimal
}

// Tiers is ordered from the highest threshold down.
var Tiers = []Tier{
	{decimal.NewFromInt(100000), decimal.RequireFromString("0.08")},
	{decimal.NewFromInt(50000), decimal.RequireFromString("0.06")},
	{decimal.NewFromInt(25000), decimal.RequireFromString("0.04")},
}

// DefaultRate applies below the lowest tier.
var DefaultRate = decimal.RequireFromString("0.02")

// GoalBonusRate is paid on total sales for each achieved goal.
var GoalBonusRate = decimal.RequireFromString("0.001")

// RateFor returns the commission rate for a sales total. Thresholds are inclusive.
func RateFor(totalSales decimal.Decimal) decimal.Decimal {
	for _, t := range Tiers {
		if totalSales.GreaterThanOrEqual(t.MinSales) {
			return t.Rate
		}
	}
	return DefaultRate
}

// Calculate builds the commission record of one representative for a period.
// Every active goal of the rep overlapping the period whose current value has
// reached its target adds GoalBonusRate of total sales to the bonus.
func Calculate(repID string, periodStart, periodEnd time.Time, totalSales decimal.Decimal, goals []model.Goal) model.CommissionRecord {
	rate := RateFor(totalSales)
	amount := totalSales.Mul(rate)

	bonus := decimal.Zero
	for _, g := range goals {
		if g.SalesRepID != repID || !g.Active || !overlaps(g, periodStart, periodEnd) {
			continue
		}
		if g.Achieved() {
			bonus = bonus.Add(totalSales.Mul(GoalBonusRate))
		}
	}

	return model.CommissionRecord{
		SalesRepID:       repID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		TotalSales:       totalSales,
		CommissionRate:   rate,
		CommissionAmount: amount,
		BonusAmount:      bonus,
		TotalPayout:      amount.Add(bonus),
		Status:           model.CommissionPending,
	}
}

// CalculateAll computes a record for every rep's sales total.
func CalculateAll(sales []model.RepSales, periodStart, periodEnd time.Time, goals []model.Goal) []model.CommissionRecord {
	out := make([]model.CommissionRecord, 0, len(sales))
	for _, s := range sales {
		out = append(out, Calculate(s.SalesRepID, periodStart, periodEnd, s.TotalSales, goals))
	}
	return out
}

// overlaps treats a zero goal date as unbounded on that side.
func overlaps(g model.Goal, start, end time.Time) bool {
	if !g.StartDate.IsZero() && g.StartDate.After(end) {
		return false
	}
	if !g.EndDate.IsZero() && g.EndDate.Before(start) {
		return false
	}
	return true
}
