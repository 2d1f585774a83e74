package commission

import (
	"testing"
	"time"

	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

var (
	periodStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRateFor_AllBoundaries(t *testing.T) {
	tests := []struct {
		sales string
		rate  string
	}{
		{"250000", "0.08"},
		{"100000", "0.08"},
		{"99999.99", "0.06"},
		{"50000", "0.06"},
		{"49999.99", "0.04"},
		{"25000", "0.04"},
		{"24999.99", "0.02"},
		{"0", "0.02"},
	}
	for _, tt := range tests {
		if got := RateFor(dec(tt.sales)); !got.Equal(dec(tt.rate)) {
			t.Errorf("sales %s: expected rate %s, got %s", tt.sales, tt.rate, got)
		}
	}
}

func TestCalculate_NoGoals(t *testing.T) {
	rec := Calculate("rep-1", periodStart, periodEnd, dec("100000"), nil)
	if !rec.CommissionAmount.Equal(dec("8000")) {
		t.Errorf("expected 8000, got %s", rec.CommissionAmount)
	}
	if !rec.BonusAmount.IsZero() {
		t.Errorf("expected no bonus, got %s", rec.BonusAmount)
	}
	if !rec.TotalPayout.Equal(dec("8000")) {
		t.Errorf("expected payout 8000, got %s", rec.TotalPayout)
	}
	if rec.Status != model.CommissionPending {
		t.Errorf("expected pending, got %s", rec.Status)
	}
}

func TestCalculate_GoalBonuses(t *testing.T) {
	goals := []model.Goal{
		{ID: "g1", SalesRepID: "rep-1", TargetValue: dec("10"), CurrentValue: dec("10"), Active: true},
		{ID: "g2", SalesRepID: "rep-1", TargetValue: dec("10"), CurrentValue: dec("12"), Active: true,
			StartDate: periodStart, EndDate: periodEnd},
		{ID: "g3", SalesRepID: "rep-1", TargetValue: dec("10"), CurrentValue: dec("9"), Active: true},
		{ID: "g4", SalesRepID: "rep-1", TargetValue: dec("10"), CurrentValue: dec("20"), Active: false},
		{ID: "g5", SalesRepID: "rep-2", TargetValue: dec("10"), CurrentValue: dec("20"), Active: true},
		{ID: "g6", SalesRepID: "rep-1", TargetValue: dec("10"), CurrentValue: dec("20"), Active: true,
			StartDate: periodEnd.AddDate(0, 1, 0)},
	}
	rec := Calculate("rep-1", periodStart, periodEnd, dec("30000"), goals)
	if !rec.CommissionRate.Equal(dec("0.04")) {
		t.Errorf("expected 4%%, got %s", rec.CommissionRate)
	}
	if !rec.CommissionAmount.Equal(dec("1200")) {
		t.Errorf("expected 1200, got %s", rec.CommissionAmount)
	}
	// g1 and g2 qualify: 2 * 30000 * 0.001
	if !rec.BonusAmount.Equal(dec("60")) {
		t.Errorf("expected bonus 60, got %s", rec.BonusAmount)
	}
	if !rec.TotalPayout.Equal(dec("1260")) {
		t.Errorf("expected payout 1260, got %s", rec.TotalPayout)
	}
}

func TestCalculate_LowestTier(t *testing.T) {
	rec := Calculate("rep-1", periodStart, periodEnd, dec("24999.99"), nil)
	if !rec.CommissionRate.Equal(dec("0.02")) {
		t.Errorf("expected 2%%, got %s", rec.CommissionRate)
	}
	if !rec.CommissionAmount.Equal(dec("499.9998")) {
		t.Errorf("expected 499.9998, got %s", rec.CommissionAmount)
	}
}

func TestCalculateAll(t *testing.T) {
	sales := []model.RepSales{
		{SalesRepID: "a", TotalSales: dec("60000")},
		{SalesRepID: "b", TotalSales: dec("1000")},
	}
	got := CalculateAll(sales, periodStart, periodEnd, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].CommissionAmount.Equal(dec("3600")) || !got[1].CommissionAmount.Equal(dec("20")) {
		t.Errorf("unexpected amounts: %s, %s", got[0].CommissionAmount, got[1].CommissionAmount)
	}
}
