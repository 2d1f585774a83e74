package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"SalesSentinel/internal/commission"
	"SalesSentinel/internal/model"
)

// FormatAnomalies summarises a detection run.
func FormatAnomalies(day time.Time, anomalies []model.Anomaly) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Anomaly check | %s\n", day.Format("2006-01-02")))
	if len(anomalies) == 0 {
		b.WriteString("No anomalies detected.\n")
		return b.String()
	}
	for _, a := range anomalies {
		b.WriteString(fmt.Sprintf("  [%s] %s %s %s: actual %.2f, expected %.2f (%.2f%%)\n",
			a.Severity, a.Date.Format("2006-01-02"), a.MetricType, a.Kind,
			a.ActualValue, a.ExpectedValue, a.DeviationPercentage))
	}
	return b.String()
}

// FormatForecasts summarises generated forecasts.
func FormatForecasts(forecasts []model.Forecast) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Revenue forecast | %d periods\n", len(forecasts)))
	if len(forecasts) == 0 {
		b.WriteString("Not enough history to forecast.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Trend factor: %.4f\n", forecasts[0].TrendFactor))
	for _, f := range forecasts {
		b.WriteString(fmt.Sprintf("  %s %s: %.2f [%.2f, %.2f] orders %d\n",
			f.ForecastDate.Format("2006-01-02"), f.ForecastType,
			f.PredictedValue, f.ConfidenceLower, f.ConfidenceUpper, f.PredictedOrders))
	}
	return b.String()
}

// FormatMonthly summarises cohort, commission and pipeline results of a month.
func FormatMonthly(month time.Time, cohorts []model.CohortRecord, commissions []model.CommissionRecord, buckets []model.PipelineForecastBucket) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Monthly summary | %s\n\n", month.Format("2006-01")))

	b.WriteString(fmt.Sprintf("Cohorts: %d\n", len(cohorts)))
	for _, c := range cohorts {
		b.WriteString(fmt.Sprintf("  %s: %d customers, month-1 retention %.2f%%\n",
			c.CohortPeriod, c.CustomersCount, c.RetentionRates[1]))
	}

	b.WriteString(fmt.Sprintf("\nCommissions: %d\n", len(commissions)))
	for _, c := range commissions {
		b.WriteString(fmt.Sprintf("  #%d %s: sales %s, rate %s, payout %s (%s)\n",
			c.ID, c.SalesRepID, c.TotalSales.StringFixed(2), c.CommissionRate.String(),
			c.TotalPayout.StringFixed(2), c.Status))
	}

	b.WriteString("\nPipeline:\n")
	for _, p := range buckets {
		b.WriteString(fmt.Sprintf("  %s: %d open, weighted %s, forecast %s (%d deals, win rate %s%%)\n",
			p.Month.Format("2006-01"), p.OpportunitiesCount, p.WeightedValue.StringFixed(2),
			p.ForecastedRevenue.StringFixed(2), p.ForecastedDeals, p.WinRateApplied.StringFixed(2)))
	}
	return b.String()
}

// FormatPayout reports a batch payout.
func FormatPayout(res *commission.PayoutResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Paid: %d", len(res.Paid)))
	for _, id := range res.Paid {
		b.WriteString(fmt.Sprintf(" #%d", id))
	}
	b.WriteString("\n")
	skipped := make([]int64, 0, len(res.Skipped))
	for id := range res.Skipped {
		skipped = append(skipped, id)
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i] < skipped[j] })
	for _, id := range skipped {
		b.WriteString(fmt.Sprintf("Skipped #%d: %v\n", id, res.Skipped[id]))
	}
	return b.String()
}
