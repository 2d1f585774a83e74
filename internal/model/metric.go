package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricType names one of the daily business metrics.
type MetricType string

const (
	MetricRevenue    MetricType = "revenue"
	MetricOrders     MetricType = "orders"
	MetricConversion MetricType = "conversion"
	MetricAOV        MetricType = "aov"
)

// MetricTypes lists every tracked metric in a stable order.
var MetricTypes = []MetricType{MetricRevenue, MetricOrders, MetricConversion, MetricAOV}

// TimeSeriesPoint is a single dated observation. Series are ordered ascending by
// date with at most one point per date.
type TimeSeriesPoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// DailyMetric is one row of the daily sales metrics table.
type DailyMetric struct {
	Date              time.Time
	Revenue           decimal.Decimal
	Orders            int
	ConversionRate    float64
	AverageOrderValue decimal.Decimal
}

// Value returns the metric's value for the given type.
func (m DailyMetric) Value(t MetricType) decimal.Decimal {
	switch t {
	case MetricOrders:
		return decimal.NewFromInt(int64(m.Orders))
	case MetricConversion:
		return decimal.NewFromFloat(m.ConversionRate)
	case MetricAOV:
		return m.AverageOrderValue
	default:
		return m.Revenue
	}
}

// Series projects daily metrics onto a single time series.
func Series(metrics []DailyMetric, t MetricType) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, len(metrics))
	for i, m := range metrics {
		points[i] = TimeSeriesPoint{Date: m.Date, Value: m.Value(t)}
	}
	return points
}

// Values extracts the float values of a series.
func Values(points []TimeSeriesPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value.InexactFloat64()
	}
	return values
}
