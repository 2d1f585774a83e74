package anomaly

import (
	"testing"
	"time"

	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

var day0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func series(values ...float64) []model.TimeSeriesPoint {
	points := make([]model.TimeSeriesPoint, len(values))
	for i, v := range values {
		points[i] = model.TimeSeriesPoint{Date: day0.AddDate(0, 0, i), Value: decimal.NewFromFloat(v)}
	}
	return points
}

func TestDetect_TooFewPoints(t *testing.T) {
	d := NewDetector(DefaultOptions())
	for n := 0; n < 7; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(100 * (i + 1))
		}
		if got := d.Detect(model.MetricRevenue, series(values...)); len(got) != 0 {
			t.Errorf("n=%d: expected no anomalies, got %d", n, len(got))
		}
	}
}

func TestDetect_SpikeIsHigh(t *testing.T) {
	d := NewDetector(DefaultOptions())
	got := d.Detect(model.MetricRevenue, series(100, 100, 100, 100, 100, 100, 200))
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(got))
	}
	a := got[0]
	if !a.Date.Equal(day0.AddDate(0, 0, 6)) {
		t.Errorf("expected 7th day flagged, got %v", a.Date)
	}
	if a.Severity != model.SeverityHigh {
		t.Errorf("expected high severity, got %s", a.Severity)
	}
	if a.ExpectedValue != 100 || a.ActualValue != 200 {
		t.Errorf("expected 200 vs 100, got %.2f vs %.2f", a.ActualValue, a.ExpectedValue)
	}
	if a.DeviationPercentage != 100 {
		t.Errorf("expected deviation 100%%, got %.2f", a.DeviationPercentage)
	}
	if a.Kind != model.AnomalyWindow || a.MetricType != model.MetricRevenue {
		t.Errorf("unexpected kind/metric: %s/%s", a.Kind, a.MetricType)
	}
}

func TestDetect_ConstantSeries(t *testing.T) {
	d := NewDetector(DefaultOptions())
	got := d.Detect(model.MetricOrders, series(50, 50, 50, 50, 50, 50, 50, 50, 50, 50))
	if len(got) != 0 {
		t.Errorf("expected no anomalies for constant series, got %d", len(got))
	}
}

func TestDetect_DropIsNonNegativeDeviation(t *testing.T) {
	d := NewDetector(DefaultOptions())
	got := d.Detect(model.MetricRevenue, series(100, 100, 100, 100, 100, 100, 40))
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(got))
	}
	if got[0].DeviationPercentage != 60 {
		t.Errorf("expected deviation 60, got %.2f", got[0].DeviationPercentage)
	}
}

func TestDetect_ZeroMeanSkipped(t *testing.T) {
	d := NewDetector(DefaultOptions())
	got := d.Detect(model.MetricConversion, series(0, 0, 0, 0, 0, 0, 5))
	if len(got) != 0 {
		t.Errorf("expected zero-mean window to be skipped, got %d", len(got))
	}
}

func TestDetect_MediumBand(t *testing.T) {
	// Base window 90,110,90,110,90,110: mean 100, std 10.
	d := NewDetector(DefaultOptions())
	got := d.Detect(model.MetricRevenue, series(90, 110, 90, 110, 90, 110, 125))
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(got))
	}
	if got[0].Severity != model.SeverityMedium {
		t.Errorf("expected medium severity, got %s", got[0].Severity)
	}
}

func TestDetect_TieIsNotAnomaly(t *testing.T) {
	d := NewDetector(DefaultOptions())
	got := d.Detect(model.MetricRevenue, series(90, 110, 90, 110, 90, 110, 120))
	if len(got) != 0 {
		t.Errorf("expected exactly 2 sigma to pass, got %d anomalies", len(got))
	}
}

func TestDetect_Deterministic(t *testing.T) {
	d := NewDetector(DefaultOptions())
	in := series(10, 12, 11, 13, 12, 11, 30, 12, 11, 50)
	a := d.Detect(model.MetricRevenue, in)
	b := d.Detect(model.MetricRevenue, in)
	if len(a) != len(b) {
		t.Fatalf("different lengths: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("anomaly %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func flatDays(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		wantN    int
		severity model.Severity
	}{
		{"flat", 100, 0, ""},
		{"exactly 10 percent", 110, 0, ""},
		{"medium growth", 120, 1, model.SeverityMedium},
		{"high growth", 130, 1, model.SeverityHigh},
		{"high drop", 70, 1, model.SeverityHigh},
	}
	d := NewDetector(DefaultOptions())
	for _, tt := range tests {
		values := append(flatDays(30, 100), flatDays(30, tt.current)...)
		got := d.DetectTrend(model.MetricRevenue, series(values...))
		if len(got) != tt.wantN {
			t.Errorf("%s: expected %d anomalies, got %d", tt.name, tt.wantN, len(got))
			continue
		}
		if tt.wantN == 1 {
			if got[0].Severity != tt.severity {
				t.Errorf("%s: expected %s, got %s", tt.name, tt.severity, got[0].Severity)
			}
			if got[0].Kind != model.AnomalyTrend {
				t.Errorf("%s: expected trend kind, got %s", tt.name, got[0].Kind)
			}
			if got[0].DeviationPercentage < 0 {
				t.Errorf("%s: negative deviation %.2f", tt.name, got[0].DeviationPercentage)
			}
		}
	}
}

func TestDetectTrend_NoPriorWindow(t *testing.T) {
	d := NewDetector(DefaultOptions())
	if got := d.DetectTrend(model.MetricRevenue, series(flatDays(30, 100)...)); len(got) != 0 {
		t.Errorf("expected no trend anomaly without prior data, got %d", len(got))
	}
}

func TestDetectAll_CoversEveryMetric(t *testing.T) {
	var metrics []model.DailyMetric
	for i := 0; i < 10; i++ {
		m := model.DailyMetric{
			Date:              day0.AddDate(0, 0, i),
			Revenue:           decimal.NewFromInt(1000),
			Orders:            10,
			ConversionRate:    2.5,
			AverageOrderValue: decimal.NewFromInt(100),
		}
		if i == 9 {
			m.Revenue = decimal.NewFromInt(5000)
			m.Orders = 50
		}
		metrics = append(metrics, m)
	}
	got := NewDetector(DefaultOptions()).DetectAll(metrics)
	seen := map[model.MetricType]bool{}
	for _, a := range got {
		seen[a.MetricType] = true
	}
	if !seen[model.MetricRevenue] || !seen[model.MetricOrders] {
		t.Errorf("expected revenue and orders anomalies, got %+v", got)
	}
	if seen[model.MetricConversion] || seen[model.MetricAOV] {
		t.Errorf("unexpected anomalies on flat metrics: %+v", got)
	}
}
