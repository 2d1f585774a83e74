package anomaly

import (
	"math"

	"SalesSentinel/internal/calculator"
	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// Options tunes both detectors. The zero value is not usable; start from DefaultOptions.
type Options struct {
	LookbackDays       int     // window detection only looks at this many trailing days
	Window             int     // trailing observations forming the expectation
	StdThreshold       float64 // sigmas for a medium anomaly
	HighStdThreshold   float64 // sigmas for a high anomaly
	TrendWindowDays    int     // length of each compared trend window
	TrendThreshold     float64 // percent change for a medium trend anomaly
	HighTrendThreshold float64 // percent change for a high trend anomaly
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		LookbackDays:       30,
		Window:             7,
		StdThreshold:       2,
		HighStdThreshold:   3,
		TrendWindowDays:    30,
		TrendThreshold:     10,
		HighTrendThreshold: 25,
	}
}

// Detector flags metric values that stray from their recent history.
type Detector struct {
	opts Options
}

// NewDetector creates a Detector.
func NewDetector(opts Options) *Detector {
	return &Detector{opts: opts}
}

// Detect runs the sliding-window detector over one metric series.
// Each point from index Window-1 on is compared with the mean and population
// std of the up-to-Window observations before it. Series shorter than Window
// yield no anomalies.
func (d *Detector) Detect(metric model.MetricType, points []model.TimeSeriesPoint) []model.Anomaly {
	w := d.opts.Window
	if w <= 1 || len(points) < w {
		return nil
	}
	values := model.Values(points)

	var out []model.Anomaly
	for i := w - 1; i < len(values); i++ {
		base := calculator.Window(values, i-1, w)
		if base.Mean == 0 {
			continue // deviation undefined
		}
		diff := math.Abs(values[i] - base.Mean)
		if diff <= d.opts.StdThreshold*base.StdDev {
			continue
		}
		severity := model.SeverityMedium
		if diff > d.opts.HighStdThreshold*base.StdDev {
			severity = model.SeverityHigh
		}
		out = append(out, model.Anomaly{
			Date:                points[i].Date,
			MetricType:          metric,
			Kind:                model.AnomalyWindow,
			ActualValue:         calculator.Round2(values[i]),
			ExpectedValue:       calculator.Round2(base.Mean),
			DeviationPercentage: calculator.Round2(diff / math.Abs(base.Mean) * 100),
			Severity:            severity,
		})
	}
	return out
}

// DetectTrend compares the total of the last TrendWindowDays (ending at the
// last point's date) with the total of the window before it. It returns at
// most one anomaly.
func (d *Detector) DetectTrend(metric model.MetricType, points []model.TimeSeriesPoint) []model.Anomaly {
	if len(points) == 0 || d.opts.TrendWindowDays <= 0 {
		return nil
	}
	ref := points[len(points)-1].Date
	curStart := ref.AddDate(0, 0, -d.opts.TrendWindowDays)
	prevStart := curStart.AddDate(0, 0, -d.opts.TrendWindowDays)

	current, previous := decimal.Zero, decimal.Zero
	for _, p := range points {
		switch {
		case p.Date.After(curStart) && !p.Date.After(ref):
			current = current.Add(p.Value)
		case p.Date.After(prevStart) && !p.Date.After(curStart):
			previous = previous.Add(p.Value)
		}
	}
	if previous.IsZero() {
		return nil
	}

	cur := current.InexactFloat64()
	prev := previous.InexactFloat64()
	change := math.Abs((cur - prev) / prev * 100)
	if change <= d.opts.TrendThreshold {
		return nil
	}
	severity := model.SeverityMedium
	if change > d.opts.HighTrendThreshold {
		severity = model.SeverityHigh
	}
	return []model.Anomaly{{
		Date:                ref,
		MetricType:          metric,
		Kind:                model.AnomalyTrend,
		ActualValue:         calculator.Round2(cur),
		ExpectedValue:       calculator.Round2(prev),
		DeviationPercentage: calculator.Round2(change),
		Severity:            severity,
	}}
}

// DetectAll runs both detectors for every metric type. Window detection is
// limited to the lookback period; the trend detector sees the whole input.
func (d *Detector) DetectAll(metrics []model.DailyMetric) []model.Anomaly {
	if len(metrics) == 0 {
		return nil
	}
	recent := trailingDays(metrics, d.opts.LookbackDays)

	var out []model.Anomaly
	for _, mt := range model.MetricTypes {
		out = append(out, d.Detect(mt, model.Series(recent, mt))...)
		out = append(out, d.DetectTrend(mt, model.Series(metrics, mt))...)
	}
	return out
}

func trailingDays(metrics []model.DailyMetric, days int) []model.DailyMetric {
	if days <= 0 {
		return metrics
	}
	cutoff := metrics[len(metrics)-1].Date.AddDate(0, 0, -days)
	for i, m := range metrics {
		if m.Date.After(cutoff) {
			return metrics[i:]
		}
	}
	return nil
}
