// Package metrics exposes Prometheus metrics for the analytics runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sales_sentinel"

var (
	// TaskRunsTotal counts scheduled task runs by task and outcome.
	TaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Total number of analytics task runs by task and outcome.",
		},
		[]string{"task", "outcome"},
	)

	// TaskDurationSeconds is the wall time of a task run.
	TaskDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Analytics task duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2.5, 10), // 10ms to ~38s
		},
		[]string{"task"},
	)

	// AnomaliesDetectedTotal counts anomalies by metric and severity.
	AnomaliesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_detected_total",
			Help:      "Total number of anomalies detected by metric type and severity.",
		},
		[]string{"metric_type", "severity"},
	)

	// ForecastsGeneratedTotal counts forecast periods produced.
	ForecastsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_generated_total",
			Help:      "Total number of forecast periods generated by forecast type.",
		},
		[]string{"forecast_type"},
	)

	// CommissionsPaidTotal counts commission records moved to paid.
	CommissionsPaidTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commissions_paid_total",
			Help:      "Total number of commission records paid out.",
		},
	)

	// WidgetCacheTotal counts BI widget cache lookups by result (hit/miss).
	WidgetCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_cache_total",
			Help:      "Total number of BI widget cache lookups by result.",
		},
		[]string{"result"},
	)
)
