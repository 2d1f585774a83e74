package model

import "time"

// Severity grades how far an observation strayed from its expectation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AnomalyKind tells which detector produced an anomaly.
type AnomalyKind string

const (
	AnomalyWindow AnomalyKind = "window"
	AnomalyTrend  AnomalyKind = "trend"
)

// Anomaly is a flagged deviation of a metric from its expected value.
type Anomaly struct {
	Date                time.Time   `json:"date"`
	MetricType          MetricType  `json:"metric_type"`
	Kind                AnomalyKind `json:"kind"`
	ActualValue         float64     `json:"actual_value"`
	ExpectedValue       float64     `json:"expected_value"`
	DeviationPercentage float64     `json:"deviation_percentage"` // always >= 0
	Severity            Severity    `json:"severity"`
}
