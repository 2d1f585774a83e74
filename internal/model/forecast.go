package model

import "time"

// ForecastType controls the step between forecast dates.
type ForecastType string

const (
	ForecastDaily     ForecastType = "daily"
	ForecastWeekly    ForecastType = "weekly"
	ForecastMonthly   ForecastType = "monthly"
	ForecastQuarterly ForecastType = "quarterly"
)

// ParseForecastType validates a forecast type name.
func ParseForecastType(s string) (ForecastType, bool) {
	switch t := ForecastType(s); t {
	case ForecastDaily, ForecastWeekly, ForecastMonthly, ForecastQuarterly:
		return t, true
	}
	return "", false
}

// HistoryPoint is one historical observation fed to the forecaster.
type HistoryPoint struct {
	Date    time.Time
	Revenue float64
	Orders  int
}

// Forecast is a single-period revenue prediction with its confidence band.
type Forecast struct {
	ForecastDate    time.Time    `json:"forecast_date"`
	ForecastType    ForecastType `json:"forecast_type"`
	PredictedValue  float64      `json:"predicted_value"`
	PredictedOrders int          `json:"predicted_orders"`
	ConfidenceLower float64      `json:"confidence_lower"`
	ConfidenceUpper float64      `json:"confidence_upper"`
	SeasonalFactor  float64      `json:"seasonal_factor"`
	TrendFactor     float64      `json:"trend_factor"`
	ModelAccuracy   float64      `json:"model_accuracy"`
}
