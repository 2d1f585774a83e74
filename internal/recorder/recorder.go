package recorder

import (
	"errors"
	"time"

	"SalesSentinel/internal/model"
)

// ErrStatusChanged is returned when a commission left the expected status
// before a transition was written.
var ErrStatusChanged = errors.New("commission status changed")

// Recorder persists analytics results and owns the commission status workflow.
type Recorder interface {
	RecordAnomalies(runID string, anomalies []model.Anomaly) error
	RecordForecasts(runID string, forecasts []model.Forecast) error
	ListForecasts(from, to time.Time) ([]model.Forecast, error)
	UpdateForecastAccuracy(f model.Forecast) error
	RecordCohorts(runID string, records []model.CohortRecord) error
	// RecordCommissions stores records and assigns their IDs.
	RecordCommissions(runID string, records []model.CommissionRecord) ([]model.CommissionRecord, error)
	LoadCommissions(ids []int64) ([]*model.CommissionRecord, error)
	// UpdateCommissionStatus moves a commission from one status to another.
	// It returns model.ErrInvalidRecord for an unknown id and ErrStatusChanged
	// when the stored status is no longer from.
	UpdateCommissionStatus(id int64, from, to model.CommissionStatus) error
	RecordPipeline(runID string, buckets []model.PipelineForecastBucket) error
	Close() error
}
