package recorder

import (
	"time"

	"SalesSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnomalies(_ string, _ []model.Anomaly) error { return nil }

func (n *NoopRecorder) RecordForecasts(_ string, _ []model.Forecast) error { return nil }

func (n *NoopRecorder) ListForecasts(_, _ time.Time) ([]model.Forecast, error) { return nil, nil }

func (n *NoopRecorder) UpdateForecastAccuracy(_ model.Forecast) error { return nil }

func (n *NoopRecorder) RecordCohorts(_ string, _ []model.CohortRecord) error { return nil }

func (n *NoopRecorder) RecordCommissions(_ string, records []model.CommissionRecord) ([]model.CommissionRecord, error) {
	return records, nil
}

// LoadCommissions finds nothing, so payout batches report every id as unknown.
func (n *NoopRecorder) LoadCommissions(_ []int64) ([]*model.CommissionRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) UpdateCommissionStatus(_ int64, _, _ model.CommissionStatus) error {
	return model.ErrInvalidRecord
}

func (n *NoopRecorder) RecordPipeline(_ string, _ []model.PipelineForecastBucket) error { return nil }

func (n *NoopRecorder) Close() error { return nil }
