package bi

import (
	"context"
	"errors"
	"testing"
	"time"

	"SalesSentinel/internal/anomaly"
	"SalesSentinel/internal/collector"
	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

var to = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func testService(src *collector.MockSource, cache Cache) *Service {
	return NewService(collector.NewCollector(src), cache, Options{
		Anomaly:         anomaly.DefaultOptions(),
		ForecastType:    model.ForecastDaily,
		ForecastHorizon: 3,
		PipelineMonths:  2,
	})
}

func dailyMetrics(n int) []model.DailyMetric {
	out := make([]model.DailyMetric, n)
	for i := range out {
		out[i] = model.DailyMetric{
			Date:              to.AddDate(0, 0, i-n+1),
			Revenue:           decimal.NewFromInt(1000),
			Orders:            10,
			AverageOrderValue: decimal.NewFromInt(100),
		}
	}
	return out
}

func TestParseDataSource(t *testing.T) {
	d, err := ParseDataSource("pipeline")
	if err != nil || d != SourcePipeline {
		t.Fatalf("expected pipeline, got %v (%v)", d, err)
	}
	if _, err := ParseDataSource("market_share"); !errors.Is(err, model.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
	if SourceCohorts.String() != "cohorts" {
		t.Errorf("unexpected name %q", SourceCohorts.String())
	}
}

func TestWidget_UnknownSource(t *testing.T) {
	s := testService(&collector.MockSource{}, nil)
	_, err := s.Widget(context.Background(), Request{Source: DataSource(99), From: to, To: to})
	if !errors.Is(err, model.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestWidget_SalesSummary(t *testing.T) {
	s := testService(&collector.MockSource{Metrics: dailyMetrics(7)}, NoopCache{})
	v, err := s.Widget(context.Background(), Request{Source: SourceSalesSummary, From: to.AddDate(0, 0, -6), To: to})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := v.(SalesSummary)
	if sum.Days != 7 || sum.TotalOrders != 70 || !sum.TotalRevenue.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if !sum.AverageOrderValue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected AOV 100, got %s", sum.AverageOrderValue)
	}
}

func TestWidget_CachesResults(t *testing.T) {
	src := &collector.MockSource{Metrics: dailyMetrics(10)}
	s := testService(src, NewLRUCache(16, time.Minute))
	req := Request{Source: SourceForecast, From: to.AddDate(0, 0, -9), To: to}

	first, err := s.Widget(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(first.([]model.Forecast)); n != 3 {
		t.Fatalf("expected 3 forecasts, got %d", n)
	}

	// A failing source is not consulted while the entry is cached.
	src.Err = errors.New("store down")
	second, err := s.Widget(context.Background(), req)
	if err != nil {
		t.Fatalf("expected cached result, got error %v", err)
	}
	if len(second.([]model.Forecast)) != 3 {
		t.Errorf("unexpected cached value %v", second)
	}
}

func TestWidget_NoopCacheRecomputes(t *testing.T) {
	src := &collector.MockSource{Metrics: dailyMetrics(10)}
	s := testService(src, NoopCache{})
	req := Request{Source: SourceAnomalies, From: to.AddDate(0, 0, -9), To: to}
	if _, err := s.Widget(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.Err = errors.New("store down")
	if _, err := s.Widget(context.Background(), req); err == nil {
		t.Error("expected error without a cache")
	}
}

func TestWidget_AnomaliesSeeTrend(t *testing.T) {
	metrics := dailyMetrics(60)
	for i := 30; i < 60; i++ {
		metrics[i].Revenue = decimal.NewFromInt(2000)
	}
	s := testService(&collector.MockSource{Metrics: metrics}, nil)

	// The widget covers 30 days, but the trend needs the 30 before them too.
	v, err := s.Widget(context.Background(), Request{Source: SourceAnomalies, From: to.AddDate(0, 0, -29), To: to})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var trend []model.Anomaly
	for _, a := range v.([]model.Anomaly) {
		if a.Kind == model.AnomalyTrend {
			trend = append(trend, a)
		}
	}
	if len(trend) != 1 {
		t.Fatalf("expected one trend anomaly, got %+v", trend)
	}
	if trend[0].MetricType != model.MetricRevenue || trend[0].Severity != model.SeverityHigh || trend[0].DeviationPercentage != 100 {
		t.Errorf("unexpected trend anomaly %+v", trend[0])
	}
}

func TestWidget_PipelineAndCommissions(t *testing.T) {
	src := &collector.MockSource{
		Opportunities: []model.Opportunity{
			{ID: "o1", EstimatedValue: decimal.NewFromInt(1000), Probability: 50, Stage: model.StageLead, ExpectedCloseDate: to},
			{ID: "o2", Stage: model.StageClosedWon},
		},
		Sales: []model.RepSales{{SalesRepID: "rep", TotalSales: decimal.NewFromInt(50000)}},
	}
	s := testService(src, nil)
	v, err := s.Widget(context.Background(), Request{Source: SourcePipeline, From: to, To: to})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	buckets := v.([]model.PipelineForecastBucket)
	if len(buckets) != 2 || !buckets[0].ForecastedRevenue.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unexpected buckets: %+v", buckets)
	}

	v, err = s.Widget(context.Background(), Request{Source: SourceCommissions, From: to.AddDate(0, -1, 0), To: to})
	if err != nil {
		t.Fatalf("commissions: %v", err)
	}
	recs := v.([]model.CommissionRecord)
	if len(recs) != 1 || !recs[0].CommissionAmount.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("unexpected commissions: %+v", recs)
	}
}
