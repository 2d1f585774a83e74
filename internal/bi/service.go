package bi

import (
	"context"
	"fmt"
	"time"

	"SalesSentinel/internal/anomaly"
	"SalesSentinel/internal/cohort"
	"SalesSentinel/internal/collector"
	"SalesSentinel/internal/commission"
	"SalesSentinel/internal/forecast"
	"SalesSentinel/internal/metrics"
	"SalesSentinel/internal/model"
	"SalesSentinel/internal/pipeline"

	"github.com/shopspring/decimal"
)

// DataSource names a dashboard widget's data feed.
type DataSource int

const (
	SourceSalesSummary DataSource = iota + 1
	SourceAnomalies
	SourceForecast
	SourceCohorts
	SourcePipeline
	SourceCommissions
)

var sourceNames = map[DataSource]string{
	SourceSalesSummary: "sales_summary",
	SourceAnomalies:    "anomalies",
	SourceForecast:     "forecast",
	SourceCohorts:      "cohorts",
	SourcePipeline:     "pipeline",
	SourceCommissions:  "commissions",
}

func (d DataSource) String() string {
	if n, ok := sourceNames[d]; ok {
		return n
	}
	return fmt.Sprintf("DataSource(%d)", int(d))
}

// ParseDataSource resolves a widget feed by name.
func ParseDataSource(name string) (DataSource, error) {
	for d, n := range sourceNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("data source %q: %w", name, model.ErrInvalidRecord)
}

// Request selects the period a widget covers.
type Request struct {
	Source DataSource
	From   time.Time
	To     time.Time
}

func (r Request) key() string {
	return fmt.Sprintf("%s:%s:%s", r.Source, r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
}

// SalesSummary aggregates daily metrics over a period.
type SalesSummary struct {
	Days              int             `json:"days"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// Options configures the computations behind widgets.
type Options struct {
	Anomaly         anomaly.Options
	ForecastType    model.ForecastType
	ForecastHorizon int
	PipelineMonths  int
}

type handler func(ctx context.Context, req Request) (any, error)

// Service computes dashboard widget data, caching results per request.
type Service struct {
	collector *collector.Collector
	cache     Cache
	opts      Options
	handlers  map[DataSource]handler
}

// NewService creates a Service. A nil cache disables caching.
func NewService(col *collector.Collector, cache Cache, opts Options) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	s := &Service{collector: col, cache: cache, opts: opts}
	s.handlers = map[DataSource]handler{
		SourceSalesSummary: s.salesSummary,
		SourceAnomalies:    s.anomalies,
		SourceForecast:     s.forecast,
		SourceCohorts:      s.cohorts,
		SourcePipeline:     s.pipeline,
		SourceCommissions:  s.commissions,
	}
	return s
}

// Widget returns the data for a widget request.
func (s *Service) Widget(ctx context.Context, req Request) (any, error) {
	h, ok := s.handlers[req.Source]
	if !ok {
		return nil, fmt.Errorf("data source %s: %w", req.Source, model.ErrInvalidRecord)
	}
	key := req.key()
	if v, ok := s.cache.Get(key); ok {
		metrics.WidgetCacheTotal.WithLabelValues("hit").Inc()
		return v, nil
	}
	metrics.WidgetCacheTotal.WithLabelValues("miss").Inc()

	v, err := h(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s widget: %w", req.Source, err)
	}
	s.cache.Add(key, v)
	return v, nil
}

func (s *Service) days(req Request) int {
	d := int(req.To.Sub(req.From).Hours()/24) + 1
	if d < 1 {
		d = 1
	}
	return d
}

func (s *Service) salesSummary(ctx context.Context, req Request) (any, error) {
	ms, err := s.collector.Metrics(ctx, req.To, s.days(req))
	if err != nil {
		return nil, err
	}
	sum := SalesSummary{Days: len(ms), TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	for _, m := range ms {
		sum.TotalRevenue = sum.TotalRevenue.Add(m.Revenue)
		sum.TotalOrders += m.Orders
	}
	if sum.TotalOrders > 0 {
		sum.AverageOrderValue = sum.TotalRevenue.Div(decimal.NewFromInt(int64(sum.TotalOrders))).Round(2)
	}
	return sum, nil
}

// anomalies fetches at least two trend windows so the trend detector has a
// previous period to compare against.
func (s *Service) anomalies(ctx context.Context, req Request) (any, error) {
	days := s.days(req)
	if trend := 2 * s.opts.Anomaly.TrendWindowDays; trend > days {
		days = trend
	}
	ms, err := s.collector.Metrics(ctx, req.To, days)
	if err != nil {
		return nil, err
	}
	return anomaly.NewDetector(s.opts.Anomaly).DetectAll(ms), nil
}

func (s *Service) forecast(ctx context.Context, req Request) (any, error) {
	history, err := s.collector.History(ctx, req.To, s.days(req))
	if err != nil {
		return nil, err
	}
	return forecast.Generate(history, s.opts.ForecastType, s.opts.ForecastHorizon, req.To), nil
}

func (s *Service) cohorts(ctx context.Context, req Request) (any, error) {
	cs, err := s.collector.Cohorts(ctx, req.From, req.To, req.To)
	if err != nil {
		return nil, err
	}
	return cohort.Analyze(cs), nil
}

func (s *Service) pipeline(ctx context.Context, req Request) (any, error) {
	open, closed, err := s.collector.Pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Forecast(open, closed, req.To, s.opts.PipelineMonths), nil
}

func (s *Service) commissions(ctx context.Context, req Request) (any, error) {
	sales, goals, err := s.collector.Commissions(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return commission.CalculateAll(sales, req.From, req.To, goals), nil
}
