package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"SalesSentinel/internal/cohort"
	"SalesSentinel/internal/model"
)

// MockSource returns fixed in-memory data for development and testing.
type MockSource struct {
	Metrics       []model.DailyMetric
	Customers     []model.Customer
	Orders        []model.OrderEvent
	Sales         []model.RepSales
	Goals         []model.Goal
	Opportunities []model.Opportunity
	Err           error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchDailyMetrics(_ context.Context, from, to time.Time) ([]model.DailyMetric, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.DailyMetric
	for _, d := range m.Metrics {
		if within(d.Date, from, to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockSource) FetchCustomers(_ context.Context, from, to time.Time) ([]model.Customer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Customer
	for _, c := range m.Customers {
		if within(c.AcquiredAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockSource) FetchOrders(_ context.Context, from, to time.Time) ([]model.OrderEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.OrderEvent
	for _, o := range m.Orders {
		if within(o.Date, from, to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockSource) FetchRepSales(_ context.Context, _, _ time.Time) ([]model.RepSales, error) {
	return m.Sales, m.Err
}

func (m *MockSource) FetchActiveGoals(_ context.Context, _, _ time.Time) ([]model.Goal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Goal
	for _, g := range m.Goals {
		if g.Active {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *MockSource) FetchOpenOpportunities(_ context.Context) ([]model.Opportunity, error) {
	return m.filterOpportunities(true), m.Err
}

func (m *MockSource) FetchClosedOpportunities(_ context.Context) ([]model.Opportunity, error) {
	return m.filterOpportunities(false), m.Err
}

func (m *MockSource) filterOpportunities(open bool) []model.Opportunity {
	var out []model.Opportunity
	for _, o := range m.Opportunities {
		if o.Stage.Open() == open {
			out = append(out, o)
		}
	}
	return out
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// Collector turns source records into the inputs of the analytics core.
type Collector struct {
	Source Source
}

// NewCollector creates a new Collector.
func NewCollector(source Source) *Collector {
	return &Collector{Source: source}
}

// Metrics fetches the daily metrics of the days days ending at now.
func (c *Collector) Metrics(ctx context.Context, now time.Time, days int) ([]model.DailyMetric, error) {
	from := dayStart(now).AddDate(0, 0, -days+1)
	metrics, err := c.Source.FetchDailyMetrics(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("fetch daily metrics: %w", err)
	}
	sort.SliceStable(metrics, func(i, j int) bool { return metrics[i].Date.Before(metrics[j].Date) })
	return dedupeDays(metrics), nil
}

// History fetches revenue and order history for the forecaster.
func (c *Collector) History(ctx context.Context, now time.Time, days int) ([]model.HistoryPoint, error) {
	metrics, err := c.Metrics(ctx, now, days)
	if err != nil {
		return nil, err
	}
	out := make([]model.HistoryPoint, len(metrics))
	for i, m := range metrics {
		out[i] = model.HistoryPoint{Date: m.Date, Revenue: m.Revenue.InexactFloat64(), Orders: m.Orders}
	}
	return out, nil
}

// Cohorts builds monthly acquisition cohorts for customers acquired in
// [from, to], attaching their orders up to observeUntil.
func (c *Collector) Cohorts(ctx context.Context, from, to, observeUntil time.Time) ([]model.Cohort, error) {
	customers, err := c.Source.FetchCustomers(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch customers: %w", err)
	}
	orders, err := c.Source.FetchOrders(ctx, from, observeUntil)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	return cohort.GroupByAcquisition(customers, orders), nil
}

// Commissions fetches rep sales and active goals for a period.
func (c *Collector) Commissions(ctx context.Context, from, to time.Time) ([]model.RepSales, []model.Goal, error) {
	sales, err := c.Source.FetchRepSales(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch rep sales: %w", err)
	}
	goals, err := c.Source.FetchActiveGoals(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch goals: %w", err)
	}
	return sales, goals, nil
}

// Pipeline fetches open and closed opportunities.
func (c *Collector) Pipeline(ctx context.Context) (open, closed []model.Opportunity, err error) {
	open, err = c.Source.FetchOpenOpportunities(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch open opportunities: %w", err)
	}
	closed, err = c.Source.FetchClosedOpportunities(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch closed opportunities: %w", err)
	}
	return open, closed, nil
}

// dedupeDays keeps the last row per calendar day; series must not repeat dates.
func dedupeDays(metrics []model.DailyMetric) []model.DailyMetric {
	out := make([]model.DailyMetric, 0, len(metrics))
	for _, m := range metrics {
		if n := len(out); n > 0 && sameDay(out[n-1].Date, m.Date) {
			log.Printf("[WARN] duplicate metrics row for %s, keeping the later one", m.Date.Format("2006-01-02"))
			out[n-1] = m
			continue
		}
		out = append(out, m)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
