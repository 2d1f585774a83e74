package collector

import (
	"context"
	"time"

	"SalesSentinel/internal/model"
)

// MetricsSource returns daily metrics ordered by date for [from, to].
type MetricsSource interface {
	FetchDailyMetrics(ctx context.Context, from, to time.Time) ([]model.DailyMetric, error)
}

// OrderSource returns customers acquired and orders placed within [from, to].
type OrderSource interface {
	FetchCustomers(ctx context.Context, from, to time.Time) ([]model.Customer, error)
	FetchOrders(ctx context.Context, from, to time.Time) ([]model.OrderEvent, error)
}

// GoalSource returns rep sales totals and the goals active within [from, to].
type GoalSource interface {
	FetchRepSales(ctx context.Context, from, to time.Time) ([]model.RepSales, error)
	FetchActiveGoals(ctx context.Context, from, to time.Time) ([]model.Goal, error)
}

// OpportunitySource returns open and historically closed pipeline records.
type OpportunitySource interface {
	FetchOpenOpportunities(ctx context.Context) ([]model.Opportunity, error)
	FetchClosedOpportunities(ctx context.Context) ([]model.Opportunity, error)
}

// Source combines every input the analytics core consumes.
type Source interface {
	MetricsSource
	OrderSource
	GoalSource
	OpportunitySource
	Name() string
}
