package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEvent is one order placed by a customer.
type OrderEvent struct {
	CustomerID string
	Date       time.Time
	Amount     decimal.Decimal
}

// Customer is a customer with the date they were acquired.
type Customer struct {
	ID         string
	AcquiredAt time.Time
}

// Cohort is a group of customers acquired in the same period, with their orders.
type Cohort struct {
	Period    string
	Start     time.Time
	Customers []string
	Orders    []OrderEvent
}

// CohortRecord holds per-offset retention and revenue of one cohort.
type CohortRecord struct {
	CohortPeriod     string                  `json:"cohort_period"`
	CohortStart      time.Time               `json:"cohort_start"`
	CustomersCount   int                     `json:"customers_count"`
	RetentionRates   map[int]float64         `json:"retention_rates"`
	RevenuePerPeriod map[int]decimal.Decimal `json:"revenue_per_period"`
}
