package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus is owned by the payout workflow.
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "pending"
	CommissionApproved CommissionStatus = "approved"
	CommissionPaid     CommissionStatus = "paid"
)

// Goal is a sales target assigned to a representative.
type Goal struct {
	ID           string
	SalesRepID   string
	TargetValue  decimal.Decimal
	CurrentValue decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	Active       bool
}

// Achieved reports whether the goal's current value reached its target.
func (g Goal) Achieved() bool {
	return g.CurrentValue.GreaterThanOrEqual(g.TargetValue)
}

// CommissionRecord is the payout computed for one representative and period.
type CommissionRecord struct {
	ID               int64            `json:"id,omitempty"`
	SalesRepID       string           `json:"sales_rep_id"`
	PeriodStart      time.Time        `json:"period_start"`
	PeriodEnd        time.Time        `json:"period_end"`
	TotalSales       decimal.Decimal  `json:"total_sales"`
	CommissionRate   decimal.Decimal  `json:"commission_rate"`
	CommissionAmount decimal.Decimal  `json:"commission_amount"`
	BonusAmount      decimal.Decimal  `json:"bonus_amount"`
	TotalPayout      decimal.Decimal  `json:"total_payout"`
	Status           CommissionStatus `json:"status"`
}

// RepSales is the sales total of one representative over a period.
type RepSales struct {
	SalesRepID string
	TotalSales decimal.Decimal
}
