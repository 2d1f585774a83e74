package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stage is the sales stage of an opportunity.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

// Open reports whether the stage is still in the active pipeline.
func (s Stage) Open() bool {
	switch s {
	case StageLead, StageQualified, StageProposal, StageNegotiation:
		return true
	}
	return false
}

// Opportunity is a deal in the sales pipeline.
type Opportunity struct {
	ID                string
	EstimatedValue    decimal.Decimal
	Probability       int // 0-100
	Stage             Stage
	ExpectedCloseDate time.Time
}

// WeightedValue is the estimated value discounted by close probability.
func (o Opportunity) WeightedValue() decimal.Decimal {
	return o.EstimatedValue.Mul(decimal.NewFromInt(int64(o.Probability))).Div(decimal.NewFromInt(100))
}

// PipelineForecastBucket is the projection for one calendar month.
type PipelineForecastBucket struct {
	Month              time.Time       `json:"month"`
	OpportunitiesCount int             `json:"opportunities_count"`
	TotalValue         decimal.Decimal `json:"total_value"`
	WeightedValue      decimal.Decimal `json:"weighted_value"`
	ForecastedRevenue  decimal.Decimal `json:"forecasted_revenue"`
	ForecastedDeals    int             `json:"forecasted_deals"`
	WinRateApplied     decimal.Decimal `json:"win_rate_applied"`
}
