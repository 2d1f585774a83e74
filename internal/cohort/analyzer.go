package cohort

import (
	"sort"
	"time"

	"SalesSentinel/internal/calculator"
	"SalesSentinel/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// TrackedPeriods is the number of offsets tracked per cohort.
	TrackedPeriods = 12
	// PeriodDays is the fixed bucket length. Buckets drift from calendar months.
	PeriodDays = 30
)

// Analyze computes retention and revenue per offset for every cohort.
func Analyze(cohorts []model.Cohort) []model.CohortRecord {
	out := make([]model.CohortRecord, 0, len(cohorts))
	for _, c := range cohorts {
		out = append(out, AnalyzeCohort(c))
	}
	return out
}

// AnalyzeCohort computes one cohort's record. Orders placed by customers outside
// the cohort are ignored.
func AnalyzeCohort(c model.Cohort) model.CohortRecord {
	members := make(map[string]struct{}, len(c.Customers))
	for _, id := range c.Customers {
		members[id] = struct{}{}
	}

	active := make([]map[string]struct{}, TrackedPeriods)
	revenue := make([]decimal.Decimal, TrackedPeriods)
	for k := range active {
		active[k] = map[string]struct{}{}
	}

	for _, o := range c.Orders {
		if _, ok := members[o.CustomerID]; !ok {
			continue
		}
		k, ok := Offset(c.Start, o.Date)
		if !ok {
			continue
		}
		active[k][o.CustomerID] = struct{}{}
		revenue[k] = revenue[k].Add(o.Amount)
	}

	rec := model.CohortRecord{
		CohortPeriod:     c.Period,
		CohortStart:      c.Start,
		CustomersCount:   len(members),
		RetentionRates:   make(map[int]float64, TrackedPeriods),
		RevenuePerPeriod: make(map[int]decimal.Decimal, TrackedPeriods),
	}
	for k := 0; k < TrackedPeriods; k++ {
		rate := 0.0
		if rec.CustomersCount > 0 {
			rate = float64(len(active[k])) / float64(rec.CustomersCount) * 100
		}
		rec.RetentionRates[k] = calculator.Round2(rate)
		rec.RevenuePerPeriod[k] = revenue[k]
	}
	return rec
}

// Offset returns the 30-day bucket an order date falls into relative to the
// cohort start, or false when it is before the start or past the last tracked bucket.
func Offset(start, date time.Time) (int, bool) {
	if date.Before(start) {
		return 0, false
	}
	bucket := PeriodDays * 24 * time.Hour
	k := int(date.Sub(start) / bucket)
	if k >= TrackedPeriods {
		return 0, false
	}
	return k, true
}

// GroupByAcquisition groups customers into monthly cohorts keyed "YYYY-MM" by
// acquisition date and attaches each cohort's orders. Cohorts are returned in
// chronological order.
func GroupByAcquisition(customers []model.Customer, orders []model.OrderEvent) []model.Cohort {
	byKey := map[string]*model.Cohort{}
	owner := map[string]string{}
	for _, cu := range customers {
		start := MonthStart(cu.AcquiredAt)
		key := start.Format("2006-01")
		c, ok := byKey[key]
		if !ok {
			c = &model.Cohort{Period: key, Start: start}
			byKey[key] = c
		}
		c.Customers = append(c.Customers, cu.ID)
		owner[cu.ID] = key
	}
	for _, o := range orders {
		if key, ok := owner[o.CustomerID]; ok {
			byKey[key].Orders = append(byKey[key].Orders, o)
		}
	}

	out := make([]model.Cohort, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// MonthStart truncates t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
