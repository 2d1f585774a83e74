package forecast

import "time"

// seasonalIndex approximates demand seasonality per calendar month.
var seasonalIndex = map[time.Month]float64{
	time.January:   0.85,
	time.February:  0.90,
	time.March:     0.95,
	time.April:     1.00,
	time.May:       1.05,
	time.June:      1.10,
	time.July:      1.15,
	time.August:    1.10,
	time.September: 1.05,
	time.October:   1.10,
	time.November:  1.25,
	time.December:  1.30,
}

// SeasonalIndex returns the fixed multiplier for a calendar month.
func SeasonalIndex(m time.Month) float64 {
	if f, ok := seasonalIndex[m]; ok {
		return f
	}
	return 1.0
}
