package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"SalesSentinel/internal/model"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

// SQLiteRecorder persists analytics results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL mode lets dashboards read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS anomalies (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id               TEXT NOT NULL,
			timestamp            INTEGER NOT NULL,
			anomaly_date         TEXT NOT NULL,
			metric_type          TEXT NOT NULL,
			kind                 TEXT NOT NULL,
			actual_value         REAL,
			expected_value       REAL,
			deviation_percentage REAL,
			severity             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anomalies_date ON anomalies(anomaly_date)`,

		`CREATE TABLE IF NOT EXISTS forecasts (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL,
			timestamp        INTEGER NOT NULL,
			forecast_date    TEXT NOT NULL,
			forecast_type    TEXT NOT NULL,
			predicted_value  REAL,
			predicted_orders INTEGER,
			confidence_lower REAL,
			confidence_upper REAL,
			seasonal_factor  REAL,
			trend_factor     REAL,
			model_accuracy   REAL,
			UNIQUE(forecast_date, forecast_type)
		)`,

		`CREATE TABLE IF NOT EXISTS cohorts (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL,
			timestamp          INTEGER NOT NULL,
			cohort_period      TEXT NOT NULL,
			customers_count    INTEGER,
			retention_rates    TEXT,
			revenue_per_period TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cohorts_period ON cohorts(cohort_period)`,

		`CREATE TABLE IF NOT EXISTS commissions (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			timestamp         INTEGER NOT NULL,
			sales_rep_id      TEXT NOT NULL,
			period_start      TEXT NOT NULL,
			period_end        TEXT NOT NULL,
			total_sales       TEXT,
			commission_rate   TEXT,
			commission_amount TEXT,
			bonus_amount      TEXT,
			total_payout      TEXT,
			status            TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commissions_rep ON commissions(sales_rep_id, period_start)`,

		`CREATE TABLE IF NOT EXISTS pipeline_forecasts (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL,
			timestamp           INTEGER NOT NULL,
			month               TEXT NOT NULL,
			opportunities_count INTEGER,
			total_value         TEXT,
			weighted_value      TEXT,
			forecasted_revenue  TEXT,
			forecasted_deals    INTEGER,
			win_rate_applied    TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnomalies(runID string, anomalies []model.Anomaly) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.inTx(func(tx *sql.Tx) error {
		for _, a := range anomalies {
			if _, err := tx.Exec(`INSERT INTO anomalies
				(run_id, timestamp, anomaly_date, metric_type, kind, actual_value, expected_value, deviation_percentage, severity)
				VALUES (?,?,?,?,?,?,?,?,?)`,
				runID, now, a.Date.Format(dayLayout), string(a.MetricType), string(a.Kind),
				a.ActualValue, a.ExpectedValue, a.DeviationPercentage, string(a.Severity),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordForecasts upserts by (forecast_date, forecast_type) so reruns replace
// earlier predictions for the same period.
func (r *SQLiteRecorder) RecordForecasts(runID string, forecasts []model.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.inTx(func(tx *sql.Tx) error {
		for _, f := range forecasts {
			if _, err := tx.Exec(`INSERT INTO forecasts
				(run_id, timestamp, forecast_date, forecast_type, predicted_value, predicted_orders,
				 confidence_lower, confidence_upper, seasonal_factor, trend_factor, model_accuracy)
				VALUES (?,?,?,?,?,?,?,?,?,?,?)
				ON CONFLICT(forecast_date, forecast_type) DO UPDATE SET
					run_id = excluded.run_id,
					timestamp = excluded.timestamp,
					predicted_value = excluded.predicted_value,
					predicted_orders = excluded.predicted_orders,
					confidence_lower = excluded.confidence_lower,
					confidence_upper = excluded.confidence_upper,
					seasonal_factor = excluded.seasonal_factor,
					trend_factor = excluded.trend_factor,
					model_accuracy = excluded.model_accuracy`,
				runID, now, f.ForecastDate.Format(dayLayout), string(f.ForecastType),
				f.PredictedValue, f.PredictedOrders, f.ConfidenceLower, f.ConfidenceUpper,
				f.SeasonalFactor, f.TrendFactor, f.ModelAccuracy,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) ListForecasts(from, to time.Time) ([]model.Forecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT forecast_date, forecast_type, predicted_value, predicted_orders,
			confidence_lower, confidence_upper, seasonal_factor, trend_factor, model_accuracy
		FROM forecasts WHERE forecast_date >= ? AND forecast_date <= ?
		ORDER BY forecast_date, forecast_type`,
		from.Format(dayLayout), to.Format(dayLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Forecast
	for rows.Next() {
		var (
			f        model.Forecast
			date, ft string
		)
		if err := rows.Scan(&date, &ft, &f.PredictedValue, &f.PredictedOrders,
			&f.ConfidenceLower, &f.ConfidenceUpper, &f.SeasonalFactor, &f.TrendFactor, &f.ModelAccuracy); err != nil {
			return nil, err
		}
		if f.ForecastDate, err = time.Parse(dayLayout, date); err != nil {
			return nil, fmt.Errorf("forecast date %q: %w", date, err)
		}
		f.ForecastType = model.ForecastType(ft)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) UpdateForecastAccuracy(f model.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`UPDATE forecasts SET model_accuracy = ?
		WHERE forecast_date = ? AND forecast_type = ?`,
		f.ModelAccuracy, f.ForecastDate.Format(dayLayout), string(f.ForecastType))
	if err != nil {
		return err
	}
	return requireRow(res, fmt.Sprintf("forecast %s/%s", f.ForecastDate.Format(dayLayout), f.ForecastType))
}

func (r *SQLiteRecorder) RecordCohorts(runID string, records []model.CohortRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.inTx(func(tx *sql.Tx) error {
		for _, c := range records {
			rates, err := json.Marshal(c.RetentionRates)
			if err != nil {
				return fmt.Errorf("marshal retention: %w", err)
			}
			revenue, err := json.Marshal(c.RevenuePerPeriod)
			if err != nil {
				return fmt.Errorf("marshal revenue: %w", err)
			}
			if _, err := tx.Exec(`INSERT INTO cohorts
				(run_id, timestamp, cohort_period, customers_count, retention_rates, revenue_per_period)
				VALUES (?,?,?,?,?,?)`,
				runID, now, c.CohortPeriod, c.CustomersCount, string(rates), string(revenue),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordCommissions(runID string, records []model.CommissionRecord) ([]model.CommissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	out := make([]model.CommissionRecord, len(records))
	copy(out, records)
	err := r.inTx(func(tx *sql.Tx) error {
		for i := range out {
			c := &out[i]
			res, err := tx.Exec(`INSERT INTO commissions
				(run_id, timestamp, sales_rep_id, period_start, period_end, total_sales,
				 commission_rate, commission_amount, bonus_amount, total_payout, status)
				VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
				runID, now, c.SalesRepID, c.PeriodStart.Format(dayLayout), c.PeriodEnd.Format(dayLayout),
				c.TotalSales.String(), c.CommissionRate.String(), c.CommissionAmount.String(),
				c.BonusAmount.String(), c.TotalPayout.String(), string(c.Status),
			)
			if err != nil {
				return err
			}
			if c.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRecorder) LoadCommissions(ids []int64) ([]*model.CommissionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.Query(`SELECT id, sales_rep_id, period_start, period_end, total_sales,
			commission_rate, commission_amount, bonus_amount, total_payout, status
		FROM commissions WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CommissionRecord
	for rows.Next() {
		var (
			c          model.CommissionRecord
			start, end string
			status     string
		)
		if err := rows.Scan(&c.ID, &c.SalesRepID, &start, &end, &c.TotalSales, &c.CommissionRate,
			&c.CommissionAmount, &c.BonusAmount, &c.TotalPayout, &status); err != nil {
			return nil, err
		}
		if c.PeriodStart, err = time.Parse(dayLayout, start); err != nil {
			return nil, fmt.Errorf("commission %d period start %q: %w", c.ID, start, err)
		}
		if c.PeriodEnd, err = time.Parse(dayLayout, end); err != nil {
			return nil, fmt.Errorf("commission %d period end %q: %w", c.ID, end, err)
		}
		c.Status = model.CommissionStatus(status)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpdateCommissionStatus only writes when the stored status still equals
// from, so two payouts racing on one record cannot both succeed.
func (r *SQLiteRecorder) UpdateCommissionStatus(id int64, from, to model.CommissionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`UPDATE commissions SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRow(`SELECT status FROM commissions WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("commission %d: %w", id, model.ErrInvalidRecord)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("commission %d is %s, not %s: %w", id, current, from, ErrStatusChanged)
}

func (r *SQLiteRecorder) RecordPipeline(runID string, buckets []model.PipelineForecastBucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.inTx(func(tx *sql.Tx) error {
		for _, b := range buckets {
			if _, err := tx.Exec(`INSERT INTO pipeline_forecasts
				(run_id, timestamp, month, opportunities_count, total_value, weighted_value,
				 forecasted_revenue, forecasted_deals, win_rate_applied)
				VALUES (?,?,?,?,?,?,?,?,?)`,
				runID, now, b.Month.Format("2006-01"), b.OpportunitiesCount,
				b.TotalValue.String(), b.WeightedValue.String(), b.ForecastedRevenue.String(),
				b.ForecastedDeals, b.WinRateApplied.String(),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func (r *SQLiteRecorder) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, model.ErrInvalidRecord)
	}
	return nil
}

var _ Recorder = (*SQLiteRecorder)(nil)
