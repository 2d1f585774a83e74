package collector

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"SalesSentinel/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLSource reads the back-office tables through database/sql. It speaks to
// MySQL/MariaDB (mysql:// or mariadb:// DSNs) or to a SQLite file.
type SQLSource struct {
	db     *sql.DB
	driver string
}

// OpenSQLSource opens the data store described by dsn.
func OpenSQLSource(dsn string) (*SQLSource, error) {
	driver, conn, err := driverDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, conn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return &SQLSource{db: db, driver: driver}, nil
}

// NewSQLSource wraps an already opened database.
func NewSQLSource(db *sql.DB, driver string) *SQLSource {
	return &SQLSource{db: db, driver: driver}
}

func (s *SQLSource) Name() string { return "sql/" + s.driver }

// DB exposes the underlying handle.
func (s *SQLSource) DB() *sql.DB { return s.db }

func (s *SQLSource) Close() error { return s.db.Close() }

func driverDSN(dsn string) (driver, conn string, err error) {
	switch {
	case strings.HasPrefix(dsn, "mariadb://"), strings.HasPrefix(dsn, "mysql://"):
		conn, err := toMySQLDSN(dsn)
		return "mysql", conn, err
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), nil
	case dsn == "":
		return "", "", fmt.Errorf("empty dsn")
	case strings.Contains(dsn, "@tcp("):
		return "mysql", dsn, nil
	default:
		return "sqlite", dsn, nil
	}
}

// toMySQLDSN converts mariadb:// and mysql:// URLs to the driver's native format.
func toMySQLDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user, pass := "", ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn (user/host/db required)")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}

// schema is the minimal layout the queries below expect. It is only applied to
// SQLite stores; MySQL schemas are owned by the back office.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS daily_metrics (
		metric_date         TEXT PRIMARY KEY,
		revenue             REAL NOT NULL DEFAULT 0,
		orders              INTEGER NOT NULL DEFAULT 0,
		conversion_rate     REAL NOT NULL DEFAULT 0,
		average_order_value REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id          TEXT PRIMARY KEY,
		acquired_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id  TEXT NOT NULL,
		sales_rep_id TEXT,
		order_date   TEXT NOT NULL,
		amount       REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_date ON orders(order_date)`,
	`CREATE TABLE IF NOT EXISTS goals (
		id            TEXT PRIMARY KEY,
		sales_rep_id  TEXT NOT NULL,
		target_value  REAL NOT NULL,
		current_value REAL NOT NULL,
		start_date    TEXT,
		end_date      TEXT,
		active        INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS opportunities (
		id                  TEXT PRIMARY KEY,
		estimated_value     REAL NOT NULL,
		probability         INTEGER NOT NULL,
		stage               TEXT NOT NULL,
		expected_close_date TEXT
	)`,
}

// EnsureSchema creates the source tables on a SQLite store.
func (s *SQLSource) EnsureSchema(ctx context.Context) error {
	if s.driver != "sqlite" {
		return nil
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLSource) FetchDailyMetrics(ctx context.Context, from, to time.Time) ([]model.DailyMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT metric_date, revenue, orders, conversion_rate, average_order_value
		FROM daily_metrics
		WHERE metric_date >= ? AND metric_date <= ?
		ORDER BY metric_date`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailyMetric
	for rows.Next() {
		var (
			date string
			m    model.DailyMetric
		)
		if err := rows.Scan(&date, &m.Revenue, &m.Orders, &m.ConversionRate, &m.AverageOrderValue); err != nil {
			return nil, err
		}
		if m.Date, err = parseDate(date); err != nil {
			log.Printf("[WARN] skip daily metric with bad date %q: %v", date, err)
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLSource) FetchCustomers(ctx context.Context, from, to time.Time) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, acquired_at FROM customers
		WHERE acquired_at >= ? AND acquired_at < ?
		ORDER BY acquired_at`,
		from.Format(dateLayout), to.AddDate(0, 0, 1).Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		var acquired string
		if err := rows.Scan(&c.ID, &acquired); err != nil {
			return nil, err
		}
		if c.AcquiredAt, err = parseDate(acquired); err != nil {
			log.Printf("[WARN] skip customer %s with bad date %q: %v", c.ID, acquired, err)
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLSource) FetchOrders(ctx context.Context, from, to time.Time) ([]model.OrderEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, order_date, amount FROM orders
		WHERE order_date >= ? AND order_date < ?
		ORDER BY order_date`,
		from.Format(dateLayout), to.AddDate(0, 0, 1).Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrderEvent
	for rows.Next() {
		var o model.OrderEvent
		var date string
		if err := rows.Scan(&o.CustomerID, &date, &o.Amount); err != nil {
			return nil, err
		}
		if o.Date, err = parseDate(date); err != nil {
			log.Printf("[WARN] skip order of %s with bad date %q: %v", o.CustomerID, date, err)
			continue
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLSource) FetchRepSales(ctx context.Context, from, to time.Time) ([]model.RepSales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sales_rep_id, SUM(amount) FROM orders
		WHERE sales_rep_id IS NOT NULL AND sales_rep_id <> ''
		  AND order_date >= ? AND order_date < ?
		GROUP BY sales_rep_id
		ORDER BY sales_rep_id`,
		from.Format(dateLayout), to.AddDate(0, 0, 1).Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RepSales
	for rows.Next() {
		var r model.RepSales
		if err := rows.Scan(&r.SalesRepID, &r.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLSource) FetchActiveGoals(ctx context.Context, from, to time.Time) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sales_rep_id, target_value, current_value,
		       COALESCE(start_date, ''), COALESCE(end_date, '')
		FROM goals
		WHERE active = 1
		  AND (start_date IS NULL OR start_date = '' OR start_date <= ?)
		  AND (end_date IS NULL OR end_date = '' OR end_date >= ?)
		ORDER BY id`,
		to.Format(dateLayout), from.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Goal
	for rows.Next() {
		g := model.Goal{Active: true}
		var start, end string
		if err := rows.Scan(&g.ID, &g.SalesRepID, &g.TargetValue, &g.CurrentValue, &start, &end); err != nil {
			return nil, err
		}
		g.StartDate, _ = parseDate(start)
		g.EndDate, _ = parseDate(end)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLSource) FetchOpenOpportunities(ctx context.Context) ([]model.Opportunity, error) {
	return s.fetchOpportunities(ctx, `stage IN ('lead','qualified','proposal','negotiation')`)
}

func (s *SQLSource) FetchClosedOpportunities(ctx context.Context) ([]model.Opportunity, error) {
	return s.fetchOpportunities(ctx, `stage IN ('closed_won','closed_lost')`)
}

func (s *SQLSource) fetchOpportunities(ctx context.Context, where string) ([]model.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, estimated_value, probability, stage, COALESCE(expected_close_date, '')
		FROM opportunities WHERE `+where+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Opportunity
	for rows.Next() {
		var (
			o     model.Opportunity
			stage     string
			closeDate string
		)
		if err := rows.Scan(&o.ID, &o.EstimatedValue, &o.Probability, &stage, &closeDate); err != nil {
			return nil, err
		}
		o.Stage = model.Stage(stage)
		o.ExpectedCloseDate, _ = parseDate(closeDate)
		out = append(out, o)
	}
	return out, rows.Err()
}

// parseDate accepts plain dates, SQL datetimes and RFC 3339 timestamps, all as UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var _ Source = (*SQLSource)(nil)
