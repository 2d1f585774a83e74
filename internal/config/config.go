package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"SalesSentinel/internal/model"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database struct {
		DSN        string `yaml:"dsn"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron   string `yaml:"daily_cron"`
		WeeklyCron  string `yaml:"weekly_cron"`
		MonthlyCron string `yaml:"monthly_cron"`
	} `yaml:"schedule"`
	Analytics struct {
		LookbackDays       int     `yaml:"lookback_days"`
		HistoryDays        int     `yaml:"history_days"`
		StdThreshold       float64 `yaml:"std_threshold"`
		HighStdThreshold   float64 `yaml:"high_std_threshold"`
		TrendThreshold     float64 `yaml:"trend_threshold"`
		HighTrendThreshold float64 `yaml:"high_trend_threshold"`
		ForecastType       string  `yaml:"forecast_type"`
		ForecastHorizon    int     `yaml:"forecast_horizon"`
		CohortMonths       int     `yaml:"cohort_months"`
		PipelineMonths     int     `yaml:"pipeline_months"`
	} `yaml:"analytics"`
	Cache struct {
		Size int           `yaml:"size"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SALES_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("CRON_MONTHLY"); v != "" {
		cfg.Schedule.MonthlyCron = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("FORECAST_TYPE"); v != "" {
		cfg.Analytics.ForecastType = v
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analytics.LookbackDays = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}

	// Defaults
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 6 * * *"
	}
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 0 7 * * 1"
	}
	if cfg.Schedule.MonthlyCron == "" {
		cfg.Schedule.MonthlyCron = "0 0 8 1 * *"
	}
	if cfg.Analytics.LookbackDays == 0 {
		cfg.Analytics.LookbackDays = 30
	}
	if cfg.Analytics.HistoryDays == 0 {
		cfg.Analytics.HistoryDays = 90
	}
	if cfg.Analytics.StdThreshold == 0 {
		cfg.Analytics.StdThreshold = 2
	}
	if cfg.Analytics.HighStdThreshold == 0 {
		cfg.Analytics.HighStdThreshold = 3
	}
	if cfg.Analytics.TrendThreshold == 0 {
		cfg.Analytics.TrendThreshold = 10
	}
	if cfg.Analytics.HighTrendThreshold == 0 {
		cfg.Analytics.HighTrendThreshold = 25
	}
	if cfg.Analytics.ForecastType == "" {
		cfg.Analytics.ForecastType = string(model.ForecastDaily)
	}
	if cfg.Analytics.ForecastHorizon == 0 {
		cfg.Analytics.ForecastHorizon = 30
	}
	if cfg.Analytics.CohortMonths == 0 {
		cfg.Analytics.CohortMonths = 12
	}
	if cfg.Analytics.PipelineMonths == 0 {
		cfg.Analytics.PipelineMonths = 3
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 256
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/sales_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.daily_cron":   c.Schedule.DailyCron,
		"schedule.weekly_cron":  c.Schedule.WeeklyCron,
		"schedule.monthly_cron": c.Schedule.MonthlyCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, ok := model.ParseForecastType(c.Analytics.ForecastType); !ok {
		return fmt.Errorf("analytics.forecast_type %q is not one of daily, weekly, monthly, quarterly", c.Analytics.ForecastType)
	}
	if c.Analytics.LookbackDays < 7 {
		return fmt.Errorf("analytics.lookback_days must be at least 7")
	}
	if c.Analytics.HistoryDays < c.Analytics.LookbackDays {
		return fmt.Errorf("analytics.history_days must not be shorter than lookback_days")
	}
	if c.Analytics.HighStdThreshold < c.Analytics.StdThreshold {
		return fmt.Errorf("analytics.high_std_threshold must not be below std_threshold")
	}
	if c.Analytics.HighTrendThreshold < c.Analytics.TrendThreshold {
		return fmt.Errorf("analytics.high_trend_threshold must not be below trend_threshold")
	}
	if c.Analytics.ForecastHorizon <= 0 || c.Analytics.PipelineMonths <= 0 || c.Analytics.CohortMonths <= 0 {
		return fmt.Errorf("analytics horizons must be positive")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	return nil
}

// ForecastType returns the validated forecast type.
func (c *Config) ForecastType() model.ForecastType {
	ft, _ := model.ParseForecastType(c.Analytics.ForecastType)
	return ft
}
