package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Symbols    []string `yaml:"symbols"`
		Start      string   `yaml:"start"`
		End        string   `yaml:"end"`
		Interval   string   `yaml:"interval"`
		CacheDir   string   `yaml:"cache_dir"`
		ProbeHosts []string `yaml:"probe_hosts"`
	} `yaml:"data"`
	Preprocess struct {
		FillMethod string `yaml:"fill_method"`
		MinPeriods int    `yaml:"min_periods"`
	} `yaml:"preprocess"`
	Strategy struct {
		Lookback       int     `yaml:"lookback"`
		MinCorrelation float64 `yaml:"min_correlation"`
		EntryZScore    float64 `yaml:"entry_z_score"`
	} `yaml:"strategy"`
	Backtest struct {
		InitialCapital  float64 `yaml:"initial_capital"`
		TransactionCost float64 `yaml:"transaction_cost"`
		Slippage        float64 `yaml:"slippage"`
	} `yaml:"backtest"`
	Watch struct {
		Cron         string `yaml:"cron"`
		LookbackDays int    `yaml:"lookback_days"`
	} `yaml:"watch"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
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
	if v := os.Getenv("DISPERSION_SYMBOLS"); v != "" {
		cfg.Data.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("DISPERSION_CACHE_DIR"); v != "" {
		cfg.Data.CacheDir = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Data.Interval == "" {
		cfg.Data.Interval = "1d"
	}
	if cfg.Preprocess.FillMethod == "" {
		cfg.Preprocess.FillMethod = "ffill"
	}
	if cfg.Preprocess.MinPeriods == 0 {
		cfg.Preprocess.MinPeriods = 5
	}
	if cfg.Strategy.Lookback == 0 {
		cfg.Strategy.Lookback = 20
	}
	if cfg.Strategy.MinCorrelation == 0 {
		cfg.Strategy.MinCorrelation = 0.7
	}
	if cfg.Strategy.EntryZScore == 0 {
		cfg.Strategy.EntryZScore = 2.0
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 100000
	}
	if cfg.Backtest.TransactionCost == 0 {
		cfg.Backtest.TransactionCost = 0.001
	}
	if cfg.Backtest.Slippage == 0 {
		cfg.Backtest.Slippage = 0.0005
	}
	if cfg.Watch.Cron == "" {
		cfg.Watch.Cron = "0 30 21 * * 1-5" // after US close, UTC
	}
	if cfg.Watch.LookbackDays == 0 {
		cfg.Watch.LookbackDays = 180
	}

	return cfg, nil
}

// Validate checks that all required fields are set and parseable.
func (c *Config) Validate() error {
	if len(c.Data.Symbols) < 2 {
		return fmt.Errorf("data.symbols requires at least two symbols")
	}
	if c.Data.Start != "" {
		if _, err := ParseDate(c.Data.Start); err != nil {
			return fmt.Errorf("data.start: %w", err)
		}
	}
	if c.Data.End != "" {
		if _, err := ParseDate(c.Data.End); err != nil {
			return fmt.Errorf("data.end: %w", err)
		}
	}
	if c.Preprocess.MinPeriods < 0 {
		return fmt.Errorf("preprocess.min_periods must be non-negative")
	}
	switch c.Preprocess.FillMethod {
	case "ffill", "bfill", "interpolate":
	default:
		return fmt.Errorf("preprocess.fill_method must be ffill, bfill, or interpolate")
	}
	return nil
}

// DateRange resolves the configured start/end into timestamps. An empty end
// means "now"; an empty start means one year before end.
func (c *Config) DateRange() (start, end time.Time, err error) {
	end = time.Now().UTC()
	if c.Data.End != "" {
		if end, err = ParseDate(c.Data.End); err != nil {
			return
		}
	}
	start = end.AddDate(-1, 0, 0)
	if c.Data.Start != "" {
		if start, err = ParseDate(c.Data.Start); err != nil {
			return
		}
	}
	if !start.Before(end) {
		err = fmt.Errorf("start %s is not before end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return
}

// ParseDate accepts a plain date or an RFC3339 timestamp and normalizes it
// to UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t.UTC(), nil
}
