// Package config loads application configuration from environment variables,
// an optional .env file, and built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"quantlab/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Binance  BinanceConfig  `mapstructure:"binance"`
	Research ResearchConfig `mapstructure:"research"`
}

// ProviderConfig selects and parameterizes the market data source.
type ProviderConfig struct {
	Name         string `mapstructure:"name"`          // "yahoo", "stooq" or "binance"
	Interval     string `mapstructure:"interval"`      // bar interval, e.g. "1d", "1wk", "1mo"
	BackfillDays int    `mapstructure:"backfill_days"` // history window fetched for an empty cache
}

// WatchConfig drives the scheduled scan service.
type WatchConfig struct {
	Symbols    []string `mapstructure:"symbols"`
	CronSpec   string   `mapstructure:"cron"`         // standard 5-field cron expression
	RunOnStart bool     `mapstructure:"run_on_start"` // run one scan immediately on startup
}

// DatabaseConfig locates the SQLite bar and signal cache.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// HTTPConfig tunes the outbound HTTP client used by data providers.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
}

// BinanceConfig holds optional Binance credentials. Market data endpoints are
// public, so keys are only needed if an account-scoped feature is added.
type BinanceConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Testnet   bool   `mapstructure:"testnet"`
}

// ResearchConfig carries analysis parameters shared across reports.
type ResearchConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate"` // annualized, e.g. 0.02
}

// Interval returns the configured bar interval as a domain type.
func (c *Config) Interval() domain.Interval {
	return domain.Interval(c.Provider.Interval)
}

// HTTPTimeout returns the provider request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// LoadConfig reads configuration from a .env file (if present), environment
// variables prefixed with QUANTLAB_, and defaults, with the environment
// taking precedence over defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the process environment first so viper sees those values
	// like any other env var. A missing file is fine.
	_ = godotenv.Load()

	v.SetDefault("provider.name", "yahoo")
	v.SetDefault("provider.interval", string(domain.IntervalDaily))
	v.SetDefault("provider.backfill_days", 365)

	v.SetDefault("watch.symbols", []string{"AAPL", "MSFT", "^GSPC"})
	v.SetDefault("watch.cron", "30 17 * * 1-5")
	v.SetDefault("watch.run_on_start", true)

	v.SetDefault("database.path", "./data/quantlab.db")

	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.development", false)

	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)

	v.SetDefault("binance.api_key", "")
	v.SetDefault("binance.api_secret", "")
	v.SetDefault("binance.testnet", false)

	v.SetDefault("research.risk_free_rate", 0.0)

	// Map dotted keys onto QUANTLAB_* env vars, e.g. "provider.name" becomes
	// QUANTLAB_PROVIDER_NAME.
	v.SetEnvPrefix("QUANTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys to Unmarshal, so bind
	// each key explicitly.
	bindEnv(v,
		"provider.name", "provider.interval", "provider.backfill_days",
		"watch.symbols", "watch.cron", "watch.run_on_start",
		"database.path",
		"log.level", "log.development",
		"http.timeout_seconds", "http.max_retries",
		"binance.api_key", "binance.api_secret", "binance.testnet",
		"research.risk_free_rate",
	)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Env vars carry the symbol list as a comma-separated string; viper splits
	// on commas but leaves any surrounding whitespace in place.
	symbols := cfg.Watch.Symbols[:0]
	for _, s := range cfg.Watch.Symbols {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	cfg.Watch.Symbols = symbols

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate collects all configuration problems into one error so a bad
// deployment reports everything at once.
func (c *Config) validate() error {
	var errs []string

	switch c.Provider.Name {
	case "yahoo", "stooq", "binance":
	default:
		errs = append(errs, fmt.Sprintf("QUANTLAB_PROVIDER_NAME must be yahoo, stooq or binance, got %q", c.Provider.Name))
	}
	if !domain.Interval(c.Provider.Interval).Valid() {
		errs = append(errs, "QUANTLAB_PROVIDER_INTERVAL must be set")
	}
	if c.Provider.BackfillDays <= 0 {
		errs = append(errs, "QUANTLAB_PROVIDER_BACKFILL_DAYS must be positive")
	}

	if len(c.Watch.Symbols) == 0 {
		errs = append(errs, "QUANTLAB_WATCH_SYMBOLS must list at least one symbol")
	}
	if strings.TrimSpace(c.Watch.CronSpec) == "" {
		errs = append(errs, "QUANTLAB_WATCH_CRON must be set")
	}

	if c.Database.Path == "" {
		errs = append(errs, "QUANTLAB_DATABASE_PATH must be set")
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, "QUANTLAB_HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, "QUANTLAB_HTTP_MAX_RETRIES cannot be negative")
	}

	if c.Research.RiskFreeRate < 0 || c.Research.RiskFreeRate >= 1 {
		errs = append(errs, "QUANTLAB_RESEARCH_RISK_FREE_RATE must be in [0, 1)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// bindEnv binds multiple keys at once. BindEnv only errors on an empty key,
// which the fixed call sites above never pass.
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
