// Package providers builds market data provider adapters by name, so the
// service wiring and the command line tools share one registry instead of
// each repeating the yahoo/stooq/binance switch.
package providers

import (
	"fmt"
	"time"

	"quantlab/config"
	"quantlab/internal/adapters/binanceclient"
	"quantlab/internal/adapters/stooq"
	"quantlab/internal/adapters/yahoo"
	"quantlab/internal/httputil"
	"quantlab/internal/ports"
)

// Names lists the provider identifiers accepted by New.
var Names = []string{"yahoo", "stooq", "binance"}

// Options carries the cross-provider settings shared by every adapter.
// Zero values fall back to the adapter defaults.
type Options struct {
	Logger         ports.Logger
	Timeout        time.Duration
	Retry          httputil.RetryConfig
	BinanceKey     string
	BinanceSecret  string
	BinanceTestnet bool
}

// New builds the provider adapter registered under name.
func New(name string, opts Options) (ports.MarketDataProvider, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for provider %q", name)
	}

	switch name {
	case "yahoo":
		return yahoo.New(yahoo.Config{
			Logger:  opts.Logger,
			Timeout: opts.Timeout,
			Retry:   opts.Retry,
		})
	case "stooq":
		return stooq.New(stooq.Config{
			Logger:  opts.Logger,
			Timeout: opts.Timeout,
			Retry:   opts.Retry,
		})
	case "binance":
		return binanceclient.New(binanceclient.Config{
			APIKey:     opts.BinanceKey,
			APISecret:  opts.BinanceSecret,
			UseTestnet: opts.BinanceTestnet,
			Logger:     opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q (known: %v)", name, Names)
	}
}

// FromConfig builds the provider selected by the application configuration.
func FromConfig(cfg *config.Config, logger ports.Logger) (ports.MarketDataProvider, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for provider construction")
	}

	return New(cfg.Provider.Name, Options{
		Logger:  logger,
		Timeout: cfg.HTTPTimeout(),
		Retry: httputil.RetryConfig{
			MaxAttempts: cfg.HTTP.MaxRetries + 1,
			BaseDelay:   httputil.DefaultRetry.BaseDelay,
			MaxDelay:    httputil.DefaultRetry.MaxDelay,
		},
		BinanceKey:     cfg.Binance.APIKey,
		BinanceSecret:  cfg.Binance.APISecret,
		BinanceTestnet: cfg.Binance.Testnet,
	})
}
