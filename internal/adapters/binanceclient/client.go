// Package binanceclient implements the ports.MarketDataProvider interface for
// crypto symbols using the go-binance library. Only public market data
// endpoints are used, so API credentials are optional.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const (
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	// Binance caps klines responses at 1000 rows per request.
	maxKlinesPerRequest = 1000
)

// Client implements the ports.MarketDataProvider interface using the go-binance library.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
// API credentials are optional; kline endpoints are public, but authenticated
// requests get a higher rate limit allowance.
type Config struct {
	APIKey     string
	APISecret  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance data provider adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
	}

	return &Client{
		spotClient: client,
		logger:     cfg.Logger,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "binance" }

// binanceInterval maps domain intervals onto Binance kline interval names.
func binanceInterval(interval domain.Interval) string {
	switch interval {
	case domain.IntervalWeekly:
		return "1w"
	case domain.IntervalMonthly:
		return "1M"
	default:
		return "1d"
	}
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1121: // Invalid symbol
			mappedErr = ports.ErrSymbolNotFound
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1120, -1130: // Parameter/request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrProviderUnavailable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, operation+" failed with API error", fields)
		return finalErr
	}

	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrProviderUnavailable, err)
	}

	c.logger.Error(ctx, err, operation+" failed", fields)
	return finalErr
}

// FetchBars retrieves all bars for [from, to], paginating past the per-request
// row cap until the range is covered.
func (c *Client) FetchBars(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Bar, error) {
	op := "FetchBars"
	if symbol == "" {
		return nil, fmt.Errorf("%s: empty symbol: %w", op, ports.ErrInvalidRequest)
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("%s: interval %q: %w", op, interval, ports.ErrInvalidRequest)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%s: range end not after start: %w", op, ports.ErrInvalidRequest)
	}

	var allBars []domain.Bar
	start := from

	for {
		klines, err := c.spotClient.NewKlinesService().
			Symbol(symbol).
			Interval(binanceInterval(interval)).
			StartTime(start.UnixMilli()).
			EndTime(to.UnixMilli()).
			Limit(maxKlinesPerRequest).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			bar, err := translateKline(bk, symbol, interval)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("translate kline: %w", err), op)
			}
			allBars = append(allBars, bar)
		}
		last := klines[len(klines)-1]
		start = time.UnixMilli(last.CloseTime)
		if start.After(to) || len(klines) < maxKlinesPerRequest {
			break
		}
	}

	if len(allBars) == 0 {
		return nil, fmt.Errorf("%s: no data for %s: %w", op, symbol, ports.ErrNotFound)
	}
	sort.Slice(allBars, func(i, j int) bool { return allBars[i].Time.Before(allBars[j].Time) })

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"symbol":   symbol,
		"interval": string(interval),
		"bars":     len(allBars),
	})
	return allBars, nil
}

// FetchLatest retrieves the most recent closed bar for the symbol.
func (c *Client) FetchLatest(ctx context.Context, symbol string, interval domain.Interval) (domain.Bar, error) {
	op := "FetchLatest"
	klines, err := c.spotClient.NewKlinesService().
		Symbol(symbol).
		Interval(binanceInterval(interval)).
		Limit(2).
		Do(ctx)
	if err != nil {
		return domain.Bar{}, c.handleError(ctx, err, op)
	}
	if len(klines) == 0 {
		return domain.Bar{}, fmt.Errorf("%s: no data for %s: %w", op, symbol, ports.ErrNotFound)
	}

	// The final row is the still-forming bar; prefer the last closed one.
	idx := len(klines) - 1
	if idx > 0 && time.UnixMilli(klines[idx].CloseTime).After(time.Now()) {
		idx--
	}
	return translateKline(klines[idx], symbol, interval)
}

// translateKline converts a go-binance kline into a domain bar.
func translateKline(bk *binance.Kline, symbol string, interval domain.Interval) (domain.Bar, error) {
	if bk == nil {
		return domain.Bar{}, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return domain.Bar{
		Time:     time.UnixMilli(bk.OpenTime).UTC(),
		Symbol:   symbol,
		Interval: interval,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    cls,
		AdjClose: cls, // no corporate actions on crypto pairs
		Volume:   vol,
	}, nil
}

var _ ports.MarketDataProvider = (*Client)(nil)
