// Package stooq implements the ports.MarketDataProvider interface against the
// Stooq CSV download endpoint.
package stooq

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/httputil"
	"quantlab/internal/ports"
)

const defaultBaseURL = "https://stooq.com"

// Client implements ports.MarketDataProvider using the Stooq daily data CSV API.
// Stooq prices come back already adjusted for splits and dividends.
type Client struct {
	httpClient *http.Client
	logger     ports.Logger
	baseURL    string
	retry      httputil.RetryConfig
}

// Config holds configuration specific to the Stooq adapter.
type Config struct {
	Logger  ports.Logger
	BaseURL string
	Timeout time.Duration
	Retry   httputil.RetryConfig
}

// New creates a new Stooq data provider.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Stooq client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = httputil.DefaultRetry
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
		baseURL:    baseURL,
		retry:      retry,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "stooq" }

func stooqInterval(interval domain.Interval) string {
	switch interval {
	case domain.IntervalWeekly:
		return "w"
	case domain.IntervalMonthly:
		return "m"
	default:
		return "d"
	}
}

// FetchBars retrieves bars for [from, to] as CSV and parses them into the
// domain representation.
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

	endpoint := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=%s",
		c.baseURL,
		url.QueryEscape(strings.ToLower(symbol)),
		from.Format("20060102"),
		to.Format("20060102"),
		stooqInterval(interval))

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, c.logger, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, c.handleError(ctx, err, op, symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, c.handleError(ctx, fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), op, symbol)
	}

	bars, err := c.parseCSV(resp.Body, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no data for %s: %w", op, symbol, ports.ErrNotFound)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"symbol":   symbol,
		"interval": string(interval),
		"bars":     len(bars),
	})
	return bars, nil
}

// parseCSV reads the Date,Open,High,Low,Close,Volume layout Stooq serves.
// Unknown symbols come back as a "No data" body rather than an HTTP error.
func (c *Client) parseCSV(r io.Reader, symbol string, interval domain.Interval) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w: %w", ports.ErrMalformedResponse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty response: %w", ports.ErrNotFound)
	}
	if strings.Contains(strings.ToLower(records[0][0]), "no data") {
		return nil, fmt.Errorf("symbol %q: %w", symbol, ports.ErrSymbolNotFound)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no rows: %w", ports.ErrNotFound)
	}

	bars := make([]domain.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 5 {
			return nil, fmt.Errorf("row %d: expected at least 5 fields, got %d: %w", i+1, len(rec), ports.ErrMalformedResponse)
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w: %w", i+1, rec[0], ports.ErrMalformedResponse, err)
		}
		open, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing open %q: %w: %w", i+1, rec[1], ports.ErrMalformedResponse, err)
		}
		high, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing high %q: %w: %w", i+1, rec[2], ports.ErrMalformedResponse, err)
		}
		low, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing low %q: %w: %w", i+1, rec[3], ports.ErrMalformedResponse, err)
		}
		cls, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing close %q: %w: %w", i+1, rec[4], ports.ErrMalformedResponse, err)
		}
		var vol float64
		if len(rec) > 5 && rec[5] != "" {
			vol, err = strconv.ParseFloat(rec[5], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing volume %q: %w: %w", i+1, rec[5], ports.ErrMalformedResponse, err)
			}
		}
		bars = append(bars, domain.Bar{
			Time:     ts.UTC(),
			Symbol:   symbol,
			Interval: interval,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			AdjClose: cls,
			Volume:   vol,
		})
	}
	domain.Series(bars).Sort()
	return bars, nil
}

// FetchLatest retrieves the most recent bar for the symbol.
func (c *Client) FetchLatest(ctx context.Context, symbol string, interval domain.Interval) (domain.Bar, error) {
	op := "FetchLatest"
	to := time.Now()
	from := to.AddDate(0, -1, -14)
	bars, err := c.FetchBars(ctx, symbol, interval, from, to)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("%s: %w", op, err)
	}
	return bars[len(bars)-1], nil
}

// handleError translates transport failures into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation, symbol string) error {
	if err == nil {
		return nil
	}
	fields := map[string]interface{}{"operation": operation, "symbol": symbol, "originalError": err.Error()}

	var finalErr error
	switch {
	case errors.Is(err, ports.ErrRateLimited):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrProviderUnavailable, err)
	}
	c.logger.Error(ctx, err, operation+" failed", fields)
	return finalErr
}

var _ ports.MarketDataProvider = (*Client)(nil)
