// Package yahoo implements the ports.MarketDataProvider interface against the
// Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/httputil"
	"quantlab/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements ports.MarketDataProvider using the Yahoo Finance chart API.
type Client struct {
	httpClient *http.Client
	logger     ports.Logger
	baseURL    string
	retry      httputil.RetryConfig
}

// Config holds configuration specific to the Yahoo adapter.
type Config struct {
	Logger  ports.Logger
	BaseURL string        // Override for tests; defaults to the public endpoint
	Timeout time.Duration // HTTP client timeout (default 30s)
	Retry   httputil.RetryConfig
}

// New creates a new Yahoo Finance data provider.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
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
func (c *Client) Name() string { return "yahoo" }

// chartResponse is the response structure from the Yahoo Finance chart API.
// Price arrays are nullable; a null entry marks a holiday or missing print.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// FetchBars retrieves daily, weekly or monthly bars for [from, to].
func (c *Client) FetchBars(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Bar, error) {
	op := "FetchBars"
	if symbol == "" {
		return nil, fmt.Errorf("%s: empty symbol: %w", op, ports.ErrInvalidRequest)
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("%s: interval %q: %w", op, interval, ports.ErrInvalidRequest)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%s: range end %s not after start %s: %w", op, to.Format(time.RFC3339), from.Format(time.RFC3339), ports.ErrInvalidRequest)
	}

	// Yahoo interval names match our domain interval names directly.
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s&includeAdjustedClose=true",
		c.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix(), interval)

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, c.logger, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		return req, nil
	})
	if err != nil {
		return nil, c.handleError(ctx, err, op, symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("read body: %w", err), op, symbol)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: symbol %q: %w", op, symbol, ports.ErrSymbolNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(ctx, fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), op, symbol)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%s: decode: %w: %w", op, ports.ErrMalformedResponse, err)
	}
	if chart.Chart.Error != nil {
		apiErr := fmt.Errorf("%s: api error %s: %s", op, chart.Chart.Error.Code, chart.Chart.Error.Description)
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %w", ports.ErrSymbolNotFound, apiErr)
		}
		return nil, fmt.Errorf("%w: %w", ports.ErrProviderUnavailable, apiErr)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%s: no data for %s: %w", op, symbol, ports.ErrNotFound)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: missing quote block for %s: %w", op, symbol, ports.ErrMalformedResponse)
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n {
		return nil, fmt.Errorf("%s: ragged quote arrays for %s: %w", op, symbol, ports.ErrMalformedResponse)
	}
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == n {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.Bar, 0, n)
	for i, ts := range result.Timestamp {
		o := deref(quote.Open[i])
		h := deref(quote.High[i])
		l := deref(quote.Low[i])
		cl := deref(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bar (holiday etc.)
		}
		bar := domain.Bar{
			Time:     time.Unix(ts, 0).UTC(),
			Symbol:   symbol,
			Interval: interval,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    cl,
			Volume:   0,
		}
		if len(quote.Volume) == n {
			bar.Volume = deref(quote.Volume[i])
		}
		if adj != nil {
			bar.AdjClose = deref(adj[i])
		}
		if bar.Time.Before(from) || bar.Time.After(to) {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"symbol":   symbol,
		"interval": string(interval),
		"bars":     len(bars),
	})
	return bars, nil
}

// FetchLatest retrieves the most recent bar for the symbol.
func (c *Client) FetchLatest(ctx context.Context, symbol string, interval domain.Interval) (domain.Bar, error) {
	op := "FetchLatest"
	// A 14-day lookback covers market holidays for all supported intervals.
	to := time.Now()
	from := to.AddDate(0, -1, -14)
	bars, err := c.FetchBars(ctx, symbol, interval, from, to)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(bars) == 0 {
		return domain.Bar{}, fmt.Errorf("%s: no recent bars for %s: %w", op, symbol, ports.ErrNotFound)
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
