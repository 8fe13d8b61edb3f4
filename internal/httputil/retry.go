// Package httputil provides a retrying HTTP helper shared by the market data
// provider adapters.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"quantlab/internal/ports"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Do executes an HTTP request with exponential backoff retry.
// The buildReq function is called on each attempt to produce a fresh request
// (required because request bodies are consumed on each attempt).
// Responses with status 5xx or 429 are retried; everything else is returned
// to the caller as-is.
func Do(ctx context.Context, client *http.Client, cfg RetryConfig, logger ports.Logger, buildReq func() (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("HTTP %d: %s: %w", resp.StatusCode, string(body), ports.ErrRateLimited)
			} else {
				lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
			}
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if logger != nil {
			logger.Warn(ctx, "HTTP request failed, retrying", map[string]interface{}{
				"attempt":     attempt,
				"maxAttempts": cfg.MaxAttempts,
				"delay":       delay.String(),
				"error":       lastErr.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, lastErr)
}
