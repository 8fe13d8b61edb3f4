package ports

import (
	"context"
	"time"

	"quantlab/internal/domain"
)

// MarketDataProvider defines the interface for retrieving historical market data.
// Given a symbol and a date range it returns a chronological OHLCV table.
// This abstraction allows decoupling the analysis logic from specific data vendors.
type MarketDataProvider interface {
	// FetchBars retrieves historical bars for the given symbol and interval,
	// covering [from, to]. Implementations must return bars sorted by time
	// ascending with no duplicates.
	FetchBars(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Bar, error)

	// FetchLatest retrieves the most recent bar available for the symbol.
	FetchLatest(ctx context.Context, symbol string, interval domain.Interval) (domain.Bar, error)

	// Name returns a short identifier for the provider (e.g. "yahoo", "stooq").
	Name() string
}
