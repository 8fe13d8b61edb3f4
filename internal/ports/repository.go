package ports

import (
	"context"
	"time"

	"quantlab/internal/domain"
)

// BarRepository defines the interface for storing and retrieving historical bars.
type BarRepository interface {
	// SaveBars upserts a batch of bars. Re-saving an existing (symbol, interval, time)
	// row overwrites it, so refreshing a range is idempotent.
	SaveBars(ctx context.Context, bars []domain.Bar) error
	// FindBars retrieves bars for a symbol and interval within [from, to],
	// ordered by time ascending.
	FindBars(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Bar, error)
	// LatestBarTime returns the timestamp of the most recent stored bar for the
	// symbol and interval. Returns the zero time if none exist.
	LatestBarTime(ctx context.Context, symbol string, interval domain.Interval) (time.Time, error)
	// CountBySymbol returns the number of stored bars for the symbol and interval.
	CountBySymbol(ctx context.Context, symbol string, interval domain.Interval) (int, error)
}

// SignalRepository defines the interface for persisting scanner signals.
type SignalRepository interface {
	// SaveSignal stores a generated signal and returns its assigned ID.
	SaveSignal(ctx context.Context, sig *domain.Signal) (int64, error)
	// FindRecentSignals retrieves the most recent signals for a symbol, newest
	// first, up to a limit. An empty symbol matches all symbols.
	FindRecentSignals(ctx context.Context, symbol string, limit int) ([]*domain.Signal, error)
}
