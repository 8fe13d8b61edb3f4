package ports

import (
	"context"

	"quantlab/internal/domain"
)

// SignalScanner defines the interface for evaluating a bar history and
// producing an actionable signal for the research service.
type SignalScanner interface {
	// RequiredDataPoints returns the minimum number of bars needed for the scanner calculations.
	RequiredDataPoints() int

	// Scan evaluates the bar history and returns a signal, or nil when the
	// scanner has nothing to report for the latest bar.
	Scan(ctx context.Context, bars []domain.Bar) (*domain.Signal, error)
}
