package strategies

import (
	"context"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
)

// Strategy defines the interface for trading strategies
type Strategy interface {
	// ShouldEnterTrade determines if a new trade should be entered
	ShouldEnterTrade(ctx context.Context, bars []domain.Bar, currentPrice float64) bool

	// ShouldClosePosition determines if an open position should be closed
	ShouldClosePosition(ctx context.Context, position *domain.Position, bars []domain.Bar, currentPrice float64) (bool, domain.CloseReason)

	// RequiredDataPoints returns the minimum number of bars needed for the strategy
	RequiredDataPoints() int

	// Name returns the name of the strategy
	Name() string
}

// BaseStrategy provides common functionality for strategies
type BaseStrategy struct {
	logger ports.Logger
}

// NewBaseStrategy creates a new base strategy instance
func NewBaseStrategy(logger ports.Logger) *BaseStrategy {
	return &BaseStrategy{
		logger: logger,
	}
}

// checkStopLoss is shared exit logic: every strategy honours a fixed stop
// set on the position, before consulting its own signal.
func (b *BaseStrategy) checkStopLoss(position *domain.Position, currentPrice float64) bool {
	return position.StopLoss > 0 && currentPrice <= position.StopLoss
}
