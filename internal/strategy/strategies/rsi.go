package strategies

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/strategy/indicators"
)

// RSIStrategyConfig holds configuration for the RSI mean reversion strategy
type RSIStrategyConfig struct {
	Period     int     // RSI lookback (e.g., 14)
	Oversold   float64 // entry bound (e.g., 30)
	Overbought float64 // upper bound, kept for scanning context (e.g., 70)
	ExitLevel  float64 // exit once RSI recovers to this level (e.g., 50)
}

// RSIStrategy implements a long-only mean reversion rule: enter when the RSI
// crosses back up through the oversold bound, exit once it recovers to the
// mid level.
type RSIStrategy struct {
	*BaseStrategy
	config RSIStrategyConfig
	rsi    *indicators.RSI
}

// NewRSIStrategy creates a new RSI mean reversion strategy instance
func NewRSIStrategy(config RSIStrategyConfig, logger ports.Logger) (*RSIStrategy, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if config.Period == 0 {
		config.Period = 14
	}
	if config.Period < 0 {
		return nil, fmt.Errorf("RSI period must be positive")
	}
	if config.Oversold == 0 {
		config.Oversold = 30
	}
	if config.Overbought == 0 {
		config.Overbought = 70
	}
	if config.ExitLevel == 0 {
		config.ExitLevel = 50
	}
	if config.Oversold >= config.ExitLevel || config.ExitLevel >= config.Overbought {
		return nil, fmt.Errorf("RSI levels must satisfy oversold < exit < overbought, got %v < %v < %v",
			config.Oversold, config.ExitLevel, config.Overbought)
	}

	rsi := indicators.NewRSI(indicators.RSIConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: config.Period},
		Overbought:      config.Overbought,
		Oversold:        config.Oversold,
	})

	return &RSIStrategy{
		BaseStrategy: NewBaseStrategy(logger),
		config:       config,
		rsi:          rsi,
	}, nil
}

// Name returns the name of the strategy
func (r *RSIStrategy) Name() string {
	return "RSI Mean Reversion"
}

// RequiredDataPoints returns the minimum number of bars needed for the strategy
func (r *RSIStrategy) RequiredDataPoints() int {
	// One extra bar so the previous RSI reading exists for crossing detection.
	return r.config.Period + 2
}

// ShouldEnterTrade enters when the RSI crosses up through the oversold bound
func (r *RSIStrategy) ShouldEnterTrade(ctx context.Context, bars []domain.Bar, currentPrice float64) bool {
	if len(bars) < r.RequiredDataPoints() {
		r.logger.Debug(ctx, "Not enough bar data for strategy evaluation",
			map[string]interface{}{"available": len(bars), "required": r.RequiredDataPoints()})
		return false
	}

	curr, err := r.rsi.Calculate(ctx, bars)
	if err != nil {
		r.logger.Error(ctx, err, "Failed to calculate RSI")
		return false
	}
	prev, err := r.rsi.Calculate(ctx, bars[:len(bars)-1])
	if err != nil {
		r.logger.Error(ctx, err, "Failed to calculate previous RSI")
		return false
	}

	if prev < r.config.Oversold && curr >= r.config.Oversold {
		r.logger.Debug(ctx, "Trade entry conditions met", map[string]interface{}{
			"currentPrice": currentPrice,
			"rsi":          curr,
			"previousRSI":  prev,
			"oversold":     r.config.Oversold,
		})
		return true
	}
	return false
}

// ShouldClosePosition exits once the RSI recovers to the configured exit level
func (r *RSIStrategy) ShouldClosePosition(ctx context.Context, position *domain.Position, bars []domain.Bar, currentPrice float64) (bool, domain.CloseReason) {
	if !position.IsOpen() {
		return false, ""
	}

	if r.checkStopLoss(position, currentPrice) {
		r.logger.Debug(ctx, "Stop loss triggered", map[string]interface{}{
			"currentPrice": currentPrice,
			"stopLoss":     position.StopLoss,
		})
		return true, domain.CloseReasonStopLoss
	}

	curr, err := r.rsi.Calculate(ctx, bars)
	if err != nil {
		r.logger.Error(ctx, err, "Failed to calculate RSI")
		return false, ""
	}

	if curr >= r.config.ExitLevel {
		r.logger.Debug(ctx, "Exit signal: RSI recovered", map[string]interface{}{
			"currentPrice": currentPrice,
			"rsi":          curr,
			"exitLevel":    r.config.ExitLevel,
		})
		return true, domain.CloseReasonSignal
	}
	return false, ""
}
