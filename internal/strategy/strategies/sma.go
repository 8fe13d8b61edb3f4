package strategies

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/strategy/indicators"
)

// SMAConfig holds configuration for the SMA trend strategy
type SMAConfig struct {
	Period int // SMA lookback in bars (e.g., 20)
}

// SMAStrategy implements the single moving average trend rule: be long while
// the close is above its SMA, flat while it is below.
type SMAStrategy struct {
	*BaseStrategy
	config SMAConfig
	sma    *indicators.MovingAverage
}

// NewSMA creates a new SMA trend strategy instance
func NewSMA(config SMAConfig, logger ports.Logger) (*SMAStrategy, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if config.Period == 0 {
		config.Period = 20
	}
	if config.Period < 0 {
		return nil, fmt.Errorf("SMA period must be positive")
	}

	sma := indicators.NewMovingAverage(indicators.MovingAverageConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: config.Period},
		Type:            indicators.SimpleMovingAverage,
	})

	return &SMAStrategy{
		BaseStrategy: NewBaseStrategy(logger),
		config:       config,
		sma:          sma,
	}, nil
}

// Name returns the name of the strategy
func (s *SMAStrategy) Name() string {
	return "SMA Trend"
}

// RequiredDataPoints returns the minimum number of bars needed for the strategy
func (s *SMAStrategy) RequiredDataPoints() int {
	return s.config.Period + 1
}

// ShouldEnterTrade enters when the close rises above the moving average
func (s *SMAStrategy) ShouldEnterTrade(ctx context.Context, bars []domain.Bar, currentPrice float64) bool {
	if len(bars) < s.RequiredDataPoints() {
		s.logger.Debug(ctx, "Not enough bar data for strategy evaluation",
			map[string]interface{}{"available": len(bars), "required": s.RequiredDataPoints()})
		return false
	}

	sma, err := s.sma.Calculate(ctx, bars)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to calculate SMA")
		return false
	}

	if currentPrice > sma {
		s.logger.Debug(ctx, "Trade entry conditions met", map[string]interface{}{
			"currentPrice": currentPrice,
			"sma":          sma,
			"period":       s.config.Period,
		})
		return true
	}
	return false
}

// ShouldClosePosition exits when the close falls back below the moving average
func (s *SMAStrategy) ShouldClosePosition(ctx context.Context, position *domain.Position, bars []domain.Bar, currentPrice float64) (bool, domain.CloseReason) {
	if !position.IsOpen() {
		return false, ""
	}

	if s.checkStopLoss(position, currentPrice) {
		s.logger.Debug(ctx, "Stop loss triggered", map[string]interface{}{
			"currentPrice": currentPrice,
			"stopLoss":     position.StopLoss,
		})
		return true, domain.CloseReasonStopLoss
	}

	sma, err := s.sma.Calculate(ctx, bars)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to calculate SMA")
		return false, ""
	}

	if currentPrice < sma {
		s.logger.Debug(ctx, "Exit signal: close below SMA", map[string]interface{}{
			"currentPrice": currentPrice,
			"sma":          sma,
		})
		return true, domain.CloseReasonSignal
	}
	return false, ""
}
