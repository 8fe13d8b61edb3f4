package strategies

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/strategy/indicators"
)

// MACrossoverConfig holds configuration for the MA Crossover strategy
type MACrossoverConfig struct {
	FastPeriod int                          // fast MA period (e.g., 10)
	SlowPeriod int                          // slow MA period (e.g., 30)
	MAType     indicators.MovingAverageType // SMA or EMA, defaults to EMA
	ATRPeriod  int                          // optional ATR period for a volatility stop (0 disables)
	ATRStop    float64                      // stop distance in ATR multiples (e.g., 2.5)
}

// MACrossover implements the classic dual moving average rule: enter when the
// fast MA crosses above the slow MA, exit when it crosses back below. An
// optional ATR stop closes the position if price falls a configured number of
// ATRs below the entry.
type MACrossover struct {
	*BaseStrategy
	config MACrossoverConfig
	fastMA *indicators.MovingAverage
	slowMA *indicators.MovingAverage
	atr    *indicators.ATR
}

// NewMACrossover creates a new MA Crossover strategy instance
func NewMACrossover(config MACrossoverConfig, logger ports.Logger) (*MACrossover, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if config.FastPeriod <= 0 || config.SlowPeriod <= 0 {
		return nil, fmt.Errorf("strategy periods must be positive")
	}
	if config.FastPeriod >= config.SlowPeriod {
		return nil, fmt.Errorf("fast MA period must be less than slow MA period")
	}
	if config.MAType == "" {
		config.MAType = indicators.ExponentialMovingAverage
	}
	if config.ATRPeriod > 0 && config.ATRStop <= 0 {
		config.ATRStop = 2.5
	}

	fastMA := indicators.NewMovingAverage(indicators.MovingAverageConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: config.FastPeriod},
		Type:            config.MAType,
	})
	slowMA := indicators.NewMovingAverage(indicators.MovingAverageConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: config.SlowPeriod},
		Type:            config.MAType,
	})

	var atr *indicators.ATR
	if config.ATRPeriod > 0 {
		atr = indicators.NewATR(indicators.ATRConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: config.ATRPeriod},
		})
	}

	return &MACrossover{
		BaseStrategy: NewBaseStrategy(logger),
		config:       config,
		fastMA:       fastMA,
		slowMA:       slowMA,
		atr:          atr,
	}, nil
}

// Name returns the name of the strategy
func (m *MACrossover) Name() string {
	return "Moving Average Crossover"
}

// RequiredDataPoints returns the minimum number of bars needed for the strategy
func (m *MACrossover) RequiredDataPoints() int {
	maxPeriod := m.config.SlowPeriod
	if m.config.ATRPeriod > maxPeriod {
		maxPeriod = m.config.ATRPeriod
	}
	// One extra bar so the previous MA readings exist for crossing detection.
	return maxPeriod + 2
}

// crossState returns the fast and slow MA values at the latest bar and one
// bar earlier.
func (m *MACrossover) crossState(ctx context.Context, bars []domain.Bar) (fast, slow, prevFast, prevSlow float64, err error) {
	fast, err = m.fastMA.Calculate(ctx, bars)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("fast MA: %w", err)
	}
	slow, err = m.slowMA.Calculate(ctx, bars)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("slow MA: %w", err)
	}
	prevBars := bars[:len(bars)-1]
	prevFast, err = m.fastMA.Calculate(ctx, prevBars)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("previous fast MA: %w", err)
	}
	prevSlow, err = m.slowMA.Calculate(ctx, prevBars)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("previous slow MA: %w", err)
	}
	return fast, slow, prevFast, prevSlow, nil
}

// ShouldEnterTrade enters when the fast MA crosses above the slow MA
func (m *MACrossover) ShouldEnterTrade(ctx context.Context, bars []domain.Bar, currentPrice float64) bool {
	if len(bars) < m.RequiredDataPoints() {
		m.logger.Debug(ctx, "Not enough bar data for strategy evaluation",
			map[string]interface{}{"available": len(bars), "required": m.RequiredDataPoints()})
		return false
	}

	fast, slow, prevFast, prevSlow, err := m.crossState(ctx, bars)
	if err != nil {
		m.logger.Error(ctx, err, "Failed to calculate moving averages")
		return false
	}

	if fast > slow && prevFast <= prevSlow {
		m.logger.Debug(ctx, "Trade entry conditions met", map[string]interface{}{
			"currentPrice": currentPrice,
			"fastMA":       fast,
			"slowMA":       slow,
			"prevFastMA":   prevFast,
			"prevSlowMA":   prevSlow,
		})
		return true
	}
	return false
}

// ShouldClosePosition exits on a cross below, a fixed stop, or the ATR stop
func (m *MACrossover) ShouldClosePosition(ctx context.Context, position *domain.Position, bars []domain.Bar, currentPrice float64) (bool, domain.CloseReason) {
	if !position.IsOpen() {
		return false, ""
	}

	if m.checkStopLoss(position, currentPrice) {
		m.logger.Debug(ctx, "Stop loss triggered", map[string]interface{}{
			"currentPrice": currentPrice,
			"stopLoss":     position.StopLoss,
		})
		return true, domain.CloseReasonStopLoss
	}

	if m.atr != nil {
		atr, err := m.atr.Calculate(ctx, bars)
		if err != nil {
			m.logger.Error(ctx, err, "Failed to calculate ATR")
		} else if currentPrice <= position.EntryPrice-atr*m.config.ATRStop {
			m.logger.Debug(ctx, "ATR stop triggered", map[string]interface{}{
				"currentPrice": currentPrice,
				"entryPrice":   position.EntryPrice,
				"atr":          atr,
				"atrStop":      m.config.ATRStop,
			})
			return true, domain.CloseReasonStopLoss
		}
	}

	fast, slow, prevFast, prevSlow, err := m.crossState(ctx, bars)
	if err != nil {
		m.logger.Error(ctx, err, "Failed to calculate moving averages")
		return false, ""
	}

	if fast < slow && prevFast >= prevSlow {
		m.logger.Debug(ctx, "Exit signal: fast MA crossed below slow MA", map[string]interface{}{
			"currentPrice": currentPrice,
			"fastMA":       fast,
			"slowMA":       slow,
		})
		return true, domain.CloseReasonSignal
	}
	return false, ""
}
