package strategies

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/strategy/indicators"
)

// BollingerStrategyConfig holds configuration for the Bollinger Bands strategy
type BollingerStrategyConfig struct {
	Period    int     // band lookback (e.g., 20)
	NumStdDev float64 // band width in standard deviations (e.g., 2)
}

// BollingerStrategy implements a long-only band reversal rule: enter when the
// close crosses back up through the lower band after a dip below it, exit
// when the close crosses down through the upper band.
type BollingerStrategy struct {
	*BaseStrategy
	config BollingerStrategyConfig
	bands  *indicators.Bollinger
}

// NewBollingerStrategy creates a new Bollinger Bands strategy instance
func NewBollingerStrategy(config BollingerStrategyConfig, logger ports.Logger) (*BollingerStrategy, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if config.Period == 0 {
		config.Period = 20
	}
	if config.Period < 0 {
		return nil, fmt.Errorf("Bollinger period must be positive")
	}
	if config.NumStdDev == 0 {
		config.NumStdDev = 2
	}
	if config.NumStdDev < 0 {
		return nil, fmt.Errorf("Bollinger band width must be positive")
	}

	bands := indicators.NewBollinger(indicators.BollingerConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: config.Period},
		NumStdDev:       config.NumStdDev,
	})

	return &BollingerStrategy{
		BaseStrategy: NewBaseStrategy(logger),
		config:       config,
		bands:        bands,
	}, nil
}

// Name returns the name of the strategy
func (b *BollingerStrategy) Name() string {
	return "Bollinger Bands"
}

// RequiredDataPoints returns the minimum number of bars needed for the strategy
func (b *BollingerStrategy) RequiredDataPoints() int {
	// One extra bar so the previous band reading exists for crossing detection.
	return b.config.Period + 1
}

// ShouldEnterTrade enters when the close crosses up through the lower band
func (b *BollingerStrategy) ShouldEnterTrade(ctx context.Context, bars []domain.Bar, currentPrice float64) bool {
	if len(bars) < b.RequiredDataPoints() {
		b.logger.Debug(ctx, "Not enough bar data for strategy evaluation",
			map[string]interface{}{"available": len(bars), "required": b.RequiredDataPoints()})
		return false
	}

	curr, err := b.bands.Compute(ctx, bars)
	if err != nil {
		b.logger.Error(ctx, err, "Failed to calculate Bollinger Bands")
		return false
	}
	prev, err := b.bands.Compute(ctx, bars[:len(bars)-1])
	if err != nil {
		b.logger.Error(ctx, err, "Failed to calculate previous Bollinger Bands")
		return false
	}
	prevClose := bars[len(bars)-2].Close

	if prevClose < prev.Lower && currentPrice >= curr.Lower {
		b.logger.Debug(ctx, "Trade entry conditions met", map[string]interface{}{
			"currentPrice":  currentPrice,
			"lowerBand":     curr.Lower,
			"previousClose": prevClose,
			"previousLower": prev.Lower,
		})
		return true
	}
	return false
}

// ShouldClosePosition exits when the close crosses down through the upper band
func (b *BollingerStrategy) ShouldClosePosition(ctx context.Context, position *domain.Position, bars []domain.Bar, currentPrice float64) (bool, domain.CloseReason) {
	if !position.IsOpen() {
		return false, ""
	}

	if b.checkStopLoss(position, currentPrice) {
		b.logger.Debug(ctx, "Stop loss triggered", map[string]interface{}{
			"currentPrice": currentPrice,
			"stopLoss":     position.StopLoss,
		})
		return true, domain.CloseReasonStopLoss
	}

	curr, err := b.bands.Compute(ctx, bars)
	if err != nil {
		b.logger.Error(ctx, err, "Failed to calculate Bollinger Bands")
		return false, ""
	}
	prev, err := b.bands.Compute(ctx, bars[:len(bars)-1])
	if err != nil {
		b.logger.Error(ctx, err, "Failed to calculate previous Bollinger Bands")
		return false, ""
	}
	prevClose := bars[len(bars)-2].Close

	if prevClose > prev.Upper && currentPrice <= curr.Upper {
		b.logger.Debug(ctx, "Exit signal: close fell back through upper band", map[string]interface{}{
			"currentPrice":  currentPrice,
			"upperBand":     curr.Upper,
			"previousClose": prevClose,
			"previousUpper": prev.Upper,
		})
		return true, domain.CloseReasonSignal
	}
	return false, ""
}
