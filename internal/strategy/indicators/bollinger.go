package indicators

import (
	"context"
	"fmt"
	"math"

	"quantlab/internal/domain"
)

// Bands holds a single Bollinger Bands reading.
type Bands struct {
	Middle float64
	Upper  float64
	Lower  float64
}

// BollingerConfig holds configuration for the Bollinger Bands indicator
type BollingerConfig struct {
	IndicatorConfig
	NumStdDev float64 // band width in standard deviations (typically 2)
}

// Bollinger implements the Bollinger Bands indicator. The middle band is a
// simple moving average; the outer bands sit NumStdDev population standard
// deviations away from it.
type Bollinger struct {
	BaseIndicator
	config BollingerConfig
}

// NewBollinger creates a new Bollinger Bands indicator instance
func NewBollinger(config BollingerConfig) *Bollinger {
	if config.NumStdDev <= 0 {
		config.NumStdDev = 2
	}
	return &Bollinger{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (b *Bollinger) Name() string {
	return "BB"
}

// Calculate returns the middle band at the latest bar, satisfying the
// single-value Indicator interface.
func (b *Bollinger) Calculate(ctx context.Context, bars []domain.Bar) (float64, error) {
	bands, err := b.Compute(ctx, bars)
	if err != nil {
		return 0, err
	}
	return bands.Middle, nil
}

// Compute returns the full Bollinger Bands reading at the latest bar.
func (b *Bollinger) Compute(ctx context.Context, bars []domain.Bar) (Bands, error) {
	period := b.Config.Period
	if len(bars) < period {
		return Bands{}, fmt.Errorf("not enough data (%d) to calculate Bollinger Bands for period %d", len(bars), period)
	}

	window := bars[len(bars)-period:]
	var sum float64
	for _, bar := range window {
		sum += bar.Close
	}
	mean := sum / float64(period)

	var sqSum float64
	for _, bar := range window {
		d := bar.Close - mean
		sqSum += d * d
	}
	std := math.Sqrt(sqSum / float64(period))

	return Bands{
		Middle: mean,
		Upper:  mean + b.config.NumStdDev*std,
		Lower:  mean - b.config.NumStdDev*std,
	}, nil
}
