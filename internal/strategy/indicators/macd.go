package indicators

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
)

// MACDConfig holds configuration for the MACD indicator
type MACDConfig struct {
	FastPeriod   int // typically 12
	SlowPeriod   int // typically 26
	SignalPeriod int // typically 9
}

// MACDValue holds a single MACD reading.
type MACDValue struct {
	MACD      float64 // fast EMA minus slow EMA
	Signal    float64 // EMA of the MACD line
	Histogram float64 // MACD minus Signal
}

// MACD implements the Moving Average Convergence Divergence indicator
type MACD struct {
	config MACDConfig
}

// NewMACD creates a new MACD indicator instance with 12/26/9 defaults.
func NewMACD(config MACDConfig) *MACD {
	if config.FastPeriod <= 0 {
		config.FastPeriod = 12
	}
	if config.SlowPeriod <= 0 {
		config.SlowPeriod = 26
	}
	if config.SignalPeriod <= 0 {
		config.SignalPeriod = 9
	}
	return &MACD{config: config}
}

// Name returns the name of the indicator
func (m *MACD) Name() string {
	return "MACD"
}

// RequiredDataPoints returns the minimum number of bars needed for calculation
func (m *MACD) RequiredDataPoints() int {
	return m.config.SlowPeriod + m.config.SignalPeriod
}

// Compute returns the MACD reading at the latest bar.
func (m *MACD) Compute(ctx context.Context, bars []domain.Bar) (MACDValue, error) {
	if len(bars) < m.RequiredDataPoints() {
		return MACDValue{}, fmt.Errorf("not enough data (%d) to calculate MACD, need %d", len(bars), m.RequiredDataPoints())
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	macdLine, signalLine, histogram := MACDSeries(closes, m.config.FastPeriod, m.config.SlowPeriod, m.config.SignalPeriod)
	last := len(bars) - 1
	return MACDValue{
		MACD:      macdLine[last],
		Signal:    signalLine[last],
		Histogram: histogram[last],
	}, nil
}
