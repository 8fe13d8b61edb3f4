package timeseries

import (
	"fmt"
	"math"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// DecomposeModel selects how the components combine.
type DecomposeModel string

const (
	Additive       DecomposeModel = "additive"       // x = trend + seasonal + remainder
	Multiplicative DecomposeModel = "multiplicative" // x = trend * seasonal * remainder
)

// Decomposition holds the classical decomposition of a series. Trend and
// Remainder carry NaN at the edges where the centred moving average is
// undefined.
type Decomposition struct {
	Trend     []float64
	Seasonal  []float64
	Remainder []float64
	Period    int
	Model     DecomposeModel
}

// Decompose splits a series into trend, seasonal and remainder components
// using a centred moving average for the trend and per-phase means for the
// seasonal component.
func Decompose(x []float64, period int, model DecomposeModel) (*Decomposition, error) {
	if model != Additive && model != Multiplicative {
		return nil, fmt.Errorf("decompose: unknown model %q", model)
	}
	if period < 2 {
		return nil, fmt.Errorf("decompose: period must be at least 2, got %d", period)
	}
	n := len(x)
	if n < 2*period {
		return nil, fmt.Errorf("decompose: %w: %d observations for period %d", ports.ErrInsufficientData, n, period)
	}
	if model == Multiplicative {
		for i, v := range x {
			if v <= 0 {
				return nil, fmt.Errorf("decompose: multiplicative model needs positive values, got %v at index %d", v, i)
			}
		}
	}

	trend := centredMA(x, period)

	// Detrend, then average the detrended values per phase.
	detrended := make([]float64, n)
	for i := range x {
		if math.IsNaN(trend[i]) {
			detrended[i] = math.NaN()
			continue
		}
		if model == Additive {
			detrended[i] = x[i] - trend[i]
		} else {
			detrended[i] = x[i] / trend[i]
		}
	}

	phase := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		if math.IsNaN(v) {
			continue
		}
		phase[i%period] += v
		counts[i%period]++
	}
	for p := range phase {
		if counts[p] == 0 {
			return nil, fmt.Errorf("decompose: no trend-adjusted observations for phase %d", p)
		}
		phase[p] /= float64(counts[p])
	}

	// Normalise so seasonal effects sum to zero (additive) or average to one
	// (multiplicative).
	m := stats.Mean(phase)
	for p := range phase {
		if model == Additive {
			phase[p] -= m
		} else {
			phase[p] /= m
		}
	}

	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	for i := range x {
		seasonal[i] = phase[i%period]
		if math.IsNaN(trend[i]) {
			remainder[i] = math.NaN()
			continue
		}
		if model == Additive {
			remainder[i] = x[i] - trend[i] - seasonal[i]
		} else {
			remainder[i] = x[i] / (trend[i] * seasonal[i])
		}
	}

	return &Decomposition{
		Trend:     trend,
		Seasonal:  seasonal,
		Remainder: remainder,
		Period:    period,
		Model:     model,
	}, nil
}

// centredMA computes the centred moving average of the given period, using
// the 2xMA construction for even periods. Positions without a full window
// are NaN.
func centredMA(x []float64, period int) []float64 {
	n := len(x)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}
	half := period / 2
	if period%2 == 1 {
		for i := half; i < n-half; i++ {
			var sum float64
			for j := i - half; j <= i+half; j++ {
				sum += x[j]
			}
			trend[i] = sum / float64(period)
		}
		return trend
	}
	// Even period: window of period+1 values with half weight on the ends.
	for i := half; i < n-half; i++ {
		sum := 0.5*x[i-half] + 0.5*x[i+half]
		for j := i - half + 1; j <= i+half-1; j++ {
			sum += x[j]
		}
		trend[i] = sum / float64(period)
	}
	return trend
}
