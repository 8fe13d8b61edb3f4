// Package volatility estimates and forecasts return volatility: realized
// windows, the RiskMetrics EWMA recursion and maximum-likelihood
// GARCH/ARCH fitting.
package volatility

import (
	"fmt"
	"math"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// DefaultLambda is the RiskMetrics decay factor for daily returns.
const DefaultLambda = 0.94

// Realized computes the rolling annualized standard deviation of returns
// over the given window. The first window-1 entries are NaN so the result
// aligns with the input.
func Realized(returns []float64, window int, periodsPerYear float64) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("realized: window must be at least 2, got %d", window)
	}
	if periodsPerYear <= 0 {
		return nil, fmt.Errorf("realized: periodsPerYear must be positive, got %v", periodsPerYear)
	}
	if len(returns) < window {
		return nil, fmt.Errorf("realized: %w: %d returns for window %d", ports.ErrInsufficientData, len(returns), window)
	}

	ann := math.Sqrt(periodsPerYear)
	out := make([]float64, len(returns))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stats.StdDev(returns[i-window+1:i+1]) * ann
	}
	return out, nil
}

// RealizedFull returns the full-sample annualized standard deviation.
func RealizedFull(returns []float64, periodsPerYear float64) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("realized: periodsPerYear must be positive, got %v", periodsPerYear)
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("realized: %w: %d returns", ports.ErrInsufficientData, len(returns))
	}
	return stats.StdDev(returns) * math.Sqrt(periodsPerYear), nil
}

// EWMAResult holds the RiskMetrics conditional volatility series.
type EWMAResult struct {
	Lambda   float64
	Vol      []float64 // conditional volatility per observation
	Forecast float64   // next-step volatility
}

// EWMA runs the RiskMetrics recursion sigma2_t = lambda*sigma2_{t-1} +
// (1-lambda)*r2_{t-1}, seeded with the sample variance. A lambda of zero
// selects DefaultLambda.
func EWMA(returns []float64, lambda float64) (*EWMAResult, error) {
	if lambda == 0 {
		lambda = DefaultLambda
	}
	if lambda <= 0 || lambda >= 1 {
		return nil, fmt.Errorf("ewma: lambda must be in (0, 1), got %v", lambda)
	}
	if len(returns) < 2 {
		return nil, fmt.Errorf("ewma: %w: %d returns", ports.ErrInsufficientData, len(returns))
	}

	res := &EWMAResult{Lambda: lambda, Vol: make([]float64, len(returns))}
	sigma2 := stats.Variance(returns)
	res.Vol[0] = math.Sqrt(sigma2)
	for t := 1; t < len(returns); t++ {
		sigma2 = lambda*sigma2 + (1-lambda)*returns[t-1]*returns[t-1]
		res.Vol[t] = math.Sqrt(sigma2)
	}
	last := returns[len(returns)-1]
	res.Forecast = math.Sqrt(lambda*sigma2 + (1-lambda)*last*last)
	return res, nil
}
