package timeseries

import (
	"fmt"
	"math"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// ACF returns the sample autocorrelation function up to nLags. The result has
// nLags+1 entries with the lag-0 value of 1 first.
func ACF(x []float64, nLags int) ([]float64, error) {
	n := len(x)
	if nLags < 1 {
		return nil, fmt.Errorf("acf: nLags must be positive, got %d", nLags)
	}
	if n <= nLags {
		return nil, fmt.Errorf("acf: %w: %d observations for %d lags", ports.ErrInsufficientData, n, nLags)
	}
	m := stats.Mean(x)
	var denom float64
	for _, v := range x {
		denom += (v - m) * (v - m)
	}
	if denom == 0 {
		return nil, fmt.Errorf("acf: series is constant")
	}

	acf := make([]float64, nLags+1)
	acf[0] = 1
	for k := 1; k <= nLags; k++ {
		var num float64
		for t := k; t < n; t++ {
			num += (x[t] - m) * (x[t-k] - m)
		}
		acf[k] = num / denom
	}
	return acf, nil
}

// PACF returns the sample partial autocorrelation function up to nLags via
// the Durbin-Levinson recursion. The result has nLags+1 entries with the
// lag-0 value of 1 first.
func PACF(x []float64, nLags int) ([]float64, error) {
	acf, err := ACF(x, nLags)
	if err != nil {
		return nil, fmt.Errorf("pacf: %w", err)
	}

	pacf := make([]float64, nLags+1)
	pacf[0] = 1

	// phi holds the AR coefficients of the current order.
	phi := make([]float64, nLags+1)
	prev := make([]float64, nLags+1)

	for k := 1; k <= nLags; k++ {
		var num, den float64
		num = acf[k]
		den = 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
			den -= prev[j] * acf[j]
		}
		if den == 0 {
			return nil, fmt.Errorf("pacf: recursion degenerate at lag %d", k)
		}
		phi[k] = num / den
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		copy(prev, phi[:k+1])
		pacf[k] = phi[k]
	}
	return pacf, nil
}

// ConfBound returns the white-noise confidence band z_{1-alpha/2}/sqrt(n)
// drawn on correlograms.
func ConfBound(n int, alpha float64) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("confbound: n must be positive, got %d", n)
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, fmt.Errorf("confbound: alpha must be in (0, 1), got %v", alpha)
	}
	return stats.NormPPF(1-alpha/2) / math.Sqrt(float64(n)), nil
}
