package domain

import "math"

// FlagOutliers marks returns that sit more than nSigma standard deviations
// away from a trailing rolling mean. The mask is aligned with the input: the
// first `window` observations are never flagged because the rolling window is
// not yet full. Used to spot bad ticks and event days before modeling.
func FlagOutliers(returns []float64, window int, nSigma float64) []bool {
	mask := make([]bool, len(returns))
	if window <= 1 || len(returns) <= window {
		return mask
	}

	for i := window; i < len(returns); i++ {
		mean, std := rollingMoments(returns[i-window : i])
		if std == 0 {
			continue
		}
		if math.Abs(returns[i]-mean) > nSigma*std {
			mask[i] = true
		}
	}
	return mask
}

func rollingMoments(window []float64) (mean, std float64) {
	for _, r := range window {
		mean += r
	}
	mean /= float64(len(window))
	var variance float64
	for _, r := range window {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(window) - 1)
	return mean, math.Sqrt(variance)
}
