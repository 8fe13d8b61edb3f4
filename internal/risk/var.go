// Package risk estimates value-at-risk and expected shortfall from return
// series, by the empirical distribution, a fitted normal, or Monte Carlo
// simulation.
package risk

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"quantlab/internal/montecarlo"
	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// TradingDaysPerYear converts a day-count horizon to model time.
const TradingDaysPerYear = 252

// Estimate is a value-at-risk figure with its expected shortfall, both as
// positive fractional losses.
type Estimate struct {
	Method     string
	Confidence float64
	VaR        float64
	ES         float64 // mean loss beyond the VaR threshold
}

// HistoricalVaR reads the loss quantile straight off the empirical return
// distribution.
func HistoricalVaR(returns []float64, confidence float64) (Estimate, error) {
	if err := validate(returns, confidence); err != nil {
		return Estimate{}, err
	}
	return empiricalEstimate("historical", returns, confidence), nil
}

// ParametricVaR fits a normal distribution to the returns and reads the
// quantile from it.
func ParametricVaR(returns []float64, confidence float64) (Estimate, error) {
	if err := validate(returns, confidence); err != nil {
		return Estimate{}, err
	}
	alpha := 1 - confidence
	mu := stats.Mean(returns)
	sigma := stats.StdDev(returns)
	z := stats.NormPPF(alpha)
	return Estimate{
		Method:     "parametric",
		Confidence: confidence,
		VaR:        -(mu + z*sigma),
		ES:         -mu + sigma*stats.NormPDF(z)/alpha,
	}, nil
}

// MonteCarloVaR simulates horizonDays of geometric Brownian motion and takes
// the empirical loss quantile of the simulated horizon returns. The config's
// horizon fields are derived from horizonDays; drift and volatility are used
// as given.
func MonteCarloVaR(ctx context.Context, cfg montecarlo.GBMConfig, confidence float64, horizonDays int) (Estimate, error) {
	if confidence <= 0 || confidence >= 1 {
		return Estimate{}, fmt.Errorf("risk: confidence must be in (0, 1), got %v", confidence)
	}
	if horizonDays < 1 {
		return Estimate{}, fmt.Errorf("risk: horizon must be at least one day, got %d", horizonDays)
	}

	cfg.T = float64(horizonDays) / TradingDaysPerYear
	cfg.Steps = horizonDays
	paths, err := montecarlo.SimulateGBM(ctx, cfg)
	if err != nil {
		return Estimate{}, fmt.Errorf("risk: %w", err)
	}

	simulated := make([]float64, len(paths))
	for i, path := range paths {
		simulated[i] = path[len(path)-1]/cfg.S0 - 1
	}
	est := empiricalEstimate("monte carlo", simulated, confidence)
	return est, nil
}

func empiricalEstimate(method string, returns []float64, confidence float64) Estimate {
	alpha := 1 - confidence
	q := stats.Quantile(returns, alpha)

	// Mean of the tail at or beyond the quantile. The quantile never drops
	// below the sample minimum, so the tail is never empty.
	var tailSum float64
	tailN := 0
	for _, r := range returns {
		if r <= q {
			tailSum += r
			tailN++
		}
	}
	return Estimate{
		Method:     method,
		Confidence: confidence,
		VaR:        -q,
		ES:         -tailSum / float64(tailN),
	}
}

func validate(returns []float64, confidence float64) error {
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("risk: confidence must be in (0, 1), got %v", confidence)
	}
	if len(returns) < 2 {
		return fmt.Errorf("risk: %w: %d returns", ports.ErrInsufficientData, len(returns))
	}
	return nil
}

// Report renders estimates as currency losses on a portfolio value.
func Report(portfolioValue float64, estimates ...Estimate) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "Method\tConfidence\tVaR\tES\tVaR Loss\tES Loss\t\n")
	for _, e := range estimates {
		fmt.Fprintf(w, "%s\t%.1f%%\t%.2f%%\t%.2f%%\t%.2f\t%.2f\t\n",
			e.Method,
			e.Confidence*100,
			e.VaR*100,
			e.ES*100,
			portfolioValue*e.VaR,
			portfolioValue*e.ES,
		)
	}
	w.Flush()
	return sb.String()
}
