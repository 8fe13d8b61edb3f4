package volatility

import (
	"fmt"
	"math"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// GARCHResult holds a fitted GARCH(1,1) model sigma2_t = omega +
// alpha*e2_{t-1} + beta*sigma2_{t-1}. An ARCH(1) fit is the same model with
// Beta pinned to zero.
type GARCHResult struct {
	Omega           float64
	Alpha           float64
	Beta            float64
	Persistence     float64 // alpha + beta
	LongRunVariance float64 // omega / (1 - persistence)
	LongRunVol      float64
	CondVol         []float64 // conditional volatility per observation
	LogLikelihood   float64
	AIC             float64
	NObs            int

	nextVar float64 // one-step-ahead conditional variance
}

// FitGARCH fits a GARCH(1,1) model to demeaned returns by gaussian maximum
// likelihood, using Nelder-Mead over a penalized objective with
// variance-targeting starts.
func FitGARCH(returns []float64) (*GARCHResult, error) {
	return fitVariance(returns, false)
}

// FitARCH fits an ARCH(1) model, a GARCH(1,1) with beta pinned to zero.
func FitARCH(returns []float64) (*GARCHResult, error) {
	return fitVariance(returns, true)
}

func fitVariance(returns []float64, pinBeta bool) (*GARCHResult, error) {
	n := len(returns)
	if n < 50 {
		return nil, fmt.Errorf("garch: %w: %d returns, need at least 50", ports.ErrInsufficientData, n)
	}
	mean := stats.Mean(returns)
	e := make([]float64, n)
	for i, r := range returns {
		e[i] = r - mean
	}
	sampleVar := stats.Variance(e)
	if sampleVar <= 0 {
		return nil, fmt.Errorf("garch: returns have zero variance")
	}

	objective := func(p []float64) float64 {
		beta := 0.0
		if !pinBeta {
			beta = p[2]
		}
		return garchNLL(e, sampleVar, p[0], p[1], beta)
	}

	var starts [][]float64
	if pinBeta {
		for _, a := range []float64{0.1, 0.3, 0.5} {
			starts = append(starts, []float64{sampleVar * (1 - a), a})
		}
	} else {
		for _, s := range [][2]float64{{0.05, 0.90}, {0.10, 0.80}, {0.20, 0.60}} {
			starts = append(starts, []float64{sampleVar * (1 - s[0] - s[1]), s[0], s[1]})
		}
	}

	var bestX []float64
	bestF := math.Inf(1)
	for _, start := range starts {
		x, f := nelderMead(objective, start, 2000)
		if f < bestF {
			bestX, bestF = x, f
		}
	}
	if bestX == nil || bestF >= 1e8 {
		return nil, fmt.Errorf("garch: likelihood maximization did not converge")
	}

	omega, alpha := bestX[0], bestX[1]
	beta := 0.0
	if !pinBeta {
		beta = bestX[2]
	}

	sigma2 := sampleVar
	condVol := make([]float64, n)
	condVol[0] = math.Sqrt(sigma2)
	for t := 1; t < n; t++ {
		sigma2 = omega + alpha*e[t-1]*e[t-1] + beta*sigma2
		condVol[t] = math.Sqrt(sigma2)
	}

	params := 3
	if pinBeta {
		params = 2
	}
	persistence := alpha + beta
	longRunVar := omega / (1 - persistence)
	result := &GARCHResult{
		Omega:           omega,
		Alpha:           alpha,
		Beta:            beta,
		Persistence:     persistence,
		LongRunVariance: longRunVar,
		LongRunVol:      math.Sqrt(longRunVar),
		CondVol:         condVol,
		LogLikelihood:   -bestF,
		AIC:             2*float64(params) + 2*bestF,
		NObs:            n,
		nextVar:         omega + alpha*e[n-1]*e[n-1] + beta*sigma2,
	}
	return result, nil
}

// garchNLL is the negative gaussian log-likelihood, with sloped penalties
// outside the positivity and stationarity region.
func garchNLL(e []float64, sampleVar, omega, alpha, beta float64) float64 {
	pen := 0.0
	if omega <= 0 {
		pen += 1 - omega
	}
	if alpha < 0 {
		pen += -alpha
	}
	if beta < 0 {
		pen += -beta
	}
	if s := alpha + beta; s >= 1 {
		pen += s
	}
	if pen > 0 {
		return 1e8 * (1 + pen)
	}

	ln2pi := math.Log(2 * math.Pi)
	nll := 0.0
	sigma2 := sampleVar
	for t, et := range e {
		if t > 0 {
			sigma2 = omega + alpha*e[t-1]*e[t-1] + beta*sigma2
		}
		if sigma2 <= 0 {
			return 1e8
		}
		nll += 0.5 * (ln2pi + math.Log(sigma2) + et*et/sigma2)
	}
	return nll
}

// Forecast returns h-step-ahead conditional volatilities. The variance
// recursion decays toward the long-run level at the persistence rate.
func (g *GARCHResult) Forecast(h int) []float64 {
	if h <= 0 {
		return nil
	}
	out := make([]float64, h)
	v := g.nextVar
	for i := 0; i < h; i++ {
		out[i] = math.Sqrt(v)
		v = g.LongRunVariance + g.Persistence*(v-g.LongRunVariance)
	}
	return out
}
