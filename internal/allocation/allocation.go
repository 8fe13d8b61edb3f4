// Package allocation estimates portfolio inputs from return series and
// explores long-only allocations by random search over the simplex.
package allocation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// Universe holds annualized portfolio inputs for a set of symbols.
type Universe struct {
	Symbols     []string
	MeanReturns []float64
	Cov         [][]float64
}

// PortfolioPoint is one evaluated allocation.
type PortfolioPoint struct {
	Weights    []float64
	Return     float64
	Volatility float64
	Sharpe     float64
}

// Estimate computes annualized mean returns and the covariance matrix from
// per-symbol return series. Symbols are ordered alphabetically so results
// are reproducible.
func Estimate(returnsBySymbol map[string][]float64, periodsPerYear float64) (*Universe, error) {
	if len(returnsBySymbol) == 0 {
		return nil, fmt.Errorf("allocation: no return series")
	}
	if periodsPerYear <= 0 {
		return nil, fmt.Errorf("allocation: periodsPerYear must be positive, got %v", periodsPerYear)
	}

	symbols := make([]string, 0, len(returnsBySymbol))
	for s := range returnsBySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	n := len(returnsBySymbol[symbols[0]])
	if n < 2 {
		return nil, fmt.Errorf("allocation: %w: %d observations", ports.ErrInsufficientData, n)
	}
	for _, s := range symbols {
		if len(returnsBySymbol[s]) != n {
			return nil, fmt.Errorf("allocation: series length mismatch: %s has %d observations, expected %d", s, len(returnsBySymbol[s]), n)
		}
	}

	u := &Universe{
		Symbols:     symbols,
		MeanReturns: make([]float64, len(symbols)),
		Cov:         make([][]float64, len(symbols)),
	}
	for i, s := range symbols {
		u.MeanReturns[i] = stats.Mean(returnsBySymbol[s]) * periodsPerYear
		u.Cov[i] = make([]float64, len(symbols))
	}
	for i, si := range symbols {
		for j := i; j < len(symbols); j++ {
			c, err := stats.Covariance(returnsBySymbol[si], returnsBySymbol[symbols[j]])
			if err != nil {
				return nil, fmt.Errorf("allocation: %w", err)
			}
			c *= periodsPerYear
			u.Cov[i][j] = c
			u.Cov[j][i] = c
		}
	}
	return u, nil
}

// Performance evaluates a long-only allocation against annualized inputs.
func Performance(weights, meanReturns []float64, cov [][]float64, riskFree float64) (PortfolioPoint, error) {
	n := len(weights)
	if n == 0 || len(meanReturns) != n || len(cov) != n {
		return PortfolioPoint{}, fmt.Errorf("allocation: dimension mismatch: %d weights, %d means, %d covariance rows", n, len(meanReturns), len(cov))
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return PortfolioPoint{}, fmt.Errorf("allocation: negative weight %v", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return PortfolioPoint{}, fmt.Errorf("allocation: weights sum to %v, expected 1", sum)
	}

	var ret, variance float64
	for i, w := range weights {
		ret += w * meanReturns[i]
		if len(cov[i]) != n {
			return PortfolioPoint{}, fmt.Errorf("allocation: ragged covariance row %d", i)
		}
		for j, wj := range weights {
			variance += w * wj * cov[i][j]
		}
	}

	point := PortfolioPoint{
		Weights:    append([]float64(nil), weights...),
		Return:     ret,
		Volatility: math.Sqrt(variance),
	}
	if point.Volatility > 0 {
		point.Sharpe = (ret - riskFree) / point.Volatility
	}
	return point, nil
}

// FrontierConfig controls the random portfolio search.
type FrontierConfig struct {
	NumPortfolios int
	Seed          int64
	RiskFree      float64
}

// Frontier holds the evaluated random portfolios and the two headline
// allocations.
type Frontier struct {
	Points        []PortfolioPoint
	MaxSharpe     PortfolioPoint
	MinVolatility PortfolioPoint
}

// RandomFrontier samples long-only weight vectors, evaluates each one and
// tracks the maximum-Sharpe and minimum-volatility portfolios. Runs are
// deterministic for a fixed Seed.
func RandomFrontier(u *Universe, cfg FrontierConfig) (*Frontier, error) {
	if u == nil || len(u.Symbols) == 0 {
		return nil, fmt.Errorf("allocation: empty universe")
	}
	if cfg.NumPortfolios < 1 {
		return nil, fmt.Errorf("allocation: NumPortfolios must be positive, got %d", cfg.NumPortfolios)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	nAssets := len(u.Symbols)
	frontier := &Frontier{Points: make([]PortfolioPoint, 0, cfg.NumPortfolios)}

	for p := 0; p < cfg.NumPortfolios; p++ {
		weights := make([]float64, nAssets)
		var sum float64
		for i := range weights {
			weights[i] = rng.Float64()
			sum += weights[i]
		}
		for i := range weights {
			weights[i] /= sum
		}

		point, err := Performance(weights, u.MeanReturns, u.Cov, cfg.RiskFree)
		if err != nil {
			return nil, err
		}
		frontier.Points = append(frontier.Points, point)

		if p == 0 || point.Sharpe > frontier.MaxSharpe.Sharpe {
			frontier.MaxSharpe = point
		}
		if p == 0 || point.Volatility < frontier.MinVolatility.Volatility {
			frontier.MinVolatility = point
		}
	}
	return frontier, nil
}

// EqualWeights returns the 1/n benchmark allocation.
func EqualWeights(n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("allocation: need at least one asset, got %d", n)
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	return weights, nil
}
