package montecarlo

import (
	"context"
	"fmt"
	"math"

	"quantlab/internal/stats"
)

// OptionType selects the payoff side.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// DefaultPolyDegree is the continuation-regression degree for the
// Longstaff-Schwartz pricer.
const DefaultPolyDegree = 5

// MCPrice is a simulated option premium with its standard error.
type MCPrice struct {
	Price  float64
	StdErr float64
	Paths  int
}

// BlackScholes returns the analytic European option premium.
func BlackScholes(s0, strike, ttm, rate, sigma float64, optType OptionType) (float64, error) {
	if err := validateOption(s0, strike, ttm, sigma, optType); err != nil {
		return 0, err
	}

	discK := strike * math.Exp(-rate*ttm)
	volT := sigma * math.Sqrt(ttm)
	if volT == 0 {
		// Deterministic forward: the premium is the discounted intrinsic.
		switch optType {
		case Call:
			return math.Max(s0-discK, 0), nil
		default:
			return math.Max(discK-s0, 0), nil
		}
	}

	d1 := (math.Log(s0/strike) + (rate+0.5*sigma*sigma)*ttm) / volT
	d2 := d1 - volT
	if optType == Call {
		return s0*stats.NormCDF(d1) - discK*stats.NormCDF(d2), nil
	}
	return discK*stats.NormCDF(-d2) - s0*stats.NormCDF(-d1), nil
}

// PriceEuropeanMC prices a European option as the discounted mean payoff
// over simulated terminal prices. The simulation drift is forced to the
// risk-free rate.
func PriceEuropeanMC(ctx context.Context, cfg GBMConfig, strike, rate float64, optType OptionType) (*MCPrice, error) {
	if err := validateOption(cfg.S0, strike, cfg.T, cfg.Sigma, optType); err != nil {
		return nil, err
	}
	cfg.Mu = rate
	paths, err := SimulateGBM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	discount := math.Exp(-rate * cfg.T)
	payoffs := make([]float64, len(paths))
	for i, path := range paths {
		payoffs[i] = discount * payoff(path[len(path)-1], strike, optType)
	}

	n := float64(len(payoffs))
	price := stats.Mean(payoffs)
	stderr := 0.0
	if len(payoffs) > 1 {
		stderr = stats.StdDev(payoffs) / math.Sqrt(n)
	}
	return &MCPrice{Price: price, StdErr: stderr, Paths: len(payoffs)}, nil
}

// PriceAmericanLSMC prices an American option by the Longstaff-Schwartz
// method: backward induction where continuation values come from a
// polynomial regression of discounted future values on the current price.
// polyDegree <= 0 selects DefaultPolyDegree.
func PriceAmericanLSMC(ctx context.Context, cfg GBMConfig, strike, rate float64, optType OptionType, polyDegree int) (*MCPrice, error) {
	if err := validateOption(cfg.S0, strike, cfg.T, cfg.Sigma, optType); err != nil {
		return nil, err
	}
	if polyDegree <= 0 {
		polyDegree = DefaultPolyDegree
	}
	cfg.Mu = rate
	paths, err := SimulateGBM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	nPaths := len(paths)
	steps := cfg.Steps
	dt := cfg.T / float64(steps)
	df := math.Exp(-rate * dt)

	// Value at expiry is the payoff itself.
	value := make([]float64, nPaths)
	for i, path := range paths {
		value[i] = payoff(path[steps], strike, optType)
	}

	// Regression inputs are scaled by the strike to keep the polynomial
	// normal equations well conditioned.
	moneyness := make([]float64, nPaths)
	discounted := make([]float64, nPaths)
	for t := steps - 1; t >= 1; t-- {
		for i, path := range paths {
			moneyness[i] = path[t] / strike
			discounted[i] = value[i] * df
		}
		// Without price dispersion (sigma 0) there is nothing to regress
		// on; every path then continues at the common discounted value.
		coeffs, regErr := stats.PolyFit(moneyness, discounted, polyDegree)
		meanCont := 0.0
		if regErr != nil {
			meanCont = stats.Mean(discounted)
		}
		for i, path := range paths {
			cont := meanCont
			if regErr == nil {
				cont = stats.PolyVal(coeffs, path[t]/strike)
			}
			exercise := payoff(path[t], strike, optType)
			if exercise > cont {
				value[i] = exercise
			} else {
				value[i] = discounted[i]
			}
		}
	}

	for i := range value {
		value[i] *= df
	}
	price := stats.Mean(value)
	stderr := 0.0
	if nPaths > 1 {
		stderr = stats.StdDev(value) / math.Sqrt(float64(nPaths))
	}
	return &MCPrice{Price: price, StdErr: stderr, Paths: nPaths}, nil
}

func payoff(price, strike float64, optType OptionType) float64 {
	if optType == Call {
		return math.Max(price-strike, 0)
	}
	return math.Max(strike-price, 0)
}

func validateOption(s0, strike, ttm, sigma float64, optType OptionType) error {
	if optType != Call && optType != Put {
		return fmt.Errorf("option: unknown type %q", optType)
	}
	if s0 <= 0 {
		return fmt.Errorf("option: spot must be positive, got %v", s0)
	}
	if strike <= 0 {
		return fmt.Errorf("option: strike must be positive, got %v", strike)
	}
	if ttm <= 0 {
		return fmt.Errorf("option: time to maturity must be positive, got %v", ttm)
	}
	if sigma < 0 {
		return fmt.Errorf("option: sigma must be non-negative, got %v", sigma)
	}
	return nil
}
