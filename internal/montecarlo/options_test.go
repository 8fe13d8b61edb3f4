package montecarlo

import (
	"context"
	"math"
	"testing"
)

func TestBlackScholesKnownValues(t *testing.T) {
	// Standard reference case: S=100, K=100, r=5%, sigma=20%, T=1.
	call, err := BlackScholes(100, 100, 1, 0.05, 0.2, Call)
	if err != nil {
		t.Fatalf("BlackScholes call: %v", err)
	}
	if math.Abs(call-10.4506) > 5e-4 {
		t.Errorf("call: expected 10.4506, got %v", call)
	}

	put, err := BlackScholes(100, 100, 1, 0.05, 0.2, Put)
	if err != nil {
		t.Fatalf("BlackScholes put: %v", err)
	}
	if math.Abs(put-5.5735) > 5e-4 {
		t.Errorf("put: expected 5.5735, got %v", put)
	}
}

func TestBlackScholesPutCallParity(t *testing.T) {
	s0, strike, ttm, rate, sigma := 105.0, 98.0, 0.75, 0.03, 0.25

	call, err := BlackScholes(s0, strike, ttm, rate, sigma, Call)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	put, err := BlackScholes(s0, strike, ttm, rate, sigma, Put)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	parity := s0 - strike*math.Exp(-rate*ttm)
	if math.Abs((call-put)-parity) > 1e-10 {
		t.Errorf("put-call parity violated: C-P=%v, S-K*exp(-rT)=%v", call-put, parity)
	}
}

func TestBlackScholesZeroSigma(t *testing.T) {
	call, err := BlackScholes(100, 100, 1, 0.05, 0, Call)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	want := 100 - 100*math.Exp(-0.05)
	if math.Abs(call-want) > 1e-10 {
		t.Errorf("zero-sigma call: expected %v, got %v", want, call)
	}

	put, err := BlackScholes(100, 100, 1, 0.05, 0, Put)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put != 0 {
		t.Errorf("zero-sigma put above the forward should be worthless, got %v", put)
	}
}

func TestBlackScholesValidation(t *testing.T) {
	if _, err := BlackScholes(0, 100, 1, 0.05, 0.2, Call); err == nil {
		t.Error("expected error for zero spot")
	}
	if _, err := BlackScholes(100, 100, 1, 0.05, 0.2, "straddle"); err == nil {
		t.Error("expected error for unknown option type")
	}
}

func TestPriceEuropeanMCMatchesBlackScholes(t *testing.T) {
	cfg := GBMConfig{
		S0:         100,
		Sigma:      0.2,
		T:          1,
		Steps:      50,
		Paths:      20000,
		Seed:       42,
		Antithetic: true,
	}

	mc, err := PriceEuropeanMC(context.Background(), cfg, 100, 0.05, Call)
	if err != nil {
		t.Fatalf("PriceEuropeanMC: %v", err)
	}
	if mc.Paths != cfg.Paths {
		t.Errorf("expected %d paths, got %d", cfg.Paths, mc.Paths)
	}
	if mc.StdErr <= 0 || mc.StdErr > 0.2 {
		t.Errorf("unexpected standard error %v", mc.StdErr)
	}
	if math.Abs(mc.Price-10.4506) > 1.0 {
		t.Errorf("MC price %v too far from the analytic 10.4506", mc.Price)
	}
}

func TestPriceEuropeanMCZeroSigma(t *testing.T) {
	cfg := GBMConfig{S0: 100, Sigma: 0, T: 1, Steps: 10, Paths: 10, Seed: 1}

	mc, err := PriceEuropeanMC(context.Background(), cfg, 100, 0.05, Call)
	if err != nil {
		t.Fatalf("PriceEuropeanMC: %v", err)
	}
	want := 100 - 100*math.Exp(-0.05)
	if math.Abs(mc.Price-want) > 1e-9 {
		t.Errorf("deterministic price: expected %v, got %v", want, mc.Price)
	}
	if mc.StdErr > 1e-12 {
		t.Errorf("deterministic payoff should have zero standard error, got %v", mc.StdErr)
	}
}

func TestAmericanPutWorthAtLeastEuropean(t *testing.T) {
	cfg := GBMConfig{
		S0:         100,
		Sigma:      0.2,
		T:          1,
		Steps:      50,
		Paths:      10000,
		Seed:       7,
		Antithetic: true,
	}

	european, err := PriceEuropeanMC(context.Background(), cfg, 110, 0.05, Put)
	if err != nil {
		t.Fatalf("PriceEuropeanMC: %v", err)
	}
	american, err := PriceAmericanLSMC(context.Background(), cfg, 110, 0.05, Put, 5)
	if err != nil {
		t.Fatalf("PriceAmericanLSMC: %v", err)
	}

	if american.Price < european.Price-0.1 {
		t.Errorf("American put %v priced below European %v", american.Price, european.Price)
	}
}

func TestAmericanCallMatchesEuropeanWithoutDividends(t *testing.T) {
	cfg := GBMConfig{
		S0:         100,
		Sigma:      0.2,
		T:          1,
		Steps:      50,
		Paths:      10000,
		Seed:       7,
		Antithetic: true,
	}

	european, err := PriceEuropeanMC(context.Background(), cfg, 100, 0.05, Call)
	if err != nil {
		t.Fatalf("PriceEuropeanMC: %v", err)
	}
	american, err := PriceAmericanLSMC(context.Background(), cfg, 100, 0.05, Call, 0)
	if err != nil {
		t.Fatalf("PriceAmericanLSMC: %v", err)
	}

	if math.Abs(american.Price-european.Price) > 1.0 {
		t.Errorf("American call %v should track the European %v without dividends", american.Price, european.Price)
	}
	if american.Paths != cfg.Paths {
		t.Errorf("expected %d paths, got %d", cfg.Paths, american.Paths)
	}
}
