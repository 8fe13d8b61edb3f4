package volatility

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"quantlab/internal/ports"
)

// garchSeries simulates a GARCH(1,1) process with seeded gaussian shocks.
func garchSeries(seed int64, n int, omega, alpha, beta float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	r := make([]float64, n)
	sigma2 := omega / (1 - alpha - beta)
	for t := 0; t < n; t++ {
		r[t] = math.Sqrt(sigma2) * rng.NormFloat64()
		sigma2 = omega + alpha*r[t]*r[t] + beta*sigma2
	}
	return r
}

func TestFitGARCH(t *testing.T) {
	returns := garchSeries(5, 2000, 0.2, 0.2, 0.6)

	res, err := FitGARCH(returns)
	if err != nil {
		t.Fatalf("FitGARCH: %v", err)
	}

	if res.Omega <= 0 || res.Alpha < 0 || res.Beta < 0 {
		t.Errorf("expected positive parameters, got omega=%v alpha=%v beta=%v", res.Omega, res.Alpha, res.Beta)
	}
	if res.Persistence >= 1 {
		t.Errorf("persistence must stay below 1, got %v", res.Persistence)
	}
	if res.Alpha < 0.05 || res.Alpha > 0.4 {
		t.Errorf("alpha estimate %v far from the true 0.2", res.Alpha)
	}
	if res.Beta < 0.35 || res.Beta > 0.8 {
		t.Errorf("beta estimate %v far from the true 0.6", res.Beta)
	}
	// True long-run variance is 0.2/(1-0.8) = 1.
	if res.LongRunVariance < 0.5 || res.LongRunVariance > 2 {
		t.Errorf("long-run variance estimate %v far from the true 1", res.LongRunVariance)
	}
	if len(res.CondVol) != len(returns) {
		t.Fatalf("expected %d conditional vols, got %d", len(returns), len(res.CondVol))
	}
	for i, v := range res.CondVol {
		if v <= 0 || math.IsNaN(v) {
			t.Fatalf("conditional vol[%d] = %v", i, v)
		}
	}
	if math.IsNaN(res.AIC) || math.IsInf(res.AIC, 0) {
		t.Errorf("AIC not finite: %v", res.AIC)
	}
}

func TestGARCHForecastConvergesToLongRun(t *testing.T) {
	returns := garchSeries(9, 1000, 0.1, 0.15, 0.7)
	res, err := FitGARCH(returns)
	if err != nil {
		t.Fatalf("FitGARCH: %v", err)
	}

	fc := res.Forecast(300)
	if len(fc) != 300 {
		t.Fatalf("expected 300 forecasts, got %d", len(fc))
	}
	last := fc[len(fc)-1]
	if math.Abs(last-res.LongRunVol) > 0.02*res.LongRunVol {
		t.Errorf("long-horizon forecast %v should approach long-run vol %v", last, res.LongRunVol)
	}
	// Each step moves the variance toward the long-run level.
	first := fc[0]*fc[0] - res.LongRunVariance
	lastGap := last*last - res.LongRunVariance
	if math.Abs(lastGap) > math.Abs(first)+1e-12 {
		t.Errorf("forecast gap should shrink: first %v, last %v", first, lastGap)
	}

	if fc := res.Forecast(0); fc != nil {
		t.Errorf("expected nil forecast for h=0, got %v", fc)
	}
}

func TestFitARCH(t *testing.T) {
	returns := garchSeries(5, 2000, 0.2, 0.2, 0.6)

	arch, err := FitARCH(returns)
	if err != nil {
		t.Fatalf("FitARCH: %v", err)
	}
	if arch.Beta != 0 {
		t.Errorf("ARCH beta must be pinned to zero, got %v", arch.Beta)
	}
	if arch.Persistence != arch.Alpha {
		t.Errorf("ARCH persistence should equal alpha, got %v vs %v", arch.Persistence, arch.Alpha)
	}

	// The richer model must fit the GARCH-generated data at least as well.
	garch, err := FitGARCH(returns)
	if err != nil {
		t.Fatalf("FitGARCH: %v", err)
	}
	if garch.LogLikelihood < arch.LogLikelihood {
		t.Errorf("GARCH log-likelihood %v below nested ARCH %v", garch.LogLikelihood, arch.LogLikelihood)
	}
}

func TestGARCHErrors(t *testing.T) {
	short := make([]float64, 30)
	for i := range short {
		short[i] = 0.01 * float64(i%3)
	}
	if _, err := FitGARCH(short); !errors.Is(err, ports.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	flat := make([]float64, 100)
	if _, err := FitGARCH(flat); err == nil {
		t.Error("expected error for zero-variance returns")
	}
}

func TestNelderMeadQuadratic(t *testing.T) {
	f := func(p []float64) float64 {
		dx := p[0] - 1
		dy := p[1] - 2
		return dx*dx + dy*dy
	}
	x, v := nelderMead(f, []float64{0, 0}, 500)
	if math.Abs(x[0]-1) > 1e-3 || math.Abs(x[1]-2) > 1e-3 {
		t.Errorf("expected minimum near (1,2), got %v", x)
	}
	if v > 1e-6 {
		t.Errorf("expected near-zero minimum value, got %v", v)
	}
}
