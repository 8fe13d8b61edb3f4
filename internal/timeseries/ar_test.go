package timeseries

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"quantlab/internal/ports"
)

func TestARRecoversDeterministicRecursion(t *testing.T) {
	// y_t = 2 + 0.5*y_{t-1} exactly; OLS must recover both coefficients.
	x := make([]float64, 20)
	x[0] = 10
	for i := 1; i < len(x); i++ {
		x[i] = 2 + 0.5*x[i-1]
	}

	res, err := AR(x, 1)
	if err != nil {
		t.Fatalf("AR: %v", err)
	}
	if !almostEqual(res.Const, 2, 1e-6) {
		t.Errorf("constant: expected 2, got %v", res.Const)
	}
	if !almostEqual(res.Coeffs[0], 0.5, 1e-6) {
		t.Errorf("phi1: expected 0.5, got %v", res.Coeffs[0])
	}

	fc := res.Forecast(1)
	want := 2 + 0.5*x[len(x)-1]
	if !almostEqual(fc[0], want, 1e-6) {
		t.Errorf("one-step forecast: expected %v, got %v", want, fc[0])
	}

	// The recursion converges to 2/(1-0.5) = 4.
	long := res.Forecast(60)
	if !almostEqual(long[59], 4, 1e-3) {
		t.Errorf("long-run forecast: expected 4, got %v", long[59])
	}
}

func TestFitARSelectsSecondOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	n := 300
	x := make([]float64, n)
	for t := 2; t < n; t++ {
		x[t] = 0.5*x[t-1] - 0.3*x[t-2] + rng.NormFloat64()
	}

	res, err := FitAR(x, 5)
	if err != nil {
		t.Fatalf("FitAR: %v", err)
	}
	if res.Order < 2 {
		t.Fatalf("expected order >= 2 for AR(2) data, got %d", res.Order)
	}
	if math.Abs(res.Coeffs[0]-0.5) > 0.15 {
		t.Errorf("phi1: expected near 0.5, got %v", res.Coeffs[0])
	}
	if math.Abs(res.Coeffs[1]+0.3) > 0.15 {
		t.Errorf("phi2: expected near -0.3, got %v", res.Coeffs[1])
	}
	if res.Sigma2 <= 0 {
		t.Errorf("expected positive residual variance, got %v", res.Sigma2)
	}
	if res.NObs != n-res.Order {
		t.Errorf("expected %d observations, got %d", n-res.Order, res.NObs)
	}
}

func TestARErrors(t *testing.T) {
	if _, err := AR([]float64{1, 2, 3}, 0); err == nil {
		t.Error("expected error for non-positive order")
	}
	if _, err := AR([]float64{1, 2, 3}, 2); !errors.Is(err, ports.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := FitAR([]float64{1, 2, 3, 4}, 0); err == nil {
		t.Error("expected error for non-positive maxP")
	}

	res, err := AR([]float64{4, 1, 3, 2, 5, 0, 4, 1, 3, 2}, 1)
	if err != nil {
		t.Fatalf("AR: %v", err)
	}
	if fc := res.Forecast(0); fc != nil {
		t.Errorf("expected nil forecast for h=0, got %v", fc)
	}
}
