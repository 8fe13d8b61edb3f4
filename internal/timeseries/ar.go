package timeseries

import (
	"fmt"
	"math"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// ARResult holds a fitted autoregressive model y_t = c + phi_1*y_{t-1} + ...
// + phi_p*y_{t-p} + e_t.
type ARResult struct {
	Order     int
	Const     float64
	Coeffs    []float64 // phi_1..phi_p
	Residuals []float64
	Sigma2    float64
	AIC       float64
	NObs      int

	history []float64 // last Order observations, oldest first
}

// AR fits an autoregressive model of fixed order p by OLS.
func AR(x []float64, p int) (*ARResult, error) {
	if p < 1 {
		return nil, fmt.Errorf("ar: order must be positive, got %d", p)
	}
	if len(x) <= p+2 {
		return nil, fmt.Errorf("ar: %w: %d observations for order %d", ports.ErrInsufficientData, len(x), p)
	}
	return fitAR(x, p, p)
}

// FitAR selects the order in 1..maxP by AIC, comparing candidates on a
// common sample, then refits the winner on the full sample.
func FitAR(x []float64, maxP int) (*ARResult, error) {
	if maxP < 1 {
		return nil, fmt.Errorf("ar: maxP must be positive, got %d", maxP)
	}
	if len(x) <= maxP+2 {
		return nil, fmt.Errorf("ar: %w: %d observations for maximum order %d", ports.ErrInsufficientData, len(x), maxP)
	}

	bestOrder := 0
	bestAIC := math.Inf(1)
	for p := 1; p <= maxP; p++ {
		res, err := fitAR(x, p, maxP)
		if err != nil {
			continue
		}
		if res.AIC < bestAIC {
			bestAIC = res.AIC
			bestOrder = p
		}
	}
	if bestOrder == 0 {
		return nil, fmt.Errorf("ar: no candidate order could be fitted")
	}
	return fitAR(x, bestOrder, bestOrder)
}

// fitAR fits order p with the first usable observation at index start,
// letting order candidates share a sample for AIC comparison.
func fitAR(x []float64, p, start int) (*ARResult, error) {
	n := len(x)
	rows := n - start
	y := make([]float64, 0, rows)
	design := make([][]float64, 0, rows)
	for t := start; t < n; t++ {
		row := make([]float64, 0, p+1)
		row = append(row, 1)
		for i := 1; i <= p; i++ {
			row = append(row, x[t-i])
		}
		design = append(design, row)
		y = append(y, x[t])
	}

	res, err := stats.OLS(y, design)
	if err != nil {
		return nil, fmt.Errorf("ar: %w", err)
	}

	result := &ARResult{
		Order:     p,
		Const:     res.Coeffs[0],
		Coeffs:    res.Coeffs[1:],
		Residuals: res.Residuals,
		Sigma2:    res.RSS / float64(res.NObs),
		AIC:       res.AIC(),
		NObs:      res.NObs,
		history:   append([]float64(nil), x[n-p:]...),
	}
	return result, nil
}

// Forecast iterates the fitted recursion h steps ahead.
func (r *ARResult) Forecast(h int) []float64 {
	if h <= 0 {
		return nil
	}
	hist := append([]float64(nil), r.history...)
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		v := r.Const
		for j, phi := range r.Coeffs {
			v += phi * hist[len(hist)-1-j]
		}
		out[i] = v
		hist = append(hist, v)
	}
	return out
}
