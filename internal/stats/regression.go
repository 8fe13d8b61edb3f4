package stats

import (
	"fmt"
	"math"
)

// OLSResult holds the output of an ordinary least squares fit.
type OLSResult struct {
	Coeffs    []float64 // estimated coefficients, one per regressor column
	StdErrs   []float64 // standard errors of the coefficients
	TStats    []float64 // t-statistics (coefficient / standard error)
	Residuals []float64
	RSS       float64 // residual sum of squares
	TSS       float64 // total sum of squares around the mean of y
	R2        float64
	NObs      int
	NVars     int
}

// LogLikelihood returns the Gaussian log-likelihood of the fit.
func (r *OLSResult) LogLikelihood() float64 {
	n := float64(r.NObs)
	if n == 0 || r.RSS <= 0 {
		return 0
	}
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(r.RSS/n) + 1)
}

// AIC returns the Akaike information criterion of the fit.
func (r *OLSResult) AIC() float64 {
	return 2*float64(r.NVars) - 2*r.LogLikelihood()
}

// OLS fits y = X*beta + e by ordinary least squares via the normal equations.
// Each row of x is one observation; include a column of ones for an intercept.
func OLS(y []float64, x [][]float64) (*OLSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, fmt.Errorf("ols: need matching y (%d) and x (%d) lengths", n, len(x))
	}
	k := len(x[0])
	if k == 0 {
		return nil, fmt.Errorf("ols: no regressors")
	}
	if n <= k {
		return nil, fmt.Errorf("ols: need more observations (%d) than regressors (%d)", n, k)
	}
	for i, row := range x {
		if len(row) != k {
			return nil, fmt.Errorf("ols: ragged design matrix at row %d", i)
		}
	}

	// Build X'X and X'y.
	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for i := 0; i < k; i++ {
		xtx[i] = make([]float64, k)
	}
	for _, row := range x {
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 1; i < k; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}
	for r, row := range x {
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[r]
		}
	}

	inv, err := invertMatrix(xtx)
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	coeffs := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coeffs[i] += inv[i][j] * xty[j]
		}
	}

	res := &OLSResult{Coeffs: coeffs, NObs: n, NVars: k}
	res.Residuals = make([]float64, n)
	meanY := Mean(y)
	for r, row := range x {
		var fitted float64
		for i := 0; i < k; i++ {
			fitted += row[i] * coeffs[i]
		}
		e := y[r] - fitted
		res.Residuals[r] = e
		res.RSS += e * e
		d := y[r] - meanY
		res.TSS += d * d
	}
	if res.TSS > 0 {
		res.R2 = 1 - res.RSS/res.TSS
	}

	sigma2 := res.RSS / float64(n-k)
	res.StdErrs = make([]float64, k)
	res.TStats = make([]float64, k)
	for i := 0; i < k; i++ {
		se := math.Sqrt(sigma2 * inv[i][i])
		res.StdErrs[i] = se
		if se > 0 {
			res.TStats[i] = coeffs[i] / se
		}
	}
	return res, nil
}

// invertMatrix inverts a square matrix by Gauss-Jordan elimination with
// partial pivoting. The input is not modified.
func invertMatrix(m [][]float64) ([][]float64, error) {
	n := len(m)
	// Augment with the identity.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, 2*n)
		copy(aug[i], m[i])
		aug[i][n+i] = 1
	}
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular matrix at column %d", col)
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]
		pv := aug[col][col]
		for j := 0; j < 2*n; j++ {
			aug[col][j] /= pv
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}
	inv := make([][]float64, n)
	for i := 0; i < n; i++ {
		inv[i] = aug[i][n:]
	}
	return inv, nil
}

// PolyFit fits a polynomial of the given degree to (x, y) by least squares and
// returns the coefficients ordered from the highest power down to the constant.
func PolyFit(x, y []float64, degree int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("polyfit: length mismatch %d vs %d", len(x), len(y))
	}
	if degree < 0 {
		return nil, fmt.Errorf("polyfit: negative degree %d", degree)
	}
	design := make([][]float64, len(x))
	for i, xv := range x {
		row := make([]float64, degree+1)
		p := 1.0
		// Columns ordered constant first; reversed below to match the
		// highest-power-first convention.
		for j := 0; j <= degree; j++ {
			row[j] = p
			p *= xv
		}
		design[i] = row
	}
	res, err := OLS(y, design)
	if err != nil {
		return nil, fmt.Errorf("polyfit: %w", err)
	}
	coeffs := make([]float64, degree+1)
	for j := 0; j <= degree; j++ {
		coeffs[degree-j] = res.Coeffs[j]
	}
	return coeffs, nil
}

// PolyVal evaluates a polynomial with coefficients ordered highest power first
// at x using Horner's method.
func PolyVal(coeffs []float64, x float64) float64 {
	var v float64
	for _, c := range coeffs {
		v = v*x + c
	}
	return v
}
