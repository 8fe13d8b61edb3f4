// Package stats provides the descriptive statistics and regression helpers
// shared by the analysis packages.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs. Returns 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the sample variance of xs (denominator n-1).
// Returns 0 when fewer than two observations are given.
func Variance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(n-1)
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// PopulationVariance returns the population variance of xs (denominator n).
func PopulationVariance(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	mean := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(n)
}

// Skewness returns the sample skewness of xs using the population moment
// estimator g1 = m3 / m2^(3/2). Returns 0 when the variance is zero.
func Skewness(xs []float64) float64 {
	n := len(xs)
	if n < 3 {
		return 0
	}
	mean := Mean(xs)
	var m2, m3 float64
	for _, x := range xs {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(n)
	m3 /= float64(n)
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

// Kurtosis returns the excess kurtosis of xs using the population moment
// estimator g2 = m4/m2^2 - 3. Returns 0 when the variance is zero.
func Kurtosis(xs []float64) float64 {
	n := len(xs)
	if n < 4 {
		return 0
	}
	mean := Mean(xs)
	var m2, m4 float64
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m4 += d2 * d2
	}
	m2 /= float64(n)
	m4 /= float64(n)
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}

// Quantile returns the q-th quantile of xs (0 <= q <= 1) using linear
// interpolation between order statistics. The input is not modified.
func Quantile(xs []float64, q float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		q = 0
	}
	if q >= 1 {
		q = 1
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Covariance returns the sample covariance between xs and ys.
func Covariance(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("covariance: length mismatch %d vs %d", len(xs), len(ys))
	}
	n := len(xs)
	if n < 2 {
		return 0, fmt.Errorf("covariance: need at least 2 observations, got %d", n)
	}
	mx := Mean(xs)
	my := Mean(ys)
	var sum float64
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1), nil
}

// Correlation returns the Pearson correlation coefficient between xs and ys.
func Correlation(xs, ys []float64) (float64, error) {
	cov, err := Covariance(xs, ys)
	if err != nil {
		return 0, err
	}
	sx := StdDev(xs)
	sy := StdDev(ys)
	if sx == 0 || sy == 0 {
		return 0, fmt.Errorf("correlation: zero variance input")
	}
	return cov / (sx * sy), nil
}

// JarqueBera returns the Jarque-Bera normality test statistic for xs and its
// asymptotic p-value (chi-squared with 2 degrees of freedom).
func JarqueBera(xs []float64) (stat, pValue float64) {
	n := float64(len(xs))
	if n < 4 {
		return 0, 1
	}
	s := Skewness(xs)
	k := Kurtosis(xs)
	stat = n / 6 * (s*s + k*k/4)
	// Survival function of chi2(2) is exp(-x/2).
	pValue = math.Exp(-stat / 2)
	return stat, pValue
}
