package domain

import "math"

// SimpleReturns computes period-over-period percentage returns:
// r_t = p_t/p_{t-1} - 1. The result has len(prices)-1 entries.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}

// LogReturns computes continuously compounded returns:
// r_t = ln(p_t/p_{t-1}). The result has len(prices)-1 entries.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

// CumulativeReturn compounds a sequence of simple returns into a total return.
func CumulativeReturn(returns []float64) float64 {
	total := 1.0
	for _, r := range returns {
		total *= 1 + r
	}
	return total - 1
}

// AnnualizeReturn scales a mean per-period simple return to a yearly figure
// by compounding over periodsPerYear periods.
func AnnualizeReturn(meanReturn, periodsPerYear float64) float64 {
	return math.Pow(1+meanReturn, periodsPerYear) - 1
}

// AnnualizeVolatility scales a per-period standard deviation by the square
// root of the number of periods per year.
func AnnualizeVolatility(stdDev, periodsPerYear float64) float64 {
	return stdDev * math.Sqrt(periodsPerYear)
}
