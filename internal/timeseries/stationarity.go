// Package timeseries provides the classical time-series toolkit used by the
// research commands: stationarity tests, correlograms, seasonal
// decomposition, exponential smoothing and autoregressive fitting.
package timeseries

import (
	"fmt"
	"math"

	"quantlab/internal/ports"
	"quantlab/internal/stats"
)

// Regression variants for the stationarity tests.
const (
	RegressionConstant = "c"  // constant only
	RegressionTrend    = "ct" // constant and linear trend
)

// ADFResult holds the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic      float64            // t statistic of the lagged level coefficient
	Lag            int                // lag order selected by AIC
	NObs           int                // observations used in the final regression
	CriticalValues map[string]float64 // keys "1%", "5%", "10%"
	Regression     string
	IsStationary   bool // rejection of the unit-root null at the 5% level
}

// ADF runs an augmented Dickey-Fuller unit-root test. The lag order is chosen
// by AIC over 0..maxLag fitted on a common sample; maxLag <= 0 selects the
// Schwert rule 12*(n/100)^0.25.
func ADF(x []float64, maxLag int, regression string) (*ADFResult, error) {
	if regression != RegressionConstant && regression != RegressionTrend {
		return nil, fmt.Errorf("adf: unknown regression %q", regression)
	}
	n := len(x)
	if n < 10 {
		return nil, fmt.Errorf("adf: %w: %d observations", ports.ErrInsufficientData, n)
	}
	if isConstant(x) {
		return nil, fmt.Errorf("adf: series is constant")
	}
	if maxLag <= 0 {
		maxLag = schwertLag(n)
	}
	if limit := (n - 6) / 2; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("adf: %w: %d observations", ports.ErrInsufficientData, n)
	}

	withTrend := regression == RegressionTrend

	// Lag selection on a common sample so AIC values are comparable.
	bestLag := 0
	bestAIC := math.Inf(1)
	found := false
	for p := 0; p <= maxLag; p++ {
		y, design := adfDesign(x, p, maxLag, withTrend)
		res, err := stats.OLS(y, design)
		if err != nil {
			continue
		}
		if aic := res.AIC(); aic < bestAIC {
			bestAIC = aic
			bestLag = p
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("adf: no candidate regression could be fitted")
	}

	y, design := adfDesign(x, bestLag, bestLag, withTrend)
	res, err := stats.OLS(y, design)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	result := &ADFResult{
		Statistic:      res.TStats[0],
		Lag:            bestLag,
		NObs:           res.NObs,
		CriticalValues: mackinnonCrit(regression, res.NObs),
		Regression:     regression,
	}
	result.IsStationary = result.Statistic < result.CriticalValues["5%"]
	return result, nil
}

// adfDesign builds the Dickey-Fuller regression for one lag order. The
// response is the first difference; regressors are the lagged level, lag
// lagged differences, a constant and optionally a trend. start is the first
// difference index to use, letting candidate fits share a sample.
func adfDesign(x []float64, lag, start int, withTrend bool) ([]float64, [][]float64) {
	d := diff(x)
	rows := len(d) - start
	y := make([]float64, 0, rows)
	design := make([][]float64, 0, rows)
	for j := start; j < len(d); j++ {
		row := make([]float64, 0, lag+3)
		row = append(row, x[j])
		for i := 1; i <= lag; i++ {
			row = append(row, d[j-i])
		}
		row = append(row, 1)
		if withTrend {
			row = append(row, float64(j-start+1))
		}
		design = append(design, row)
		y = append(y, d[j])
	}
	return y, design
}

// mackinnonCrit returns MacKinnon (2010) finite-sample critical values for
// the Dickey-Fuller t distribution.
func mackinnonCrit(regression string, nobs int) map[string]float64 {
	t := float64(nobs)
	if regression == RegressionTrend {
		return map[string]float64{
			"1%":  -3.95877 - 9.0531/t - 28.428/(t*t) - 134.155/(t*t*t),
			"5%":  -3.41049 - 4.3904/t - 9.036/(t*t) - 45.374/(t*t*t),
			"10%": -3.12705 - 2.5856/t - 3.925/(t*t) - 22.380/(t*t*t),
		}
	}
	return map[string]float64{
		"1%":  -3.43035 - 6.5393/t - 16.786/(t*t) - 79.433/(t*t*t),
		"5%":  -2.86154 - 2.8903/t - 4.234/(t*t) - 40.040/(t*t*t),
		"10%": -2.56677 - 1.5384/t - 2.809/(t*t),
	}
}

// KPSSResult holds the outcome of a KPSS stationarity test.
type KPSSResult struct {
	Statistic      float64
	Lag            int // Newey-West truncation lag
	NObs           int
	PValue         float64 // interpolated from the table, clamped to [0.01, 0.10]
	CriticalValues map[string]float64
	Regression     string
	IsStationary   bool // failure to reject the stationarity null at the 5% level
}

type kpssCritRow struct {
	crit float64
	p    float64
}

// Kwiatkowski et al. (1992) table 1, ordered by statistic ascending.
var (
	kpssLevelCrit = []kpssCritRow{{0.347, 0.10}, {0.463, 0.05}, {0.574, 0.025}, {0.739, 0.01}}
	kpssTrendCrit = []kpssCritRow{{0.119, 0.10}, {0.146, 0.05}, {0.176, 0.025}, {0.216, 0.01}}
)

// KPSS runs the KPSS test whose null hypothesis is stationarity around a
// level ("c") or a deterministic trend ("ct"). The long-run variance uses a
// Bartlett kernel with the Schwert truncation lag.
func KPSS(x []float64, regression string) (*KPSSResult, error) {
	if regression != RegressionConstant && regression != RegressionTrend {
		return nil, fmt.Errorf("kpss: unknown regression %q", regression)
	}
	n := len(x)
	lag := schwertLag(n)
	if n < lag+2 {
		return nil, fmt.Errorf("kpss: %w: %d observations with truncation lag %d", ports.ErrInsufficientData, n, lag)
	}
	if isConstant(x) {
		return nil, fmt.Errorf("kpss: series is constant")
	}

	var resid []float64
	if regression == RegressionConstant {
		m := stats.Mean(x)
		resid = make([]float64, n)
		for i, v := range x {
			resid[i] = v - m
		}
	} else {
		design := make([][]float64, n)
		for i := range design {
			design[i] = []float64{1, float64(i + 1)}
		}
		res, err := stats.OLS(x, design)
		if err != nil {
			return nil, fmt.Errorf("kpss: detrending: %w", err)
		}
		resid = res.Residuals
	}

	var partial, eta float64
	for _, e := range resid {
		partial += e
		eta += partial * partial
	}
	eta /= float64(n) * float64(n)

	longRun := autocovariance(resid, 0)
	for j := 1; j <= lag; j++ {
		w := 1 - float64(j)/float64(lag+1)
		longRun += 2 * w * autocovariance(resid, j)
	}
	if longRun <= 0 {
		return nil, fmt.Errorf("kpss: degenerate long-run variance")
	}

	table := kpssLevelCrit
	if regression == RegressionTrend {
		table = kpssTrendCrit
	}
	stat := eta / longRun
	result := &KPSSResult{
		Statistic:      stat,
		Lag:            lag,
		NObs:           n,
		PValue:         pValueFromTable(stat, table),
		CriticalValues: make(map[string]float64, len(table)),
		Regression:     regression,
	}
	result.CriticalValues["10%"] = table[0].crit
	result.CriticalValues["5%"] = table[1].crit
	result.CriticalValues["2.5%"] = table[2].crit
	result.CriticalValues["1%"] = table[3].crit
	result.IsStationary = result.Statistic < result.CriticalValues["5%"]
	return result, nil
}

// pValueFromTable interpolates a p-value between tabulated critical values,
// clamping to the table bounds.
func pValueFromTable(stat float64, table []kpssCritRow) float64 {
	if stat <= table[0].crit {
		return table[0].p
	}
	last := table[len(table)-1]
	if stat >= last.crit {
		return last.p
	}
	for i := 1; i < len(table); i++ {
		if stat < table[i].crit {
			lo, hi := table[i-1], table[i]
			frac := (stat - lo.crit) / (hi.crit - lo.crit)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return last.p
}

// schwertLag is the usual 12*(n/100)^0.25 truncation rule.
func schwertLag(n int) int {
	return int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
}

// autocovariance returns (1/n) sum of e_t*e_{t-j} for already-centred e.
func autocovariance(e []float64, j int) float64 {
	var s float64
	for t := j; t < len(e); t++ {
		s += e[t] * e[t-j]
	}
	return s / float64(len(e))
}

func diff(x []float64) []float64 {
	d := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		d[i-1] = x[i] - x[i-1]
	}
	return d
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
