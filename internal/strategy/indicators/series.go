package indicators

import "math"

// Rolling indicator series over raw close prices. Each function returns a
// slice aligned with the input; entries where the window is still warming up
// are NaN.

// SMASeries returns the rolling simple moving average of values.
func SMASeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMASeries returns the rolling exponential moving average of values, seeded
// with the simple average of the first window.
func EMASeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	multiplier := 2.0 / float64(period+1)

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	ema := seed
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// RSISeries returns the rolling Wilder RSI of values.
func RSISeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RollingStd returns the rolling population standard deviation of values.
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)
		var sqSum float64
		for _, v := range window {
			d := v - mean
			sqSum += d * d
		}
		out[i] = math.Sqrt(sqSum / float64(period))
	}
	return out
}

// BollingerSeries returns the rolling Bollinger Bands of values.
func BollingerSeries(values []float64, period int, numStd float64) (middle, upper, lower []float64) {
	middle = SMASeries(values, period)
	std := RollingStd(values, period)
	upper = nanSlice(len(values))
	lower = nanSlice(len(values))
	for i := range values {
		if math.IsNaN(middle[i]) {
			continue
		}
		upper[i] = middle[i] + numStd*std[i]
		lower[i] = middle[i] - numStd*std[i]
	}
	return middle, upper, lower
}

// MACDSeries returns the rolling MACD line, signal line and histogram.
func MACDSeries(values []float64, fast, slow, signal int) (macdLine, signalLine, histogram []float64) {
	n := len(values)
	macdLine = nanSlice(n)
	signalLine = nanSlice(n)
	histogram = nanSlice(n)

	emaFast := EMASeries(values, fast)
	emaSlow := EMASeries(values, slow)
	for i := 0; i < n; i++ {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			macdLine[i] = emaFast[i] - emaSlow[i]
		}
	}

	// Seed the signal line with a simple average over the first defined
	// stretch of the MACD line, then apply the EMA recursion.
	start := slow - 1
	if start < 0 || start+signal > n {
		return macdLine, signalLine, histogram
	}
	var seed float64
	for i := start; i < start+signal; i++ {
		seed += macdLine[i]
	}
	seed /= float64(signal)
	idx := start + signal - 1
	signalLine[idx] = seed
	histogram[idx] = macdLine[idx] - seed

	multiplier := 2.0 / float64(signal+1)
	sig := seed
	for i := idx + 1; i < n; i++ {
		sig = (macdLine[i]-sig)*multiplier + sig
		signalLine[i] = sig
		histogram[i] = macdLine[i] - sig
	}
	return macdLine, signalLine, histogram
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
