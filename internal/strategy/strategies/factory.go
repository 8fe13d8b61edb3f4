package strategies

import (
	"fmt"
	"math"
	"sort"

	"quantlab/internal/ports"
)

// Strategy names accepted by FromParams.
const (
	NameSMA         = "sma"
	NameMACrossover = "ma_crossover"
	NameRSI         = "rsi"
	NameBollinger   = "bollinger"
)

// FromParams builds a strategy by name from a flat parameter map, the form
// scenario files and the optimizer work with. Parameters that a strategy does
// not define are ignored; missing ones fall back to the constructor defaults.
func FromParams(name string, params map[string]float64, logger ports.Logger) (Strategy, error) {
	switch name {
	case NameSMA:
		return NewSMA(SMAConfig{
			Period: intParam(params, "period", 0),
		}, logger)
	case NameMACrossover:
		return NewMACrossover(MACrossoverConfig{
			FastPeriod: intParam(params, "fast_period", 10),
			SlowPeriod: intParam(params, "slow_period", 30),
			ATRPeriod:  intParam(params, "atr_period", 0),
			ATRStop:    floatParam(params, "atr_stop", 0),
		}, logger)
	case NameRSI:
		return NewRSIStrategy(RSIStrategyConfig{
			Period:     intParam(params, "period", 0),
			Oversold:   floatParam(params, "oversold", 0),
			Overbought: floatParam(params, "overbought", 0),
			ExitLevel:  floatParam(params, "exit_level", 0),
		}, logger)
	case NameBollinger:
		return NewBollingerStrategy(BollingerStrategyConfig{
			Period:    intParam(params, "period", 0),
			NumStdDev: floatParam(params, "num_std_dev", 0),
		}, logger)
	default:
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
}

// Names lists the strategy names FromParams accepts, sorted.
func Names() []string {
	names := []string{NameSMA, NameMACrossover, NameRSI, NameBollinger}
	sort.Strings(names)
	return names
}

func intParam(params map[string]float64, key string, def int) int {
	if v, ok := params[key]; ok {
		return int(math.Round(v))
	}
	return def
}

func floatParam(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
