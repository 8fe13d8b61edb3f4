// Package scenario loads backtest scenario definitions from YAML files.
// A scenario names the instrument, where its price history comes from, the
// strategy with its parameters, and an optional optimization grid, so that a
// backtest run is fully described by one file.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one backtest run.
type Scenario struct {
	Name        string        `yaml:"name"`
	Symbol      string        `yaml:"symbol"`
	Interval    string        `yaml:"interval"`
	Data        DataSource    `yaml:"data"`
	InitialCash float64       `yaml:"initial_cash"`
	Commission  float64       `yaml:"commission"` // per side, fraction of notional
	StopLoss    float64       `yaml:"stop_loss"`  // optional protective stop, fraction below entry
	Strategy    StrategySpec  `yaml:"strategy"`
	Optimize    *Optimization `yaml:"optimization"`
}

// DataSource locates the price history. A CSV file takes precedence; otherwise
// bars are fetched from the named provider over [from, to].
type DataSource struct {
	File     string `yaml:"file"`
	Provider string `yaml:"provider"` // "yahoo", "stooq" or "binance"
	From     string `yaml:"from"`     // YYYY-MM-DD
	To       string `yaml:"to"`
}

// StrategySpec names the strategy and its numeric parameters.
type StrategySpec struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// Optimization describes a parameter grid sweep.
type Optimization struct {
	Metric  string           `yaml:"metric"` // "equity" (default) or "blended"
	Workers int              `yaml:"workers"`
	Ranges  map[string]Range `yaml:"ranges"`
}

// Range is one parameter's sweep interval.
type Range struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
	Int  bool    `yaml:"int"` // round values to whole numbers
}

const dateLayout = "2006-01-02"

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	// Defaults
	if s.Interval == "" {
		s.Interval = "1d"
	}
	if s.InitialCash == 0 {
		s.InitialCash = 10000
	}
	if s.Optimize != nil && s.Optimize.Metric == "" {
		s.Optimize.Metric = "equity"
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the scenario is complete enough to run.
func (s *Scenario) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if s.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive")
	}
	if s.Commission < 0 || s.Commission >= 1 {
		return fmt.Errorf("commission must be in [0, 1)")
	}
	if s.StopLoss < 0 || s.StopLoss >= 1 {
		return fmt.Errorf("stop_loss must be in [0, 1)")
	}
	if s.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}

	if s.Data.File == "" {
		switch s.Data.Provider {
		case "yahoo", "stooq", "binance":
		case "":
			return fmt.Errorf("data.file or data.provider is required")
		default:
			return fmt.Errorf("data.provider must be yahoo, stooq or binance, got %q", s.Data.Provider)
		}
		if _, _, err := s.Data.Window(); err != nil {
			return err
		}
	}

	if s.Optimize != nil {
		switch s.Optimize.Metric {
		case "equity", "blended":
		default:
			return fmt.Errorf("optimization.metric must be equity or blended, got %q", s.Optimize.Metric)
		}
		if s.Optimize.Workers < 0 {
			return fmt.Errorf("optimization.workers cannot be negative")
		}
		if len(s.Optimize.Ranges) == 0 {
			return fmt.Errorf("optimization.ranges must not be empty")
		}
		for name, r := range s.Optimize.Ranges {
			if r.Step <= 0 {
				return fmt.Errorf("optimization range %q: step must be positive", name)
			}
			if r.Max < r.Min {
				return fmt.Errorf("optimization range %q: max is below min", name)
			}
		}
	}

	return nil
}

// Window parses the provider date range.
func (d DataSource) Window() (from, to time.Time, err error) {
	from, err = time.Parse(dateLayout, d.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data.from: expected YYYY-MM-DD, got %q", d.From)
	}
	to, err = time.Parse(dateLayout, d.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data.to: expected YYYY-MM-DD, got %q", d.To)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("data.to must be after data.from")
	}
	return from, to, nil
}

// RangeNames returns the optimization parameter names in sorted order so a
// sweep enumerates combinations deterministically.
func (o *Optimization) RangeNames() []string {
	names := make([]string, 0, len(o.Ranges))
	for name := range o.Ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
