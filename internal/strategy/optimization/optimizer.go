package optimization

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"quantlab/internal/domain"
	"quantlab/internal/strategy/analytics"
	"quantlab/internal/strategy/backtesting"
	"quantlab/internal/strategy/strategies"
)

// ParameterRange defines a range for a parameter to optimize
type ParameterRange struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	IsInt bool
}

// StrategyFactory builds a fresh strategy instance for one parameter
// combination. Each backtest needs its own instance because strategies may
// carry indicator state.
type StrategyFactory func(params map[string]float64) (strategies.Strategy, error)

// ScoreFunction ranks one combination's performance.
type ScoreFunction func(*analytics.PerformanceMetrics) float64

// OptimizationResult holds the results of a parameter optimization
type OptimizationResult struct {
	Parameters map[string]float64
	Metrics    *analytics.PerformanceMetrics
	Score      float64
}

// OptimizerConfig holds configuration for the optimizer
type OptimizerConfig struct {
	ParameterRanges []ParameterRange
	Backtest        backtesting.BacktestConfig
	MaxWorkers      int           // concurrent backtests, defaults to runtime.NumCPU()
	ScoreFunction   ScoreFunction // defaults to ScoreByFinalEquity
}

// Optimizer implements strategy parameter optimization
type Optimizer struct {
	config OptimizerConfig
}

// NewOptimizer creates a new optimizer instance
func NewOptimizer(config OptimizerConfig) *Optimizer {
	return &Optimizer{
		config: config,
	}
}

// Optimize backtests every parameter combination in the grid, scoring each
// one, and returns the results sorted by score descending. Work is spread
// over a bounded pool of workers; cancelling the context stops dispatch.
func (o *Optimizer) Optimize(ctx context.Context, factory StrategyFactory, bars []domain.Bar) ([]OptimizationResult, error) {
	if factory == nil {
		return nil, fmt.Errorf("strategy factory is required")
	}
	for _, r := range o.config.ParameterRanges {
		if r.Step <= 0 {
			return nil, fmt.Errorf("parameter %q step must be positive, got %v", r.Name, r.Step)
		}
		if r.Max < r.Min {
			return nil, fmt.Errorf("parameter %q max %v is below min %v", r.Name, r.Max, r.Min)
		}
	}

	combinations := o.generateParameterCombinations()
	score := o.config.ScoreFunction
	if score == nil {
		score = ScoreByFinalEquity
	}
	workers := o.config.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(combinations) {
		workers = len(combinations)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan map[string]float64)
	resultChan := make(chan OptimizationResult, len(combinations))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				instance, err := factory(params)
				if err != nil {
					continue
				}
				result, err := backtesting.Backtest(ctx, instance, bars, o.config.Backtest)
				if err != nil {
					continue
				}
				metrics := analytics.AnalyzePerformance(result, o.config.Backtest.InitialCash)
				resultChan <- OptimizationResult{
					Parameters: params,
					Metrics:    metrics,
					Score:      score(metrics),
				}
			}
		}()
	}

dispatch:
	for _, params := range combinations {
		select {
		case jobs <- params:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(resultChan)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]OptimizationResult, 0, len(combinations))
	for result := range resultChan {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// generateParameterCombinations generates all possible parameter combinations
func (o *Optimizer) generateParameterCombinations() []map[string]float64 {
	var combinations []map[string]float64
	var currentCombination map[string]float64

	var generate func(int)
	generate = func(paramIndex int) {
		if paramIndex == len(o.config.ParameterRanges) {
			// Create a copy of the current combination
			combination := make(map[string]float64)
			for k, v := range currentCombination {
				combination[k] = v
			}
			combinations = append(combinations, combination)
			return
		}

		param := o.config.ParameterRanges[paramIndex]
		value := param.Min
		for value <= param.Max+param.Step/2 { // Add small epsilon to handle floating point comparison
			if param.IsInt {
				value = math.Round(value)
			}
			currentCombination[param.Name] = value
			generate(paramIndex + 1)
			value += param.Step
		}
	}

	currentCombination = make(map[string]float64)
	generate(0)
	return combinations
}

// ScoreByFinalEquity ranks combinations by the portfolio value they finish
// with, the usual optimization target.
func ScoreByFinalEquity(metrics *analytics.PerformanceMetrics) float64 {
	return metrics.FinalEquity
}

// ScoreBlended combines several ratios into a single figure for rankings
// that should not reward raw profit alone.
func ScoreBlended(metrics *analytics.PerformanceMetrics) float64 {
	score := 0.0
	score += metrics.WinRate * 0.3
	score += metrics.ProfitFactor * 0.2
	score += (1 - metrics.MaxDrawdown) * 0.2
	score += metrics.ReturnOnInvestment * 0.2
	score += metrics.RiskRewardRatio * 0.1
	return score
}
