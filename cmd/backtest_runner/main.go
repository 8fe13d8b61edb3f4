package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"quantlab/config/scenario"
	"quantlab/internal/adapters/logger"
	"quantlab/internal/adapters/providers"
	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/strategy/analytics"
	"quantlab/internal/strategy/backtesting"
	"quantlab/internal/strategy/optimization"
	"quantlab/internal/strategy/strategies"
	"quantlab/internal/utils"
)

func main() {
	scenarioFlag := flag.String("scenario", "", "Path to the scenario YAML file (required)")
	optimizeFlag := flag.Bool("optimize", false, "Run the parameter grid sweep from the scenario's optimization block")
	topFlag := flag.Int("top", 10, "Leaderboard rows to print when optimizing")
	tradesFlag := flag.String("trades", "", "Optional CSV path for the executed trades")
	levelFlag := flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	if *scenarioFlag == "" {
		flag.Usage()
		log.Fatalf("FATAL: -scenario is required")
	}

	// 1. Load Scenario
	sc, err := scenario.LoadScenario(*scenarioFlag)
	if err != nil {
		log.Fatalf("FATAL: Failed to load scenario: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.ParseLevel(*levelFlag), false)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()

	// 3. Load Bars
	bars, err := loadBars(ctx, sc, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load bars")
		log.Fatalf("FATAL: Failed to load bars: %v", err)
	}
	appLogger.Info(ctx, "Bars loaded", map[string]interface{}{
		"symbol": sc.Symbol,
		"count":  len(bars),
	})

	backtestConfig := backtesting.BacktestConfig{
		Symbol:         sc.Symbol,
		InitialCash:    sc.InitialCash,
		CommissionRate: sc.Commission,
		StopLossPct:    sc.StopLoss,
	}

	// 4. Run
	if *optimizeFlag {
		if err := runSweep(ctx, sc, bars, backtestConfig, appLogger, *topFlag); err != nil {
			appLogger.Error(ctx, err, "Optimization failed")
			log.Fatalf("FATAL: Optimization failed: %v", err)
		}
		return
	}
	if err := runBacktest(ctx, sc, bars, backtestConfig, appLogger, *tradesFlag); err != nil {
		appLogger.Error(ctx, err, "Backtest failed")
		log.Fatalf("FATAL: Backtest failed: %v", err)
	}
}

// loadBars reads the scenario's data source: a CSV exported by fetch_prices,
// or a provider fetch over the scenario's date window.
func loadBars(ctx context.Context, sc *scenario.Scenario, appLogger ports.Logger) ([]domain.Bar, error) {
	if sc.Data.File != "" {
		return utils.ReadBarsFromCSV(sc.Data.File)
	}

	provider, err := providers.New(sc.Data.Provider, providers.Options{
		Logger:  appLogger,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	from, to, err := sc.Data.Window()
	if err != nil {
		return nil, err
	}
	return provider.FetchBars(ctx, sc.Symbol, domain.Interval(sc.Interval), from, to)
}

func runBacktest(ctx context.Context, sc *scenario.Scenario, bars []domain.Bar, cfg backtesting.BacktestConfig, appLogger ports.Logger, tradesFile string) error {
	strategy, err := strategies.FromParams(sc.Strategy.Name, sc.Strategy.Params, appLogger)
	if err != nil {
		return err
	}

	result, err := backtesting.Backtest(ctx, strategy, bars, cfg)
	if err != nil {
		return err
	}
	metrics := analytics.AnalyzePerformance(result, sc.InitialCash)

	title := sc.Name
	if title == "" {
		title = sc.Symbol
	}
	fmt.Printf("Backtest: %s (%s, %s, %d bars)\n\n", title, strategy.Name(), sc.Symbol, len(bars))
	fmt.Println(analytics.FormatReport(metrics))

	if tradesFile != "" {
		if err := utils.WriteTradesToCSV(result.Trades, tradesFile); err != nil {
			return fmt.Errorf("write trades: %w", err)
		}
		fmt.Printf("Trades saved to %s\n", tradesFile)
	}
	return nil
}

func runSweep(ctx context.Context, sc *scenario.Scenario, bars []domain.Bar, cfg backtesting.BacktestConfig, appLogger ports.Logger, top int) error {
	if sc.Optimize == nil {
		return fmt.Errorf("scenario %s has no optimization block", sc.Symbol)
	}

	names := sc.Optimize.RangeNames()
	ranges := make([]optimization.ParameterRange, 0, len(names))
	for _, name := range names {
		r := sc.Optimize.Ranges[name]
		ranges = append(ranges, optimization.ParameterRange{
			Name:  name,
			Min:   r.Min,
			Max:   r.Max,
			Step:  r.Step,
			IsInt: r.Int,
		})
	}

	score := optimization.ScoreByFinalEquity
	if sc.Optimize.Metric == "blended" {
		score = optimization.ScoreBlended
	}

	optimizer := optimization.NewOptimizer(optimization.OptimizerConfig{
		ParameterRanges: ranges,
		Backtest:        cfg,
		MaxWorkers:      sc.Optimize.Workers,
		ScoreFunction:   score,
	})

	// Grid values override the scenario's fixed params; anything not swept
	// keeps its scenario value.
	factory := func(params map[string]float64) (strategies.Strategy, error) {
		merged := make(map[string]float64, len(sc.Strategy.Params)+len(params))
		for k, v := range sc.Strategy.Params {
			merged[k] = v
		}
		for k, v := range params {
			merged[k] = v
		}
		return strategies.FromParams(sc.Strategy.Name, merged, appLogger)
	}

	started := time.Now()
	results, err := optimizer.Optimize(ctx, factory, bars)
	if err != nil {
		return err
	}

	fmt.Printf("Optimized %s over %d combinations in %s (metric: %s)\n\n",
		sc.Strategy.Name, len(results), time.Since(started).Round(time.Millisecond), scoreName(sc.Optimize.Metric))

	if top > len(results) {
		top = len(results)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	header := "RANK\t"
	for _, name := range names {
		header += strings.ToUpper(name) + "\t"
	}
	fmt.Fprintln(w, header+"SCORE\tFINAL EQUITY\tTRADES\tWIN RATE\tMAX DD\tSHARPE\t")
	for i, res := range results[:top] {
		row := fmt.Sprintf("%d\t", i+1)
		for _, name := range names {
			row += fmt.Sprintf("%g\t", res.Parameters[name])
		}
		row += fmt.Sprintf("%.2f\t%.2f\t%d\t%.1f%%\t%.1f%%\t%.2f\t",
			res.Score,
			res.Metrics.FinalEquity,
			res.Metrics.TotalTrades,
			res.Metrics.WinRate*100,
			res.Metrics.MaxDrawdown*100,
			res.Metrics.SharpeRatio,
		)
		fmt.Fprintln(w, row)
	}
	return w.Flush()
}

func scoreName(metric string) string {
	if metric == "" {
		return "equity"
	}
	return metric
}
