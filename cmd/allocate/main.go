package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"quantlab/config"
	"quantlab/internal/adapters/logger"
	"quantlab/internal/adapters/sqlite"
	"quantlab/internal/allocation"
	"quantlab/internal/domain"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "Comma separated symbols (default: the configured watch list)")
	daysFlag := flag.Int("days", 0, "Cache window in days (default: the configured backfill window)")
	portfoliosFlag := flag.Int("portfolios", 100000, "Random portfolios to sample")
	seedFlag := flag.Int64("seed", 42, "Random seed for the frontier search")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Development)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()

	symbols := cfg.Watch.Symbols
	if *symbolsFlag != "" {
		symbols = nil
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	if len(symbols) < 2 {
		log.Fatalf("FATAL: Need at least two symbols to allocate, have %d", len(symbols))
	}

	// 3. Load aligned closes from the bar cache
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.Database.Path, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open bar cache: %v", err)
	}
	defer repo.Close()

	days := cfg.Provider.BackfillDays
	if *daysFlag > 0 {
		days = *daysFlag
	}
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	closesBySymbol := make(map[string]map[time.Time]float64, len(symbols))
	for _, symbol := range symbols {
		bars, err := repo.FindBars(ctx, symbol, cfg.Interval(), from, to)
		if err != nil {
			log.Fatalf("FATAL: Failed to read bar cache for %s: %v", symbol, err)
		}
		if len(bars) == 0 {
			log.Fatalf("FATAL: No cached bars for %s (run fetch_prices first)", symbol)
		}
		closes := make(map[time.Time]float64, len(bars))
		for _, b := range bars {
			closes[b.Time] = b.EffectiveClose()
		}
		closesBySymbol[symbol] = closes
	}

	times := alignTimes(closesBySymbol)
	if len(times) < 30 {
		log.Fatalf("FATAL: Only %d overlapping bars across %d symbols, need at least 30", len(times), len(symbols))
	}

	returnsBySymbol := make(map[string][]float64, len(symbols))
	for symbol, closes := range closesBySymbol {
		aligned := make([]float64, len(times))
		for i, t := range times {
			aligned[i] = closes[t]
		}
		returnsBySymbol[symbol] = domain.SimpleReturns(aligned)
	}

	// 4. Estimate inputs and search the frontier
	universe, err := allocation.Estimate(returnsBySymbol, cfg.Interval().BarsPerYear())
	if err != nil {
		log.Fatalf("FATAL: Failed to estimate portfolio inputs: %v", err)
	}

	frontier, err := allocation.RandomFrontier(universe, allocation.FrontierConfig{
		NumPortfolios: *portfoliosFlag,
		Seed:          *seedFlag,
		RiskFree:      cfg.Research.RiskFreeRate,
	})
	if err != nil {
		log.Fatalf("FATAL: Frontier search failed: %v", err)
	}

	equal, err := allocation.EqualWeights(len(universe.Symbols))
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	equalPoint, err := allocation.Performance(equal, universe.MeanReturns, universe.Cov, cfg.Research.RiskFreeRate)
	if err != nil {
		log.Fatalf("FATAL: Failed to evaluate the equal weight portfolio: %v", err)
	}

	// 5. Report
	fmt.Printf("Portfolio allocation: %s (%d overlapping bars, %d random portfolios, risk free %.2f%%)\n\n",
		strings.Join(universe.Symbols, ", "), len(times), len(frontier.Points), cfg.Research.RiskFreeRate*100)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	header := "Portfolio\t"
	for _, s := range universe.Symbols {
		header += s + "\t"
	}
	fmt.Fprintln(w, header+"Return\tVolatility\tSharpe\t")
	printRow(w, "Max Sharpe", frontier.MaxSharpe)
	printRow(w, "Min Volatility", frontier.MinVolatility)
	printRow(w, "Equal Weight", equalPoint)
	w.Flush()
}

// alignTimes returns the sorted timestamps present for every symbol.
func alignTimes(closesBySymbol map[string]map[time.Time]float64) []time.Time {
	var times []time.Time
	first := true
	for _, closes := range closesBySymbol {
		if first {
			for t := range closes {
				times = append(times, t)
			}
			first = false
			continue
		}
		kept := times[:0]
		for _, t := range times {
			if _, ok := closes[t]; ok {
				kept = append(kept, t)
			}
		}
		times = kept
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

func printRow(w *tabwriter.Writer, name string, p allocation.PortfolioPoint) {
	row := name + "\t"
	for _, weight := range p.Weights {
		row += fmt.Sprintf("%.1f%%\t", weight*100)
	}
	row += fmt.Sprintf("%.2f%%\t%.2f%%\t%.2f\t", p.Return*100, p.Volatility*100, p.Sharpe)
	fmt.Fprintln(w, row)
}
