package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quantlab/config"
	"quantlab/internal/adapters/logger"
	"quantlab/internal/adapters/providers"
	"quantlab/internal/adapters/sqlite"
	"quantlab/internal/utils"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "Comma separated symbols to fetch (default: the configured watch list)")
	daysFlag := flag.Int("days", 0, "Days of history to fetch (default: the configured backfill window)")
	dirFlag := flag.String("dir", "data", "Directory for the CSV output")
	noCacheFlag := flag.Bool("no-cache", false, "Skip writing the fetched bars to the sqlite cache")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Development)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()

	// 3. Initialize Market Data Provider
	provider, err := providers.FromConfig(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market data provider")
		log.Fatalf("FATAL: Failed to initialize market data provider: %v", err)
	}
	appLogger.Info(ctx, "Market data provider initialized", map[string]interface{}{"provider": provider.Name()})

	// 4. Open Bar Cache
	var repo *sqlite.Repository
	if !*noCacheFlag {
		repo, err = sqlite.NewRepository(sqlite.Config{DBPath: cfg.Database.Path, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to open bar cache")
			log.Fatalf("FATAL: Failed to open bar cache: %v", err)
		}
		defer repo.Close()
	}

	symbols := cfg.Watch.Symbols
	if *symbolsFlag != "" {
		symbols = nil
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	days := cfg.Provider.BackfillDays
	if *daysFlag > 0 {
		days = *daysFlag
	}
	interval := cfg.Interval()
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	if err := os.MkdirAll(*dirFlag, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create output directory: %v", err)
	}

	// 5. Fetch, cache and export each symbol
	for _, symbol := range symbols {
		fmt.Printf("Fetching %s %s bars from %s to %s...\n",
			symbol, interval, from.Format("2006-01-02"), to.Format("2006-01-02"))
		bars, err := provider.FetchBars(ctx, symbol, interval, from, to)
		if err != nil {
			appLogger.Error(ctx, err, "Error fetching bars", map[string]interface{}{"symbol": symbol})
			log.Fatalf("Error fetching bars for %s: %v", symbol, err)
		}

		if repo != nil {
			if err := repo.SaveBars(ctx, bars); err != nil {
				appLogger.Error(ctx, err, "Error caching bars", map[string]interface{}{"symbol": symbol})
				log.Fatalf("Error caching bars for %s: %v", symbol, err)
			}
		}

		filename := filepath.Join(*dirFlag, fmt.Sprintf("%s_%s_%s_to_%s.csv",
			fileSafeSymbol(symbol), interval, from.Format("20060102"), to.Format("20060102")))
		if err := utils.WriteBarsToCSV(bars, filename); err != nil {
			appLogger.Error(ctx, err, "Error writing CSV", map[string]interface{}{"symbol": symbol, "filename": filename})
			log.Fatalf("Error writing CSV for %s: %v", symbol, err)
		}
		fmt.Printf("  %d bars saved to %s\n", len(bars), filename)
	}
}

// fileSafeSymbol makes index tickers like ^GSPC usable in file names.
func fileSafeSymbol(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '^', '/', '\\', '=':
			return '-'
		}
		return r
	}, symbol)
}
