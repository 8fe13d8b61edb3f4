package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"quantlab/config"
	"quantlab/internal/adapters/logger"
	"quantlab/internal/adapters/sqlite"
	"quantlab/internal/domain"
	"quantlab/internal/risk"
	"quantlab/internal/stats"
	"quantlab/internal/timeseries"
	"quantlab/internal/utils"
	"quantlab/internal/volatility"
)

func main() {
	symbolFlag := flag.String("symbol", "", "Symbol to analyze from the bar cache")
	fileFlag := flag.String("file", "", "Analyze a CSV exported by fetch_prices instead of the cache")
	daysFlag := flag.Int("days", 0, "Restrict the cache window to this many days (default: the configured backfill window)")
	valueFlag := flag.Float64("value", 100000, "Portfolio value for the VaR loss columns")
	lagsFlag := flag.Int("lags", 10, "Autocorrelation lags to report")
	flag.Parse()

	if *symbolFlag == "" && *fileFlag == "" {
		flag.Usage()
		log.Fatalf("FATAL: -symbol or -file is required")
	}

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

	// 3. Load Bars (CSV file or sqlite cache)
	var bars []domain.Bar
	if *fileFlag != "" {
		bars, err = utils.ReadBarsFromCSV(*fileFlag)
		if err != nil {
			log.Fatalf("FATAL: Failed to read %s: %v", *fileFlag, err)
		}
	} else {
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
		bars, err = repo.FindBars(ctx, *symbolFlag, cfg.Interval(), from, to)
		if err != nil {
			log.Fatalf("FATAL: Failed to read bar cache: %v", err)
		}
	}
	if len(bars) < 30 {
		log.Fatalf("FATAL: Need at least 30 bars to analyze, have %d (run fetch_prices first)", len(bars))
	}

	symbol := bars[0].Symbol
	interval := bars[0].Interval
	perYear := interval.BarsPerYear()
	closes := domain.Series(bars).Closes()
	simple := domain.SimpleReturns(closes)
	logRet := domain.LogReturns(closes)

	fmt.Printf("Price analysis: %s (%s, %d bars, %s to %s)\n\n",
		symbol, interval, len(bars),
		bars[0].Time.Format("2006-01-02"), bars[len(bars)-1].Time.Format("2006-01-02"))

	printReturnStats(simple, perYear)
	printOutliers(simple)
	printStationarity(closes, logRet, *lagsFlag)
	printVolatility(logRet, perYear)
	printRisk(simple, *valueFlag)
}

func printReturnStats(returns []float64, perYear float64) {
	mean := stats.Mean(returns)
	sd := stats.StdDev(returns)
	jb, pValue := stats.JarqueBera(returns)

	fmt.Println("Return distribution")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Observations\t%d\t\n", len(returns))
	fmt.Fprintf(w, "Mean (per bar)\t%.4f%%\t\n", mean*100)
	fmt.Fprintf(w, "Std dev (per bar)\t%.4f%%\t\n", sd*100)
	fmt.Fprintf(w, "Annualized return\t%.2f%%\t\n", domain.AnnualizeReturn(mean, perYear)*100)
	fmt.Fprintf(w, "Annualized volatility\t%.2f%%\t\n", domain.AnnualizeVolatility(sd, perYear)*100)
	fmt.Fprintf(w, "Cumulative return\t%.2f%%\t\n", domain.CumulativeReturn(returns)*100)
	fmt.Fprintf(w, "Skewness\t%.3f\t\n", stats.Skewness(returns))
	fmt.Fprintf(w, "Excess kurtosis\t%.3f\t\n", stats.Kurtosis(returns))
	fmt.Fprintf(w, "Jarque-Bera\t%.2f (p=%.3f)\t\n", jb, pValue)
	w.Flush()
	if pValue < 0.05 {
		fmt.Println("Normality rejected at the 5% level.")
	} else {
		fmt.Println("Normality not rejected at the 5% level.")
	}
	fmt.Println()
}

func printOutliers(returns []float64) {
	const window, nSigma = 21, 3.0
	flags := domain.FlagOutliers(returns, window, nSigma)
	count := 0
	for _, f := range flags {
		if f {
			count++
		}
	}
	fmt.Printf("Outliers: %d of %d returns beyond %.0f sigma of the %d-bar rolling window\n\n",
		count, len(returns), nSigma, window)
}

func printStationarity(closes, logRet []float64, lags int) {
	fmt.Println("Stationarity")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Series\tTest\tStatistic\t5% critical\tVerdict\t")
	printADFRow(w, "prices", closes)
	printADFRow(w, "log returns", logRet)
	printKPSSRow(w, "prices", closes)
	printKPSSRow(w, "log returns", logRet)
	w.Flush()

	acf, err := timeseries.ACF(logRet, lags)
	if err != nil {
		fmt.Printf("ACF unavailable: %v\n\n", err)
		return
	}
	bound, err := timeseries.ConfBound(len(logRet), 0.05)
	if err != nil {
		fmt.Printf("ACF bound unavailable: %v\n\n", err)
		return
	}
	significant := 0
	for _, r := range acf[1:] {
		if math.Abs(r) > bound {
			significant++
		}
	}
	fmt.Printf("Return ACF: %d of %d lags outside the 95%% band (+/-%.3f); lag-1 %.3f\n\n",
		significant, lags, bound, acf[1])
}

func printADFRow(w *tabwriter.Writer, name string, series []float64) {
	res, err := timeseries.ADF(series, 0, timeseries.RegressionConstant)
	if err != nil {
		fmt.Fprintf(w, "%s\tADF\terror: %v\t\t\t\n", name, err)
		return
	}
	fmt.Fprintf(w, "%s\tADF\t%.3f\t%.3f\t%s\t\n",
		name, res.Statistic, res.CriticalValues["5%"], verdict(res.IsStationary))
}

func printKPSSRow(w *tabwriter.Writer, name string, series []float64) {
	res, err := timeseries.KPSS(series, timeseries.RegressionConstant)
	if err != nil {
		fmt.Fprintf(w, "%s\tKPSS\terror: %v\t\t\t\n", name, err)
		return
	}
	fmt.Fprintf(w, "%s\tKPSS\t%.3f\t%.3f\t%s\t\n",
		name, res.Statistic, res.CriticalValues["5%"], verdict(res.IsStationary))
}

func verdict(stationary bool) string {
	if stationary {
		return "stationary"
	}
	return "non-stationary"
}

func printVolatility(logRet []float64, perYear float64) {
	fmt.Println("Volatility")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)

	if full, err := volatility.RealizedFull(logRet, perYear); err == nil {
		fmt.Fprintf(w, "Realized (annualized)\t%.2f%%\t\n", full*100)
	}
	if ewma, err := volatility.EWMA(logRet, volatility.DefaultLambda); err == nil {
		fmt.Fprintf(w, "EWMA forecast (lambda %.2f)\t%.2f%%\t\n",
			ewma.Lambda, ewma.Forecast*math.Sqrt(perYear)*100)
	}

	garch, err := volatility.FitGARCH(logRet)
	if err != nil {
		w.Flush()
		fmt.Printf("GARCH fit unavailable: %v\n\n", err)
		return
	}
	fmt.Fprintf(w, "GARCH(1,1) omega\t%.3e\t\n", garch.Omega)
	fmt.Fprintf(w, "GARCH(1,1) alpha\t%.4f\t\n", garch.Alpha)
	fmt.Fprintf(w, "GARCH(1,1) beta\t%.4f\t\n", garch.Beta)
	fmt.Fprintf(w, "GARCH(1,1) persistence\t%.4f\t\n", garch.Persistence)
	fmt.Fprintf(w, "GARCH long-run vol (annualized)\t%.2f%%\t\n", garch.LongRunVol*math.Sqrt(perYear)*100)
	if next := garch.Forecast(1); len(next) == 1 {
		fmt.Fprintf(w, "GARCH 1-step vol (annualized)\t%.2f%%\t\n", next[0]*math.Sqrt(perYear)*100)
	}
	w.Flush()
	fmt.Println()
}

func printRisk(returns []float64, portfolioValue float64) {
	fmt.Printf("Value at risk (portfolio %.0f)\n", portfolioValue)
	var estimates []risk.Estimate
	for _, confidence := range []float64{0.95, 0.99} {
		if est, err := risk.HistoricalVaR(returns, confidence); err == nil {
			estimates = append(estimates, est)
		}
		if est, err := risk.ParametricVaR(returns, confidence); err == nil {
			estimates = append(estimates, est)
		}
	}
	if len(estimates) == 0 {
		fmt.Println("No estimates available.")
		return
	}
	fmt.Print(risk.Report(portfolioValue, estimates...))
}
