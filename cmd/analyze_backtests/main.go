package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"quantlab/internal/domain"
	"quantlab/internal/utils"
)

// Compares trade CSVs exported by backtest_runner -trades: one summary row
// per file, then a close-reason breakdown. Pass files as arguments or let it
// scan a directory.
func main() {
	dirFlag := flag.String("dir", "data", "Directory to scan when no files are given")
	prefixFlag := flag.String("prefix", "trades", "File name prefix to match when scanning")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		var err error
		files, err = findTradeFiles(*dirFlag, *prefixFlag)
		if err != nil {
			log.Fatalf("Error finding trade files: %v", err)
		}
	}
	if len(files) == 0 {
		log.Println("No trade files found. Run backtest_runner with -trades first.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "File\tTrades\tWin Rate\tAvg Win\tAvg Loss\tProfit Factor\tTotal PnL\tCommission\t")

	tradesByFile := make(map[string][]*domain.Trade, len(files))
	for _, file := range files {
		trades, err := utils.ReadTradesFromCSV(file)
		if err != nil {
			log.Printf("Error reading trades from %s: %v", file, err)
			continue
		}
		tradesByFile[file] = trades

		stats := calculateTradeStats(trades)
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			filepath.Base(file),
			stats.TotalTrades,
			stats.WinRate*100,
			stats.AvgWin,
			stats.AvgLoss,
			stats.ProfitFactor,
			stats.TotalPnL,
			stats.Commission,
		)
	}
	w.Flush()

	for _, file := range files {
		trades, ok := tradesByFile[file]
		if !ok {
			continue
		}
		printCloseReasons(file, trades)
	}
}

// TradeStats holds statistics about a set of trades.
type TradeStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AvgWin        float64
	AvgLoss       float64
	ProfitFactor  float64
	TotalPnL      float64
	Commission    float64
}

func calculateTradeStats(trades []*domain.Trade) TradeStats {
	var stats TradeStats
	stats.TotalTrades = len(trades)
	if stats.TotalTrades == 0 {
		return stats
	}

	var winningPnL, losingPnL float64
	for _, trade := range trades {
		stats.TotalPnL += trade.PNL
		stats.Commission += trade.Commission
		if trade.PNL > 0 {
			stats.WinningTrades++
			winningPnL += trade.PNL
		} else {
			stats.LosingTrades++
			losingPnL += trade.PNL
		}
	}

	if stats.WinningTrades > 0 {
		stats.AvgWin = winningPnL / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = losingPnL / float64(stats.LosingTrades)
	}
	if losingPnL != 0 {
		stats.ProfitFactor = winningPnL / -losingPnL
	}
	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	return stats
}

func findTradeFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func printCloseReasons(file string, trades []*domain.Trade) {
	counts := make(map[domain.CloseReason]int)
	pnl := make(map[domain.CloseReason]float64)
	for _, trade := range trades {
		counts[trade.CloseReason]++
		pnl[trade.CloseReason] += trade.PNL
	}

	reasons := make([]domain.CloseReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	fmt.Printf("\n%s close reasons\n", filepath.Base(file))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Reason\tCount\tTotal PnL\tAvg PnL\t")
	for _, reason := range reasons {
		count := counts[reason]
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t\n", reason, count, pnl[reason], pnl[reason]/float64(count))
	}
	w.Flush()
}
