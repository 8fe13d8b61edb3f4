package analytics

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/strategy/backtesting"
)

// PerformanceMetrics holds comprehensive performance metrics for a strategy
type PerformanceMetrics struct {
	// Basic Metrics
	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	WinRate              float64
	TotalProfit          float64
	TotalCommission      float64
	MaxDrawdown          float64
	ProfitFactor         float64
	AverageWin           float64
	AverageLoss          float64
	SharpeRatio          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	FinalEquity          float64
	ReturnOnInvestment   float64

	// Advanced Metrics
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageTradeDuration time.Duration
	RecoveryFactor       float64
	Expectancy           float64
	RiskRewardRatio      float64
	MonthlyReturns       map[string]float64
	CloseReasons         map[domain.CloseReason]int
	Drawdowns            []Drawdown
}

// Drawdown represents a drawdown period
type Drawdown struct {
	StartTime  time.Time
	EndTime    time.Time
	StartValue float64
	EndValue   float64
	Depth      float64
	Duration   time.Duration
}

// AnalyzePerformance derives comprehensive performance metrics from a
// backtest result. Ratio figures (Sharpe, annualized return and volatility,
// max drawdown) come from the engine's per-bar equity curve; the trade list
// contributes the win/loss, streak and duration statistics.
func AnalyzePerformance(result *backtesting.BacktestResult, initialBalance float64) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		MonthlyReturns: make(map[string]float64),
		CloseReasons:   make(map[domain.CloseReason]int),
		Drawdowns:      make([]Drawdown, 0),
	}
	if result == nil {
		return metrics
	}

	metrics.TotalTrades = result.TotalTrades
	metrics.WinningTrades = result.WinningTrades
	metrics.LosingTrades = result.LosingTrades
	metrics.WinRate = result.WinRate
	metrics.TotalProfit = result.TotalProfit
	metrics.TotalCommission = result.TotalCommission
	metrics.MaxDrawdown = result.MaxDrawdown
	metrics.ProfitFactor = result.ProfitFactor
	metrics.AverageWin = result.AverageWin
	metrics.AverageLoss = result.AverageLoss
	metrics.SharpeRatio = result.SharpeRatio
	metrics.AnnualizedReturn = result.AnnualizedReturn
	metrics.AnnualizedVolatility = result.AnnualizedVolatility
	metrics.FinalEquity = result.FinalEquity
	metrics.ReturnOnInvestment = result.ReturnOnInvestment

	var consecutiveWins, consecutiveLosses int
	var totalDuration time.Duration
	for _, trade := range result.Trades {
		if trade.PNL > 0 {
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			consecutiveLosses++
			consecutiveWins = 0
		}
		if consecutiveWins > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = consecutiveLosses
		}

		totalDuration += trade.ExitTime.Sub(trade.EntryTime)
		metrics.MonthlyReturns[trade.ExitTime.Format("2006-01")] += trade.PNL
		metrics.CloseReasons[trade.CloseReason]++
	}

	if metrics.TotalTrades > 0 {
		metrics.AverageTradeDuration = totalDuration / time.Duration(metrics.TotalTrades)
		metrics.Expectancy = (metrics.WinRate * metrics.AverageWin) + ((1 - metrics.WinRate) * metrics.AverageLoss)
		if metrics.AverageLoss != 0 {
			metrics.RiskRewardRatio = metrics.AverageWin / -metrics.AverageLoss
		}
		if metrics.MaxDrawdown > 0 && initialBalance > 0 {
			metrics.RecoveryFactor = metrics.TotalProfit / (initialBalance * metrics.MaxDrawdown)
		}
	}

	metrics.Drawdowns = drawdownPeriods(result.Equity)

	return metrics
}

// drawdownPeriods extracts every peak-to-recovery stretch from the equity
// curve. A period that never recovers runs to the last observation.
func drawdownPeriods(equity []backtesting.EquityPoint) []Drawdown {
	periods := make([]Drawdown, 0)
	if len(equity) == 0 {
		return periods
	}

	peak := equity[0]
	var current *Drawdown
	for _, point := range equity[1:] {
		if point.Value >= peak.Value {
			if current != nil {
				current.EndTime = point.Time
				current.EndValue = point.Value
				current.Duration = current.EndTime.Sub(current.StartTime)
				periods = append(periods, *current)
				current = nil
			}
			peak = point
			continue
		}

		depth := (peak.Value - point.Value) / peak.Value
		if current == nil {
			current = &Drawdown{
				StartTime:  peak.Time,
				StartValue: peak.Value,
				Depth:      depth,
			}
		} else if depth > current.Depth {
			current.Depth = depth
		}
	}

	if current != nil {
		last := equity[len(equity)-1]
		current.EndTime = last.Time
		current.EndValue = last.Value
		current.Duration = current.EndTime.Sub(current.StartTime)
		periods = append(periods, *current)
	}
	return periods
}

// MonthlyReturn represents a monthly return value
type MonthlyReturn struct {
	Month  time.Time
	Return float64
}

// GetMonthlyReturns returns the monthly returns as a sorted slice
func (m *PerformanceMetrics) GetMonthlyReturns() []MonthlyReturn {
	returns := make([]MonthlyReturn, 0, len(m.MonthlyReturns))
	for month, profit := range m.MonthlyReturns {
		date, _ := time.Parse("2006-01", month)
		returns = append(returns, MonthlyReturn{
			Month:  date,
			Return: profit,
		})
	}
	sort.Slice(returns, func(i, j int) bool {
		return returns[i].Month.Before(returns[j].Month)
	})
	return returns
}

// FormatReport renders the metrics as an aligned text table.
func FormatReport(m *PerformanceMetrics) string {
	var sb strings.Builder

	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Metric\tValue\t")
	fmt.Fprintf(w, "Total Trades\t%d\t\n", m.TotalTrades)
	fmt.Fprintf(w, "Win Rate\t%.2f%%\t\n", m.WinRate*100)
	fmt.Fprintf(w, "Total Profit\t%.2f\t\n", m.TotalProfit)
	fmt.Fprintf(w, "Total Commission\t%.2f\t\n", m.TotalCommission)
	fmt.Fprintf(w, "Final Equity\t%.2f\t\n", m.FinalEquity)
	fmt.Fprintf(w, "Return\t%.2f%%\t\n", m.ReturnOnInvestment*100)
	fmt.Fprintf(w, "Annualized Return\t%.2f%%\t\n", m.AnnualizedReturn*100)
	fmt.Fprintf(w, "Annualized Volatility\t%.2f%%\t\n", m.AnnualizedVolatility*100)
	fmt.Fprintf(w, "Sharpe Ratio\t%.2f\t\n", m.SharpeRatio)
	fmt.Fprintf(w, "Max Drawdown\t%.2f%%\t\n", m.MaxDrawdown*100)
	fmt.Fprintf(w, "Profit Factor\t%.2f\t\n", m.ProfitFactor)
	fmt.Fprintf(w, "Average Win\t%.2f\t\n", m.AverageWin)
	fmt.Fprintf(w, "Average Loss\t%.2f\t\n", m.AverageLoss)
	fmt.Fprintf(w, "Expectancy\t%.2f\t\n", m.Expectancy)
	fmt.Fprintf(w, "Risk/Reward\t%.2f\t\n", m.RiskRewardRatio)
	fmt.Fprintf(w, "Max Consecutive Wins\t%d\t\n", m.MaxConsecutiveWins)
	fmt.Fprintf(w, "Max Consecutive Losses\t%d\t\n", m.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Average Trade Duration\t%s\t\n", m.AverageTradeDuration)
	w.Flush()

	if len(m.CloseReasons) > 0 {
		sb.WriteString("\nClose Reasons\n")
		reasons := make([]domain.CloseReason, 0, len(m.CloseReasons))
		for reason := range m.CloseReasons {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, reason := range reasons {
			fmt.Fprintf(&sb, "  %s: %d\n", reason, m.CloseReasons[reason])
		}
	}

	if monthly := m.GetMonthlyReturns(); len(monthly) > 0 {
		sb.WriteString("\nMonthly PnL\n")
		for _, mr := range monthly {
			fmt.Fprintf(&sb, "  %s: %.2f\n", mr.Month.Format("2006-01"), mr.Return)
		}
	}

	return sb.String()
}
