package backtesting

import (
	"context"
	"fmt"
	"math"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/stats"
	"quantlab/internal/strategy/strategies"
)

// SizingMode controls how entries are sized.
type SizingMode string

const (
	// SizeAllIn buys as many whole shares as the cash balance affords,
	// commission included.
	SizeAllIn SizingMode = "all_in"
	// SizeFixedQuantity buys a fixed quantity on every entry.
	SizeFixedQuantity SizingMode = "fixed"
)

// BacktestConfig holds configuration for backtesting
type BacktestConfig struct {
	Symbol         string
	InitialCash    float64
	CommissionRate float64    // commission per side as a fraction of notional (e.g., 0.001)
	Sizing         SizingMode // defaults to SizeAllIn
	Quantity       float64    // entry size when Sizing is SizeFixedQuantity
	StopLossPct    float64    // optional protective stop below entry (e.g., 0.05 for 5%), 0 disables
	LiquidateAtEnd bool       // close any open position on the last bar instead of marking to market
}

// EquityPoint is the portfolio value observed at the close of one bar.
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// BacktestResult holds the results of a backtest
type BacktestResult struct {
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
	Trades               []*domain.Trade
	Equity               []EquityPoint // portfolio value at each evaluated bar
	TimeReturns          []float64     // per-bar returns of the equity curve
	OpenPosition         *domain.Position
}

// Backtest runs a backtest for a given strategy over a chronological bar
// series. Fills happen at the close of the signal bar; commission is charged
// on both sides of every trade. Bars are assumed sorted by time, which is
// what providers and repositories return.
func Backtest(ctx context.Context, strategy strategies.Strategy, bars []domain.Bar, config BacktestConfig) (*BacktestResult, error) {
	if strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if config.InitialCash <= 0 {
		return nil, fmt.Errorf("initial cash must be positive, got %v", config.InitialCash)
	}
	if config.CommissionRate < 0 {
		return nil, fmt.Errorf("commission rate must not be negative, got %v", config.CommissionRate)
	}
	if config.Sizing == "" {
		config.Sizing = SizeAllIn
	}
	if config.Sizing == SizeFixedQuantity && config.Quantity <= 0 {
		return nil, fmt.Errorf("fixed quantity sizing requires a positive quantity, got %v", config.Quantity)
	}
	warmup := strategy.RequiredDataPoints()
	if len(bars) <= warmup {
		return nil, fmt.Errorf("%w: %d bars with %d required for warmup", ports.ErrInsufficientData, len(bars), warmup)
	}

	result := &BacktestResult{}
	cash := config.InitialCash
	var position *domain.Position
	var tradeSeq int64
	var grossWins, grossLosses float64

	for i := warmup; i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bar := bars[i]
		price := bar.Close
		history := bars[:i+1]
		lastBar := i == len(bars)-1

		if position != nil {
			shouldClose, reason := strategy.ShouldClosePosition(ctx, position, history, price)
			if !shouldClose && lastBar && config.LiquidateAtEnd {
				shouldClose, reason = true, domain.CloseReasonEndOfData
			}
			if shouldClose {
				exitCommission := price * position.Quantity * config.CommissionRate
				cash += position.MarketValue(price) - exitCommission

				commission := position.EntryCommission + exitCommission
				pnl := (price-position.EntryPrice)*position.Quantity - commission
				tradeSeq++
				trade := &domain.Trade{
					ID:          tradeSeq,
					Symbol:      config.Symbol,
					EntryPrice:  position.EntryPrice,
					ExitPrice:   price,
					Quantity:    position.Quantity,
					Commission:  commission,
					PNL:         pnl,
					EntryTime:   position.EntryTime,
					ExitTime:    bar.Time,
					CloseReason: reason,
				}
				result.Trades = append(result.Trades, trade)
				result.TotalProfit += pnl
				result.TotalCommission += commission
				if pnl > 0 {
					result.WinningTrades++
					grossWins += pnl
				} else {
					result.LosingTrades++
					grossLosses += -pnl
				}
				position = nil
			}
		}

		if position == nil && !lastBar && strategy.ShouldEnterTrade(ctx, history, price) {
			quantity := entryQuantity(config, cash, price)
			if quantity > 0 {
				entryCommission := quantity * price * config.CommissionRate
				cash -= quantity*price + entryCommission

				stopLoss := 0.0
				if config.StopLossPct > 0 {
					stopLoss = price * (1 - config.StopLossPct)
				}
				position = &domain.Position{
					Symbol:          config.Symbol,
					EntryPrice:      price,
					Quantity:        quantity,
					EntryCommission: entryCommission,
					StopLoss:        stopLoss,
					EntryTime:       bar.Time,
					Status:          domain.StatusOpen,
				}
			}
		}

		equity := cash
		if position != nil {
			equity += position.MarketValue(price)
		}
		result.Equity = append(result.Equity, EquityPoint{Time: bar.Time, Value: equity})
	}

	result.OpenPosition = position
	result.FinalEquity = result.Equity[len(result.Equity)-1].Value
	result.ReturnOnInvestment = result.FinalEquity/config.InitialCash - 1
	result.TotalTrades = len(result.Trades)
	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades)
	}
	if result.WinningTrades > 0 {
		result.AverageWin = grossWins / float64(result.WinningTrades)
	}
	if result.LosingTrades > 0 {
		result.AverageLoss = -grossLosses / float64(result.LosingTrades)
	}
	if grossLosses > 0 {
		result.ProfitFactor = grossWins / grossLosses
	}
	result.MaxDrawdown = maxDrawdown(result.Equity)
	result.TimeReturns = timeReturns(result.Equity)

	barsPerYear := domain.IntervalDaily.BarsPerYear()
	if len(bars) > 0 && bars[0].Interval != "" {
		barsPerYear = bars[0].Interval.BarsPerYear()
	}
	fillRatios(result, barsPerYear)

	return result, nil
}

// entryQuantity sizes an entry so cash cannot go negative.
func entryQuantity(config BacktestConfig, cash, price float64) float64 {
	switch config.Sizing {
	case SizeFixedQuantity:
		cost := config.Quantity * price * (1 + config.CommissionRate)
		if cost > cash {
			return 0
		}
		return config.Quantity
	default:
		// Whole shares only, mirroring int(cash/price) sizing.
		quantity := math.Floor(cash / (price * (1 + config.CommissionRate)))
		if quantity < 1 {
			return 0
		}
		return quantity
	}
}

// timeReturns converts the equity curve into per-bar simple returns.
func timeReturns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	return returns
}

// maxDrawdown returns the largest peak-to-trough decline of the equity curve
// as a fraction of the peak.
func maxDrawdown(equity []EquityPoint) float64 {
	var peak, maxDD float64
	for _, point := range equity {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			dd := (peak - point.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// fillRatios computes the annualized figures from the per-bar equity returns.
func fillRatios(result *BacktestResult, barsPerYear float64) {
	n := len(result.TimeReturns)
	if n < 2 {
		return
	}
	mean := stats.Mean(result.TimeReturns)
	std := stats.StdDev(result.TimeReturns)
	if std == 0 {
		return
	}
	result.AnnualizedVolatility = std * math.Sqrt(barsPerYear)
	growth := result.Equity[len(result.Equity)-1].Value / result.Equity[0].Value
	if growth > 0 {
		result.AnnualizedReturn = math.Pow(growth, barsPerYear/float64(n)) - 1
	}
	result.SharpeRatio = mean / std * math.Sqrt(barsPerYear)
}
