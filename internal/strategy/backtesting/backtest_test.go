package backtesting

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
)

// scriptedStrategy implements strategies.Strategy for testing, keying entries
// and exits off the current price. It honours a protective stop the way the
// real strategies do.
type scriptedStrategy struct {
	required int
	enterOn  map[float64]bool
	closeOn  map[float64]bool
}

func (s *scriptedStrategy) RequiredDataPoints() int {
	if s.required > 0 {
		return s.required
	}
	return 2
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) ShouldEnterTrade(ctx context.Context, bars []domain.Bar, currentPrice float64) bool {
	return s.enterOn[currentPrice]
}

func (s *scriptedStrategy) ShouldClosePosition(ctx context.Context, position *domain.Position, bars []domain.Bar, currentPrice float64) (bool, domain.CloseReason) {
	if position.StopLoss > 0 && currentPrice <= position.StopLoss {
		return true, domain.CloseReasonStopLoss
	}
	if s.closeOn[currentPrice] {
		return true, domain.CloseReasonSignal
	}
	return false, ""
}

func barSeries(closes ...float64) []domain.Bar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Time:     start.AddDate(0, 0, i),
			Symbol:   "TEST",
			Interval: domain.IntervalDaily,
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1000,
		}
	}
	return bars
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBacktest_RoundTripWithCommission(t *testing.T) {
	strategy := &scriptedStrategy{
		enterOn: map[float64]bool{102: true},
		closeOn: map[float64]bool{104: true},
	}
	bars := barSeries(100, 101, 102, 103, 104)
	config := BacktestConfig{
		Symbol:         "TEST",
		InitialCash:    1000,
		CommissionRate: 0.001,
	}

	result, err := Backtest(context.Background(), strategy, bars, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// All-in at 102: floor(1000 / (102*1.001)) = 9 shares, 0.918 commission in,
	// 0.936 out, PNL = 18 - 1.854 = 16.146.
	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.EntryPrice != 102 || trade.ExitPrice != 104 {
		t.Errorf("Unexpected fill prices: entry %v exit %v", trade.EntryPrice, trade.ExitPrice)
	}
	if trade.Quantity != 9 {
		t.Errorf("Expected all-in quantity 9, got %v", trade.Quantity)
	}
	if !almostEqual(trade.Commission, 1.854, 1e-9) {
		t.Errorf("Expected commission 1.854, got %v", trade.Commission)
	}
	if !almostEqual(trade.PNL, 16.146, 1e-9) {
		t.Errorf("Expected PNL 16.146, got %v", trade.PNL)
	}
	if !almostEqual(trade.GrossPNL(), 18, 1e-9) {
		t.Errorf("Expected gross PNL 18, got %v", trade.GrossPNL())
	}
	if trade.CloseReason != domain.CloseReasonSignal {
		t.Errorf("Expected close reason %s, got %s", domain.CloseReasonSignal, trade.CloseReason)
	}

	if result.WinningTrades != 1 || result.WinRate != 1 {
		t.Errorf("Expected one winning trade, got %d (win rate %v)", result.WinningTrades, result.WinRate)
	}
	if !almostEqual(result.FinalEquity, 1016.146, 1e-9) {
		t.Errorf("Expected final equity 1016.146, got %v", result.FinalEquity)
	}
	if !almostEqual(result.ReturnOnInvestment, 0.016146, 1e-9) {
		t.Errorf("Expected ROI 0.016146, got %v", result.ReturnOnInvestment)
	}
	if !almostEqual(result.TotalCommission, 1.854, 1e-9) {
		t.Errorf("Expected total commission 1.854, got %v", result.TotalCommission)
	}

	if len(result.Equity) != 3 {
		t.Fatalf("Expected 3 equity points, got %d", len(result.Equity))
	}
	if !almostEqual(result.Equity[0].Value, 999.082, 1e-9) {
		t.Errorf("Expected entry-bar equity 999.082, got %v", result.Equity[0].Value)
	}
	if len(result.TimeReturns) != 2 {
		t.Fatalf("Expected 2 time returns, got %d", len(result.TimeReturns))
	}
	wantReturn := 1008.082/999.082 - 1
	if !almostEqual(result.TimeReturns[0], wantReturn, 1e-12) {
		t.Errorf("Expected first time return %v, got %v", wantReturn, result.TimeReturns[0])
	}
	if result.SharpeRatio == 0 {
		t.Error("Expected non-zero Sharpe ratio for a rising equity curve")
	}
}

func TestBacktest_StopLossWithFixedQuantity(t *testing.T) {
	strategy := &scriptedStrategy{
		enterOn: map[float64]bool{100: true},
		closeOn: map[float64]bool{},
	}
	bars := barSeries(100, 100, 100, 94, 100)
	config := BacktestConfig{
		Symbol:      "TEST",
		InitialCash: 10000,
		Sizing:      SizeFixedQuantity,
		Quantity:    10,
		StopLossPct: 0.05,
	}

	result, err := Backtest(context.Background(), strategy, bars, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.CloseReason != domain.CloseReasonStopLoss {
		t.Errorf("Expected stop loss close, got %s", trade.CloseReason)
	}
	if !almostEqual(trade.PNL, -60, 1e-9) {
		t.Errorf("Expected PNL -60, got %v", trade.PNL)
	}
	if result.LosingTrades != 1 || result.WinRate != 0 {
		t.Errorf("Expected one losing trade, got %d (win rate %v)", result.LosingTrades, result.WinRate)
	}
	if !almostEqual(result.AverageLoss, -60, 1e-9) {
		t.Errorf("Expected average loss -60, got %v", result.AverageLoss)
	}
	if !almostEqual(result.FinalEquity, 9940, 1e-9) {
		t.Errorf("Expected final equity 9940, got %v", result.FinalEquity)
	}
	if !almostEqual(result.MaxDrawdown, 0.006, 1e-9) {
		t.Errorf("Expected max drawdown 0.006, got %v", result.MaxDrawdown)
	}
	if result.ProfitFactor != 0 {
		t.Errorf("Expected zero profit factor with no wins, got %v", result.ProfitFactor)
	}
}

func TestBacktest_LiquidateAtEnd(t *testing.T) {
	strategy := &scriptedStrategy{
		enterOn: map[float64]bool{10: true},
		closeOn: map[float64]bool{},
	}
	bars := barSeries(10, 10, 10, 12)
	config := BacktestConfig{
		Symbol:         "TEST",
		InitialCash:    1000,
		LiquidateAtEnd: true,
	}

	result, err := Backtest(context.Background(), strategy, bars, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d", result.TotalTrades)
	}
	if result.Trades[0].CloseReason != domain.CloseReasonEndOfData {
		t.Errorf("Expected end-of-data close, got %s", result.Trades[0].CloseReason)
	}
	if result.OpenPosition != nil {
		t.Error("Expected no open position after liquidation")
	}
	if !almostEqual(result.FinalEquity, 1200, 1e-9) {
		t.Errorf("Expected final equity 1200, got %v", result.FinalEquity)
	}
}

func TestBacktest_OpenPositionMarkedToMarket(t *testing.T) {
	strategy := &scriptedStrategy{
		enterOn: map[float64]bool{10: true},
		closeOn: map[float64]bool{},
	}
	bars := barSeries(10, 10, 10, 12)
	config := BacktestConfig{
		Symbol:      "TEST",
		InitialCash: 1000,
	}

	result, err := Backtest(context.Background(), strategy, bars, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.TotalTrades != 0 {
		t.Errorf("Expected no completed trades, got %d", result.TotalTrades)
	}
	if result.OpenPosition == nil {
		t.Fatal("Expected the open position to be reported")
	}
	if result.OpenPosition.Quantity != 100 {
		t.Errorf("Expected open quantity 100, got %v", result.OpenPosition.Quantity)
	}
	if !almostEqual(result.FinalEquity, 1200, 1e-9) {
		t.Errorf("Expected final equity 1200, got %v", result.FinalEquity)
	}
	if !almostEqual(result.ReturnOnInvestment, 0.2, 1e-9) {
		t.Errorf("Expected ROI 0.2, got %v", result.ReturnOnInvestment)
	}
}

func TestBacktest_NoSignalsKeepsCashFlat(t *testing.T) {
	strategy := &scriptedStrategy{enterOn: map[float64]bool{}, closeOn: map[float64]bool{}}
	bars := barSeries(100, 101, 102, 103)
	config := BacktestConfig{Symbol: "TEST", InitialCash: 1000}

	result, err := Backtest(context.Background(), strategy, bars, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.TotalTrades != 0 {
		t.Errorf("Expected no trades, got %d", result.TotalTrades)
	}
	if result.FinalEquity != 1000 {
		t.Errorf("Expected flat equity 1000, got %v", result.FinalEquity)
	}
	if result.WinRate != 0 || result.SharpeRatio != 0 || result.MaxDrawdown != 0 {
		t.Errorf("Expected zeroed ratios, got win rate %v sharpe %v drawdown %v",
			result.WinRate, result.SharpeRatio, result.MaxDrawdown)
	}
	if math.IsNaN(result.WinRate) || math.IsNaN(result.SharpeRatio) {
		t.Error("Ratios must not be NaN with zero trades")
	}
}

func TestBacktest_EntrySkippedWhenUnaffordable(t *testing.T) {
	strategy := &scriptedStrategy{
		enterOn: map[float64]bool{100: true},
		closeOn: map[float64]bool{},
	}
	bars := barSeries(100, 100, 100, 100)
	config := BacktestConfig{Symbol: "TEST", InitialCash: 50}

	result, err := Backtest(context.Background(), strategy, bars, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.TotalTrades != 0 || result.OpenPosition != nil {
		t.Error("Expected no position when cash cannot afford a single share")
	}
	if result.FinalEquity != 50 {
		t.Errorf("Expected untouched cash balance, got %v", result.FinalEquity)
	}
}

func TestBacktest_Validation(t *testing.T) {
	strategy := &scriptedStrategy{enterOn: map[float64]bool{}, closeOn: map[float64]bool{}}
	bars := barSeries(100, 101, 102)

	tests := []struct {
		name   string
		bars   []domain.Bar
		config BacktestConfig
		errIs  error
	}{
		{
			name:   "Insufficient data",
			bars:   barSeries(100, 101),
			config: BacktestConfig{InitialCash: 1000},
			errIs:  ports.ErrInsufficientData,
		},
		{
			name:   "Zero initial cash",
			bars:   bars,
			config: BacktestConfig{},
		},
		{
			name:   "Negative commission",
			bars:   bars,
			config: BacktestConfig{InitialCash: 1000, CommissionRate: -0.01},
		},
		{
			name:   "Fixed sizing without quantity",
			bars:   bars,
			config: BacktestConfig{InitialCash: 1000, Sizing: SizeFixedQuantity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Backtest(context.Background(), strategy, tt.bars, tt.config)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if tt.errIs != nil && !errors.Is(err, tt.errIs) {
				t.Errorf("Expected error to wrap %v, got %v", tt.errIs, err)
			}
		})
	}

	if _, err := Backtest(context.Background(), nil, bars, BacktestConfig{InitialCash: 1000}); err == nil {
		t.Error("Expected error for nil strategy but got none")
	}
}

func TestMaxDrawdown(t *testing.T) {
	equity := []EquityPoint{
		{Value: 100}, {Value: 120}, {Value: 90}, {Value: 110},
	}
	if dd := maxDrawdown(equity); !almostEqual(dd, 0.25, 1e-12) {
		t.Errorf("Expected max drawdown 0.25, got %v", dd)
	}
	if dd := maxDrawdown(nil); dd != 0 {
		t.Errorf("Expected zero drawdown for empty curve, got %v", dd)
	}
}

func TestTimeReturns(t *testing.T) {
	equity := []EquityPoint{{Value: 100}, {Value: 110}, {Value: 99}}
	returns := timeReturns(equity)
	if len(returns) != 2 {
		t.Fatalf("Expected 2 returns, got %d", len(returns))
	}
	if !almostEqual(returns[0], 0.1, 1e-12) || !almostEqual(returns[1], -0.1, 1e-12) {
		t.Errorf("Unexpected returns: %v", returns)
	}
	if timeReturns(equity[:1]) != nil {
		t.Error("Expected nil returns for a single equity point")
	}
}
