package strategy

import (
	"context"
	"fmt"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
	"quantlab/internal/strategy/indicators"
)

// ScannerConfig holds parameters for the composite signal scanner.
type ScannerConfig struct {
	TrendMAPeriod   int     // e.g., 200
	RSIPeriod       int     // e.g., 14
	RSIOverbought   float64 // e.g., 70.0
	RSIOversold     float64 // e.g., 30.0
	MACDFast        int     // e.g., 12
	MACDSlow        int     // e.g., 26
	MACDSignal      int     // e.g., 9
	BollingerPeriod int     // e.g., 20
	BollingerWidth  float64 // band width in standard deviations, defaults to 2
}

// DefaultScannerConfig returns the scanner parameters used by the watch
// service: 200-bar trend filter, 14-bar RSI with 70/30 bounds, 12/26/9 MACD
// and 20-bar, two sigma Bollinger bands.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		TrendMAPeriod:   200,
		RSIPeriod:       14,
		RSIOverbought:   70,
		RSIOversold:     30,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerWidth:  2,
	}
}

// Scanner evaluates the latest bars of a symbol with four indicator rules
// and combines their votes into a buy/sell/hold signal. Trend and MACD
// votes follow the move; RSI and Bollinger votes lean against stretched
// moves.
type Scanner struct {
	cfg    ScannerConfig
	logger ports.Logger

	trendMA   *indicators.MovingAverage
	rsi       *indicators.RSI
	macd      *indicators.MACD
	bollinger *indicators.Bollinger
}

var _ ports.SignalScanner = (*Scanner)(nil)

// NewScanner creates a new Scanner instance.
func NewScanner(cfg ScannerConfig, logger ports.Logger) (*Scanner, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for scanner")
	}
	if cfg.TrendMAPeriod <= 0 || cfg.RSIPeriod <= 0 || cfg.BollingerPeriod <= 0 {
		return nil, fmt.Errorf("scanner periods must be positive")
	}
	if cfg.MACDFast <= 0 || cfg.MACDSlow <= 0 || cfg.MACDSignal <= 0 {
		return nil, fmt.Errorf("MACD periods must be positive")
	}
	if cfg.MACDFast >= cfg.MACDSlow {
		return nil, fmt.Errorf("MACD fast period must be less than slow period")
	}
	if cfg.RSIOversold <= 0 || cfg.RSIOverbought >= 100 || cfg.RSIOversold >= cfg.RSIOverbought {
		return nil, fmt.Errorf("RSI bounds must satisfy 0 < oversold < overbought < 100")
	}
	if cfg.BollingerWidth <= 0 {
		cfg.BollingerWidth = 2
	}

	return &Scanner{
		cfg:    cfg,
		logger: logger,
		trendMA: indicators.NewMovingAverage(indicators.MovingAverageConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.TrendMAPeriod},
			Type:            indicators.SimpleMovingAverage,
		}),
		rsi: indicators.NewRSI(indicators.RSIConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.RSIPeriod},
			Overbought:      cfg.RSIOverbought,
			Oversold:        cfg.RSIOversold,
		}),
		macd: indicators.NewMACD(indicators.MACDConfig{
			FastPeriod:   cfg.MACDFast,
			SlowPeriod:   cfg.MACDSlow,
			SignalPeriod: cfg.MACDSignal,
		}),
		bollinger: indicators.NewBollinger(indicators.BollingerConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.BollingerPeriod},
			NumStdDev:       cfg.BollingerWidth,
		}),
	}, nil
}

// RequiredDataPoints returns the minimum number of bars needed for the scanner calculations.
// It's the max of all indicator lookbacks; RSI looks one step further back
// than its period.
func (s *Scanner) RequiredDataPoints() int {
	required := s.cfg.TrendMAPeriod
	if s.cfg.RSIPeriod+1 > required {
		required = s.cfg.RSIPeriod + 1
	}
	if d := s.macd.RequiredDataPoints(); d > required {
		required = d
	}
	if s.cfg.BollingerPeriod > required {
		required = s.cfg.BollingerPeriod
	}
	return required
}

// Scan evaluates the bar history and returns the composite signal for the
// latest bar. A score of +2 or better is a buy, -2 or worse a sell.
func (s *Scanner) Scan(ctx context.Context, bars []domain.Bar) (*domain.Signal, error) {
	required := s.RequiredDataPoints()
	if len(bars) < required {
		return nil, fmt.Errorf("scan: %w: have %d bars, need %d", ports.ErrInsufficientData, len(bars), required)
	}

	latest := bars[len(bars)-1]
	price := latest.Close

	trendMA, err := s.trendMA.Calculate(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("trend MA: %w", err)
	}
	rsiValue, err := s.rsi.Calculate(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("RSI: %w", err)
	}
	macdValue, err := s.macd.Compute(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("MACD: %w", err)
	}
	bands, err := s.bollinger.Compute(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("Bollinger: %w", err)
	}

	// %B places the close relative to the bands: 0 at the lower band, 1 at
	// the upper. Flat windows collapse the bands, leaving the close centred.
	percentB := 0.5
	if width := bands.Upper - bands.Lower; width > 0 {
		percentB = (price - bands.Lower) / width
	}

	var score float64
	var reasons []string

	switch {
	case price > trendMA:
		score++
		reasons = append(reasons, fmt.Sprintf("close %.2f above %d-bar average %.2f", price, s.cfg.TrendMAPeriod, trendMA))
	case price < trendMA:
		score--
		reasons = append(reasons, fmt.Sprintf("close %.2f below %d-bar average %.2f", price, s.cfg.TrendMAPeriod, trendMA))
	}

	switch {
	case s.rsi.IsOversold(rsiValue):
		score++
		reasons = append(reasons, fmt.Sprintf("RSI %.1f is oversold (limit %.0f)", rsiValue, s.cfg.RSIOversold))
	case s.rsi.IsOverbought(rsiValue):
		score--
		reasons = append(reasons, fmt.Sprintf("RSI %.1f is overbought (limit %.0f)", rsiValue, s.cfg.RSIOverbought))
	}

	switch {
	case macdValue.Histogram > 0:
		score++
		reasons = append(reasons, fmt.Sprintf("MACD histogram positive (%.4f)", macdValue.Histogram))
	case macdValue.Histogram < 0:
		score--
		reasons = append(reasons, fmt.Sprintf("MACD histogram negative (%.4f)", macdValue.Histogram))
	}

	switch {
	case percentB < 0:
		score++
		reasons = append(reasons, fmt.Sprintf("close below the lower Bollinger band (%%B %.2f)", percentB))
	case percentB > 1:
		score--
		reasons = append(reasons, fmt.Sprintf("close above the upper Bollinger band (%%B %.2f)", percentB))
	}

	action := domain.ActionHold
	switch {
	case score >= 2:
		action = domain.ActionBuy
	case score <= -2:
		action = domain.ActionSell
	}

	signal := &domain.Signal{
		Symbol: latest.Symbol,
		Time:   latest.Time,
		Action: action,
		Score:  score,
		Price:  price,
		Readings: map[string]float64{
			"close":     price,
			"trend_ma":  trendMA,
			"rsi":       rsiValue,
			"macd_hist": macdValue.Histogram,
			"percent_b": percentB,
		},
		Reasons: reasons,
	}

	if action != domain.ActionHold {
		s.logger.Info(ctx, "Scan conditions met", map[string]interface{}{
			"symbol": latest.Symbol,
			"action": string(action),
			"score":  score,
			"price":  price,
		})
	} else {
		s.logger.Debug(ctx, "Scan complete", map[string]interface{}{
			"symbol": latest.Symbol,
			"score":  score,
			"price":  price,
		})
	}
	return signal, nil
}
