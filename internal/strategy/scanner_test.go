package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// testScannerConfig keeps the lookbacks short so fixtures stay readable.
// Required history is max(trend 5, RSI 3+1, MACD 4+2, Bollinger 4) = 6 bars.
func testScannerConfig() ScannerConfig {
	return ScannerConfig{
		TrendMAPeriod:   5,
		RSIPeriod:       3,
		RSIOverbought:   80,
		RSIOversold:     20,
		MACDFast:        2,
		MACDSlow:        4,
		MACDSignal:      2,
		BollingerPeriod: 4,
		BollingerWidth:  2,
	}
}

func scannerBars(closes ...float64) []domain.Bar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Time:     start.AddDate(0, 0, i),
			Symbol:   "TEST",
			Interval: domain.IntervalDaily,
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			AdjClose: c,
			Volume:   1000,
		}
	}
	return bars
}

func TestNewScanner(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScannerConfig)
		logger  ports.Logger
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *ScannerConfig) {},
			logger: &mockLogger{},
		},
		{
			name:    "nil logger",
			mutate:  func(cfg *ScannerConfig) {},
			logger:  nil,
			wantErr: "logger is required",
		},
		{
			name:    "zero trend period",
			mutate:  func(cfg *ScannerConfig) { cfg.TrendMAPeriod = 0 },
			logger:  &mockLogger{},
			wantErr: "periods must be positive",
		},
		{
			name:    "zero MACD signal period",
			mutate:  func(cfg *ScannerConfig) { cfg.MACDSignal = 0 },
			logger:  &mockLogger{},
			wantErr: "MACD periods must be positive",
		},
		{
			name:    "MACD fast not below slow",
			mutate:  func(cfg *ScannerConfig) { cfg.MACDFast = 4 },
			logger:  &mockLogger{},
			wantErr: "fast period must be less than slow",
		},
		{
			name:    "inverted RSI bounds",
			mutate:  func(cfg *ScannerConfig) { cfg.RSIOversold = 90 },
			logger:  &mockLogger{},
			wantErr: "RSI bounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testScannerConfig()
			tt.mutate(&cfg)
			scanner, err := NewScanner(cfg, tt.logger)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, scanner)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, scanner)
		})
	}
}

func TestScannerRequiredDataPoints(t *testing.T) {
	scanner, err := NewScanner(testScannerConfig(), &mockLogger{})
	require.NoError(t, err)
	// MACD slow+signal dominates the other lookbacks here.
	assert.Equal(t, 6, scanner.RequiredDataPoints())
}

func TestDefaultScannerConfig(t *testing.T) {
	scanner, err := NewScanner(DefaultScannerConfig(), &mockLogger{})
	require.NoError(t, err)
	// The 200-bar trend average dominates every other lookback.
	assert.Equal(t, 200, scanner.RequiredDataPoints())
}

func TestScannerBuySignal(t *testing.T) {
	logger := &mockLogger{}
	scanner, err := NewScanner(testScannerConfig(), logger)
	require.NoError(t, err)

	// Gentle uptrend: close above the trend average and a positive MACD
	// histogram, with RSI and %B inside their neutral zones.
	bars := scannerBars(100, 101, 100, 102, 101, 103, 102, 104)
	signal, err := scanner.Scan(context.Background(), bars)
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, domain.ActionBuy, signal.Action)
	assert.Equal(t, 2.0, signal.Score)
	assert.Equal(t, "TEST", signal.Symbol)
	assert.Equal(t, bars[len(bars)-1].Time, signal.Time)
	assert.Equal(t, 104.0, signal.Price)
	assert.Len(t, signal.Reasons, 2)
	assert.NotEmpty(t, logger.infoMsgs)

	for _, key := range []string{"close", "trend_ma", "rsi", "macd_hist", "percent_b"} {
		assert.Contains(t, signal.Readings, key)
	}
	assert.Greater(t, signal.Readings["macd_hist"], 0.0)
	assert.Greater(t, signal.Price, signal.Readings["trend_ma"])
}

func TestScannerSellSignal(t *testing.T) {
	scanner, err := NewScanner(testScannerConfig(), &mockLogger{})
	require.NoError(t, err)

	// Mirror image of the buy fixture.
	bars := scannerBars(100, 99, 100, 98, 99, 97, 98, 96)
	signal, err := scanner.Scan(context.Background(), bars)
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, domain.ActionSell, signal.Action)
	assert.Equal(t, -2.0, signal.Score)
	assert.Less(t, signal.Readings["macd_hist"], 0.0)
	assert.Less(t, signal.Price, signal.Readings["trend_ma"])
}

func TestScannerHoldOnFlatSeries(t *testing.T) {
	logger := &mockLogger{}
	scanner, err := NewScanner(testScannerConfig(), logger)
	require.NoError(t, err)

	signal, err := scanner.Scan(context.Background(), scannerBars(100, 100, 100, 100, 100, 100, 100, 100))
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, domain.ActionHold, signal.Action)
	assert.Equal(t, 0.0, signal.Score)
	assert.Empty(t, signal.Reasons)
	// Collapsed bands leave the close centred between them.
	assert.Equal(t, 0.5, signal.Readings["percent_b"])
	assert.Equal(t, 50.0, signal.Readings["rsi"])
	assert.Empty(t, logger.infoMsgs)
	assert.NotEmpty(t, logger.debugMsgs)
}

func TestScannerOversoldVoteLeansAgainstSelloff(t *testing.T) {
	scanner, err := NewScanner(testScannerConfig(), &mockLogger{})
	require.NoError(t, err)

	// A relentless slide pins RSI at zero. The oversold vote cancels the
	// trend vote and the straight-line MACD histogram is exactly flat, so
	// the scanner holds.
	signal, err := scanner.Scan(context.Background(), scannerBars(100, 98, 96, 94, 92, 90, 88))
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, domain.ActionHold, signal.Action)
	assert.Equal(t, 0.0, signal.Score)
	assert.Equal(t, 0.0, signal.Readings["rsi"])

	var oversold bool
	for _, reason := range signal.Reasons {
		if strings.Contains(reason, "oversold") {
			oversold = true
		}
	}
	assert.True(t, oversold, "expected an oversold reason, got %v", signal.Reasons)
}

func TestScannerInsufficientData(t *testing.T) {
	scanner, err := NewScanner(testScannerConfig(), &mockLogger{})
	require.NoError(t, err)

	signal, err := scanner.Scan(context.Background(), scannerBars(100, 101, 102))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrInsufficientData))
	assert.Nil(t, signal)
}
