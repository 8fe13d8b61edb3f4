package strategies

import (
	"context"
	"testing"

	"quantlab/internal/domain"
)

func TestNewRSIStrategy(t *testing.T) {
	if _, err := NewRSIStrategy(RSIStrategyConfig{}, nil); err == nil {
		t.Error("Expected error for nil logger but got none")
	}
	if _, err := NewRSIStrategy(RSIStrategyConfig{Oversold: 60, ExitLevel: 50}, &MockLogger{}); err == nil {
		t.Error("Expected error for inverted levels but got none")
	}

	strategy, err := NewRSIStrategy(RSIStrategyConfig{}, &MockLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if points := strategy.RequiredDataPoints(); points != 16 {
		t.Errorf("Expected default period 14 to require 16 data points, got %d", points)
	}
	if name := strategy.Name(); name != "RSI Mean Reversion" {
		t.Errorf("Unexpected strategy name: %s", name)
	}
}

func TestRSIStrategy_ShouldEnterTrade(t *testing.T) {
	config := RSIStrategyConfig{Period: 3, Oversold: 30, Overbought: 70, ExitLevel: 50}

	tests := []struct {
		name          string
		closes        []float64
		expectedEntry bool
	}{
		{
			// Three straight losses push RSI(3) to 0; the bounce to 95 lifts
			// it to 40, crossing back up through 30.
			name:          "RSI crosses up through oversold",
			closes:        []float64{100, 97, 94, 91, 95},
			expectedEntry: true,
		},
		{
			name:          "RSI still below oversold",
			closes:        []float64{100, 97, 94, 91, 88},
			expectedEntry: false,
		},
		{
			name:          "RSI already recovered, no fresh cross",
			closes:        []float64{100, 101, 102, 103, 104},
			expectedEntry: false,
		},
		{
			name:          "Not enough data",
			closes:        []float64{100, 97, 94},
			expectedEntry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewRSIStrategy(config, &MockLogger{})
			if err != nil {
				t.Fatalf("Failed to create strategy: %v", err)
			}

			bars := barsFromCloses(tt.closes...)
			currentPrice := tt.closes[len(tt.closes)-1]
			shouldEnter := strategy.ShouldEnterTrade(context.Background(), bars, currentPrice)
			if shouldEnter != tt.expectedEntry {
				t.Errorf("Expected entry %v, got %v", tt.expectedEntry, shouldEnter)
			}
		})
	}
}

func TestRSIStrategy_ShouldClosePosition(t *testing.T) {
	config := RSIStrategyConfig{Period: 3, Oversold: 30, Overbought: 70, ExitLevel: 50}

	tests := []struct {
		name           string
		closes         []float64
		currentPrice   float64
		position       *domain.Position
		expectedClose  bool
		expectedReason domain.CloseReason
	}{
		{
			name:           "RSI recovered past exit level",
			closes:         []float64{100, 101, 102, 103, 104},
			currentPrice:   104,
			position:       openPosition(95, 0),
			expectedClose:  true,
			expectedReason: domain.CloseReasonSignal,
		},
		{
			name:           "RSI below exit level keeps position",
			closes:         []float64{100, 97, 94, 91, 95},
			currentPrice:   95,
			position:       openPosition(91, 0),
			expectedClose:  false,
			expectedReason: "",
		},
		{
			name:           "Stop loss triggered",
			closes:         []float64{100, 97, 94, 91, 88},
			currentPrice:   88,
			position:       openPosition(95, 90),
			expectedClose:  true,
			expectedReason: domain.CloseReasonStopLoss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewRSIStrategy(config, &MockLogger{})
			if err != nil {
				t.Fatalf("Failed to create strategy: %v", err)
			}

			bars := barsFromCloses(tt.closes...)
			shouldClose, reason := strategy.ShouldClosePosition(context.Background(), tt.position, bars, tt.currentPrice)
			if shouldClose != tt.expectedClose {
				t.Errorf("Expected close %v, got %v", tt.expectedClose, shouldClose)
			}
			if reason != tt.expectedReason {
				t.Errorf("Expected reason %s, got %s", tt.expectedReason, reason)
			}
		})
	}
}
