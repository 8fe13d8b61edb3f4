package strategies

import (
	"context"
	"testing"

	"quantlab/internal/domain"
)

func TestNewBollingerStrategy(t *testing.T) {
	if _, err := NewBollingerStrategy(BollingerStrategyConfig{}, nil); err == nil {
		t.Error("Expected error for nil logger but got none")
	}
	if _, err := NewBollingerStrategy(BollingerStrategyConfig{Period: -5}, &MockLogger{}); err == nil {
		t.Error("Expected error for negative period but got none")
	}

	strategy, err := NewBollingerStrategy(BollingerStrategyConfig{}, &MockLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if points := strategy.RequiredDataPoints(); points != 21 {
		t.Errorf("Expected default period 20 to require 21 data points, got %d", points)
	}
	if name := strategy.Name(); name != "Bollinger Bands" {
		t.Errorf("Unexpected strategy name: %s", name)
	}
}

func TestBollingerStrategy_ShouldEnterTrade(t *testing.T) {
	config := BollingerStrategyConfig{Period: 4, NumStdDev: 1.5}

	tests := []struct {
		name          string
		closes        []float64
		expectedEntry bool
	}{
		{
			// Previous window [10,10,10,6]: mean 9, std 1.732, lower band
			// 6.40. The dip to 6 pierced it and the close back at 10 is a
			// cross up through the band.
			name:          "Close crosses up through lower band",
			closes:        []float64{10, 10, 10, 10, 6, 10},
			expectedEntry: true,
		},
		{
			name:          "Steady decline stays inside the bands",
			closes:        []float64{10, 9, 8, 7, 6, 5},
			expectedEntry: false,
		},
		{
			name:          "Flat series never pierces the bands",
			closes:        []float64{10, 10, 10, 10, 10, 10},
			expectedEntry: false,
		},
		{
			name:          "Not enough data",
			closes:        []float64{10, 6, 10},
			expectedEntry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewBollingerStrategy(config, &MockLogger{})
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

func TestBollingerStrategy_ShouldClosePosition(t *testing.T) {
	config := BollingerStrategyConfig{Period: 4, NumStdDev: 1.5}

	tests := []struct {
		name           string
		closes         []float64
		currentPrice   float64
		position       *domain.Position
		expectedClose  bool
		expectedReason domain.CloseReason
	}{
		{
			// Mirror of the entry case: spike to 14 pierced the upper band
			// (13.60 on the previous window) and the fall back to 10 is a
			// cross down through it.
			name:           "Close crosses down through upper band",
			closes:         []float64{10, 10, 10, 10, 14, 10},
			currentPrice:   10,
			position:       openPosition(9, 0),
			expectedClose:  true,
			expectedReason: domain.CloseReasonSignal,
		},
		{
			name:           "Flat series keeps position",
			closes:         []float64{10, 10, 10, 10, 10, 10},
			currentPrice:   10,
			position:       openPosition(9, 0),
			expectedClose:  false,
			expectedReason: "",
		},
		{
			name:           "Stop loss triggered",
			closes:         []float64{10, 10, 10, 10, 10, 8},
			currentPrice:   8,
			position:       openPosition(10, 8.5),
			expectedClose:  true,
			expectedReason: domain.CloseReasonStopLoss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewBollingerStrategy(config, &MockLogger{})
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
