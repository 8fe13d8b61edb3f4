package strategies

import (
	"context"
	"testing"

	"quantlab/internal/domain"
)

func TestNewSMA(t *testing.T) {
	if _, err := NewSMA(SMAConfig{Period: 20}, nil); err == nil {
		t.Error("Expected error for nil logger but got none")
	}
	if _, err := NewSMA(SMAConfig{Period: -1}, &MockLogger{}); err == nil {
		t.Error("Expected error for negative period but got none")
	}

	strategy, err := NewSMA(SMAConfig{}, &MockLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if points := strategy.RequiredDataPoints(); points != 21 {
		t.Errorf("Expected default period 20 to require 21 data points, got %d", points)
	}
	if name := strategy.Name(); name != "SMA Trend" {
		t.Errorf("Unexpected strategy name: %s", name)
	}
}

func TestSMAStrategy_ShouldEnterTrade(t *testing.T) {
	tests := []struct {
		name          string
		closes        []float64
		expectedEntry bool
	}{
		{
			// SMA(3) = (10+10+12)/3 = 10.67, close 12 above it
			name:          "Close above SMA",
			closes:        []float64{10, 10, 10, 12},
			expectedEntry: true,
		},
		{
			// SMA(3) = (12+12+9)/3 = 11, close 9 below it
			name:          "Close below SMA",
			closes:        []float64{12, 12, 12, 9},
			expectedEntry: false,
		},
		{
			name:          "Not enough data",
			closes:        []float64{10, 11},
			expectedEntry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewSMA(SMAConfig{Period: 3}, &MockLogger{})
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

func TestSMAStrategy_ShouldClosePosition(t *testing.T) {
	tests := []struct {
		name           string
		closes         []float64
		currentPrice   float64
		position       *domain.Position
		expectedClose  bool
		expectedReason domain.CloseReason
	}{
		{
			name:           "Close below SMA",
			closes:         []float64{12, 12, 12, 9},
			currentPrice:   9,
			position:       openPosition(10, 0),
			expectedClose:  true,
			expectedReason: domain.CloseReasonSignal,
		},
		{
			name:           "Stop loss checked before signal",
			closes:         []float64{12, 12, 12, 9},
			currentPrice:   9,
			position:       openPosition(100, 9.5),
			expectedClose:  true,
			expectedReason: domain.CloseReasonStopLoss,
		},
		{
			name:           "Close above SMA keeps position",
			closes:         []float64{10, 10, 10, 12},
			currentPrice:   12,
			position:       openPosition(10, 5),
			expectedClose:  false,
			expectedReason: "",
		},
		{
			name:           "Closed position is ignored",
			closes:         []float64{12, 12, 12, 9},
			currentPrice:   9,
			position:       &domain.Position{Status: domain.StatusClosed, EntryPrice: 10},
			expectedClose:  false,
			expectedReason: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewSMA(SMAConfig{Period: 3}, &MockLogger{})
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
