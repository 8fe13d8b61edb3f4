package strategies

import (
	"testing"
)

func TestFromParams(t *testing.T) {
	tests := []struct {
		name         string
		strategyName string
		params       map[string]float64
		wantName     string
		wantPoints   int
	}{
		{
			name:         "sma with explicit period",
			strategyName: "sma",
			params:       map[string]float64{"period": 10},
			wantName:     "SMA Trend",
			wantPoints:   11,
		},
		{
			name:         "sma falls back to constructor default",
			strategyName: "sma",
			params:       nil,
			wantName:     "SMA Trend",
			wantPoints:   21,
		},
		{
			name:         "ma_crossover with fractional period rounds",
			strategyName: "ma_crossover",
			params:       map[string]float64{"fast_period": 5.4, "slow_period": 20},
			wantName:     "Moving Average Crossover",
			wantPoints:   21,
		},
		{
			name:         "rsi defaults",
			strategyName: "rsi",
			params:       map[string]float64{},
			wantName:     "RSI Mean Reversion",
			wantPoints:   16,
		},
		{
			name:         "bollinger with params",
			strategyName: "bollinger",
			params:       map[string]float64{"period": 10, "num_std_dev": 1.5},
			wantName:     "Bollinger Bands",
			wantPoints:   11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := FromParams(tt.strategyName, tt.params, &MockLogger{})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if name := strategy.Name(); name != tt.wantName {
				t.Errorf("Expected strategy %q, got %q", tt.wantName, name)
			}
			if points := strategy.RequiredDataPoints(); points != tt.wantPoints {
				t.Errorf("Expected %d required data points, got %d", tt.wantPoints, points)
			}
		})
	}
}

func TestFromParamsUnknownName(t *testing.T) {
	if _, err := FromParams("momentum", nil, &MockLogger{}); err == nil {
		t.Error("Expected error for unknown strategy name but got none")
	}
}

func TestFromParamsNilLogger(t *testing.T) {
	if _, err := FromParams("sma", nil, nil); err == nil {
		t.Error("Expected error for nil logger but got none")
	}
}

func TestFromParamsIgnoresUnknownParams(t *testing.T) {
	strategy, err := FromParams("sma", map[string]float64{"period": 5, "take_profit": 0.02}, &MockLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if points := strategy.RequiredDataPoints(); points != 6 {
		t.Errorf("Expected 6 required data points, got %d", points)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 4 {
		t.Fatalf("Expected 4 strategy names, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names not sorted: %v", names)
		}
	}
}
