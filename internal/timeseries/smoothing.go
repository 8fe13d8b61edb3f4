package timeseries

import (
	"fmt"

	"quantlab/internal/ports"
)

// Smoothing holds a fitted exponential smoothing model. Beta is zero for
// simple smoothing.
type Smoothing struct {
	Alpha  float64
	Beta   float64
	Fitted []float64 // one-step-ahead fitted values, Fitted[0] = x[0]
	SSE    float64

	level    float64
	trend    float64
	hasTrend bool
}

// SES runs simple exponential smoothing with a fixed alpha.
func SES(x []float64, alpha float64) (*Smoothing, error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("ses: alpha must be in (0, 1), got %v", alpha)
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("ses: %w: %d observations", ports.ErrInsufficientData, len(x))
	}

	s := &Smoothing{Alpha: alpha, Fitted: make([]float64, len(x))}
	s.level = x[0]
	s.Fitted[0] = x[0]
	for t := 1; t < len(x); t++ {
		s.Fitted[t] = s.level
		e := x[t] - s.level
		s.SSE += e * e
		s.level = alpha*x[t] + (1-alpha)*s.level
	}
	return s, nil
}

// FitSES grid-searches alpha for the smallest one-step-ahead SSE.
func FitSES(x []float64) (*Smoothing, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("ses: %w: %d observations", ports.ErrInsufficientData, len(x))
	}
	var best *Smoothing
	for a := 0.01; a < 1; a += 0.01 {
		s, err := SES(x, a)
		if err != nil {
			return nil, err
		}
		if best == nil || s.SSE < best.SSE {
			best = s
		}
	}
	return best, nil
}

// Holt runs Holt's linear trend smoothing with fixed alpha and beta.
func Holt(x []float64, alpha, beta float64) (*Smoothing, error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("holt: alpha must be in (0, 1), got %v", alpha)
	}
	if beta <= 0 || beta >= 1 {
		return nil, fmt.Errorf("holt: beta must be in (0, 1), got %v", beta)
	}
	if len(x) < 3 {
		return nil, fmt.Errorf("holt: %w: %d observations", ports.ErrInsufficientData, len(x))
	}

	s := &Smoothing{Alpha: alpha, Beta: beta, Fitted: make([]float64, len(x)), hasTrend: true}
	s.level = x[0]
	s.trend = x[1] - x[0]
	s.Fitted[0] = x[0]
	for t := 1; t < len(x); t++ {
		forecast := s.level + s.trend
		s.Fitted[t] = forecast
		e := x[t] - forecast
		s.SSE += e * e
		prevLevel := s.level
		s.level = alpha*x[t] + (1-alpha)*forecast
		s.trend = beta*(s.level-prevLevel) + (1-beta)*s.trend
	}
	return s, nil
}

// FitHolt grid-searches alpha and beta for the smallest one-step-ahead SSE.
func FitHolt(x []float64) (*Smoothing, error) {
	if len(x) < 3 {
		return nil, fmt.Errorf("holt: %w: %d observations", ports.ErrInsufficientData, len(x))
	}
	var best *Smoothing
	for a := 0.02; a < 1; a += 0.02 {
		for b := 0.02; b < 1; b += 0.02 {
			s, err := Holt(x, a, b)
			if err != nil {
				return nil, err
			}
			if best == nil || s.SSE < best.SSE {
				best = s
			}
		}
	}
	return best, nil
}

// Forecast extrapolates h steps ahead: flat at the last level for simple
// smoothing, along the fitted trend for Holt.
func (s *Smoothing) Forecast(h int) []float64 {
	if h <= 0 {
		return nil
	}
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		if s.hasTrend {
			out[i] = s.level + float64(i+1)*s.trend
		} else {
			out[i] = s.level
		}
	}
	return out
}
