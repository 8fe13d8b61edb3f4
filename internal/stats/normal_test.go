package stats

import (
	"math"
	"testing"
)

func TestNormPDF(t *testing.T) {
	if got := NormPDF(0); !almostEqual(got, 0.3989422804, 1e-9) {
		t.Errorf("NormPDF(0): expected 0.3989422804, got %f", got)
	}
	if got, want := NormPDF(1), NormPDF(-1); !almostEqual(got, want, 1e-12) {
		t.Errorf("NormPDF should be symmetric: %f vs %f", got, want)
	}
}

func TestNormCDF(t *testing.T) {
	tests := []struct {
		x        float64
		expected float64
	}{
		{x: 0, expected: 0.5},
		{x: 1.959963985, expected: 0.975},
		{x: -1.959963985, expected: 0.025},
		{x: 1, expected: 0.8413447461},
		{x: -3, expected: 0.0013498980},
	}
	for _, tt := range tests {
		if got := NormCDF(tt.x); !almostEqual(got, tt.expected, 1e-7) {
			t.Errorf("NormCDF(%f): expected %f, got %f", tt.x, tt.expected, got)
		}
	}
}

func TestNormPPF(t *testing.T) {
	tests := []struct {
		p        float64
		expected float64
	}{
		{p: 0.5, expected: 0},
		{p: 0.975, expected: 1.959963985},
		{p: 0.025, expected: -1.959963985},
		{p: 0.95, expected: 1.644853627},
		{p: 0.01, expected: -2.326347874},
	}
	for _, tt := range tests {
		if got := NormPPF(tt.p); !almostEqual(got, tt.expected, 1e-6) {
			t.Errorf("NormPPF(%f): expected %f, got %f", tt.p, tt.expected, got)
		}
	}

	if !math.IsInf(NormPPF(0), -1) {
		t.Error("NormPPF(0): expected -Inf")
	}
	if !math.IsInf(NormPPF(1), 1) {
		t.Error("NormPPF(1): expected +Inf")
	}

	// Round trip through the CDF.
	for _, p := range []float64{0.001, 0.1, 0.42, 0.5, 0.77, 0.999} {
		if got := NormCDF(NormPPF(p)); !almostEqual(got, p, 1e-8) {
			t.Errorf("Round trip for p=%f: got %f", p, got)
		}
	}
}
