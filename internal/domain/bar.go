package domain

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents a single OHLCV price bar.
type Bar struct {
	Time     time.Time // Start time of the interval
	Symbol   string    // Instrument symbol (e.g., "AAPL", "^GSPC", "ETHUSDT")
	Interval Interval  // Bar interval (e.g., "1d", "1wk")
	Open     float64   // Opening price
	High     float64   // Highest price
	Low      float64   // Lowest price
	Close    float64   // Closing price
	AdjClose float64   // Close adjusted for splits/dividends (0 if provider has none)
	Volume   float64   // Traded volume
}

// EffectiveClose returns the adjusted close when available, the raw close otherwise.
// Return calculations should use adjusted prices so that splits and dividends do
// not show up as artificial jumps.
func (b Bar) EffectiveClose() float64 {
	if b.AdjClose > 0 {
		return b.AdjClose
	}
	return b.Close
}

// Series is a chronological sequence of bars for a single symbol and interval.
type Series []Bar

// Sort orders the series chronologically in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
}

// Closes extracts the close prices, preferring adjusted closes.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.EffectiveClose()
	}
	return closes
}

// Volumes extracts the volume column.
func (s Series) Volumes() []float64 {
	vols := make([]float64, len(s))
	for i, b := range s {
		vols[i] = b.Volume
	}
	return vols
}

// Between returns the sub-series with bar times in [from, to] (inclusive).
// The series must already be sorted.
func (s Series) Between(from, to time.Time) Series {
	lo := sort.Search(len(s), func(i int) bool { return !s[i].Time.Before(from) })
	hi := sort.Search(len(s), func(i int) bool { return s[i].Time.After(to) })
	return s[lo:hi]
}

// Validate checks that the series is chronological, has consistent symbols,
// and carries sane prices.
func (s Series) Validate() error {
	for i, b := range s {
		if b.Close <= 0 || b.Open <= 0 || b.High <= 0 || b.Low <= 0 {
			return fmt.Errorf("bar %d (%s): non-positive price", i, b.Time.Format("2006-01-02"))
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): high %.4f below low %.4f", i, b.Time.Format("2006-01-02"), b.High, b.Low)
		}
		if i > 0 {
			if !s[i-1].Time.Before(b.Time) {
				return fmt.Errorf("bar %d (%s): not after previous bar", i, b.Time.Format("2006-01-02"))
			}
			if s[i-1].Symbol != b.Symbol {
				return fmt.Errorf("bar %d: symbol %q differs from %q", i, b.Symbol, s[i-1].Symbol)
			}
		}
	}
	return nil
}
