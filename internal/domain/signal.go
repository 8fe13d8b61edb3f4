package domain

import "time"

// SignalAction is the scanner's verdict for a symbol.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// Signal is the output of a scan over the latest bars of one symbol.
type Signal struct {
	ID       int64              // Assigned by the store
	Symbol   string             // Instrument symbol
	Time     time.Time          // Time of the bar the scan evaluated
	Action   SignalAction       // Composite verdict
	Score    float64            // Sum of rule votes, positive is bullish
	Price    float64            // Close price at evaluation
	Readings map[string]float64 // Named indicator values backing the verdict
	Reasons  []string           // Human-readable rule outcomes
}
