package domain

import "time"

// Trade represents a completed round trip in a backtest.
type Trade struct {
	ID          int64       // Sequence number within the backtest
	Symbol      string      // Instrument symbol (e.g., "AAPL")
	EntryPrice  float64     // Fill price at entry
	ExitPrice   float64     // Fill price at exit
	Quantity    float64     // Number of shares/units traded
	Commission  float64     // Total commission paid on entry + exit
	PNL         float64     // Profit and loss net of commission
	EntryTime   time.Time   // Bar time of the entry fill
	ExitTime    time.Time   // Bar time of the exit fill
	CloseReason CloseReason // Why the position was closed
}

// GrossPNL returns the trade result before commission.
func (t Trade) GrossPNL() float64 {
	return t.PNL + t.Commission
}
