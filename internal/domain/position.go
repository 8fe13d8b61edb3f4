package domain

import "time"

// Position represents a long position held inside a backtest.
type Position struct {
	Symbol          string         // Instrument symbol
	EntryPrice      float64        // Fill price at entry
	Quantity        float64        // Number of shares/units held
	EntryCommission float64        // Commission paid on the entry fill
	StopLoss        float64        // Protective stop price (0 disables the stop)
	EntryTime       time.Time      // Bar time of the entry fill
	Status          PositionStatus // open or closed
}

// IsOpen checks if the position status is open.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// MarketValue returns the position value at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}
