package domain

// Interval identifies the bar aggregation period.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// Valid reports whether the interval is one the toolkit aggregates natively.
// Provider-specific intraday strings (e.g., "1h") pass through untouched.
func (i Interval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return i != ""
}

// BarsPerYear returns the conventional annualization factor for the interval.
func (i Interval) BarsPerYear() float64 {
	switch i {
	case IntervalWeekly:
		return 52
	case IntervalMonthly:
		return 12
	default:
		return 252 // trading days
	}
}

// OrderSide represents the side of a simulated order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// PositionStatus represents the status of a simulated position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// CloseReason indicates why a backtested position was closed.
type CloseReason string

const (
	CloseReasonSignal    CloseReason = "SIGNAL" // Strategy exit rule fired
	CloseReasonStopLoss  CloseReason = "STOP_LOSS"
	CloseReasonEndOfData CloseReason = "END_OF_DATA"
	CloseReasonUnknown   CloseReason = "UNKNOWN"
)
