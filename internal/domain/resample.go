package domain

import (
	"fmt"
	"time"
)

// Resample aggregates daily bars into weekly or monthly bars. Bars must be
// sorted chronologically. Each output bar takes the open of the first bar in
// the period, the max high, the min low, the close and adjusted close of the
// last bar, and the summed volume, stamped with the last bar's time. A
// partial trailing period is kept; gaps never produce synthetic bars.
func Resample(bars Series, target Interval) (Series, error) {
	switch target {
	case IntervalWeekly, IntervalMonthly:
	default:
		return nil, fmt.Errorf("resample: unsupported target interval %q", target)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	var out Series
	var current Bar
	var currentKey string
	started := false

	for _, b := range bars {
		key := periodKey(b.Time, target)
		if !started || key != currentKey {
			if started {
				out = append(out, current)
			}
			current = b
			current.Interval = target
			currentKey = key
			started = true
			continue
		}
		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.AdjClose = b.AdjClose
		current.Volume += b.Volume
		current.Time = b.Time
	}
	out = append(out, current)
	return out, nil
}

// periodKey buckets a timestamp into its ISO week or calendar month.
func periodKey(t time.Time, target Interval) string {
	if target == IntervalMonthly {
		return t.Format("2006-01")
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
