package shared

import (
	"fmt"
	"time"
)

// Timeframe represents the market data time period. The zero value is
// unset, which market filters treat as matching any timeframe.
type Timeframe int

const (
	OneMinute Timeframe = iota + 1
	FifteenMinute
	OneHour
)

// String stringifies the provided timeframe.
func (t *Timeframe) String() string {
	switch *t {
	case OneMinute:
		return "1m"
	case FifteenMinute:
		return "15m"
	case OneHour:
		return "1H"
	default:
		return "unknown"
	}
}

// Minutes returns the duration of the provided timeframe in minutes.
func (t *Timeframe) Minutes() int {
	switch *t {
	case OneMinute:
		return 1
	case FifteenMinute:
		return 15
	case OneHour:
		return 60
	default:
		return 0
	}
}

// IntervalMs returns the duration of the provided timeframe in milliseconds.
func (t *Timeframe) IntervalMs() int64 {
	return int64(t.Minutes()) * time.Minute.Milliseconds()
}

// Duration returns the duration of the provided timeframe.
func (t *Timeframe) Duration() time.Duration {
	return time.Duration(t.Minutes()) * time.Minute
}

// ParseTimeframe parses a timeframe from the provided string.
func ParseTimeframe(timeframe string) (Timeframe, error) {
	switch timeframe {
	case "1m":
		return OneMinute, nil
	case "15m":
		return FifteenMinute, nil
	case "1h", "1H":
		return OneHour, nil
	default:
		return 0, fmt.Errorf("unknown timeframe: %s", timeframe)
	}
}
