package indicator

import (
	"fmt"

	"github.com/tmwry/updown/shared"
)

// Type represents the supported technical indicator kinds.
type Type int

const (
	SMA Type = iota
	EMA
	RSI
	MACD
	Bollinger
)

// String stringifies the provided indicator type.
func (t *Type) String() string {
	switch *t {
	case SMA:
		return "sma"
	case EMA:
		return "ema"
	case RSI:
		return "rsi"
	case MACD:
		return "macd"
	case Bollinger:
		return "bollinger"
	default:
		return "unknown"
	}
}

// ParseType parses an indicator type from the provided string.
func ParseType(name string) (Type, error) {
	switch name {
	case "sma":
		return SMA, nil
	case "ema":
		return EMA, nil
	case "rsi":
		return RSI, nil
	case "macd":
		return MACD, nil
	case "bollinger", "bollinger_bands":
		return Bollinger, nil
	default:
		return 0, fmt.Errorf("unknown indicator type: %s", name)
	}
}

// Config represents a named technical indicator attached to a strategy.
type Config struct {
	// ID uniquely identifies the indicator within its strategy.
	ID string
	// Kind is the indicator type.
	Kind Type
	// Timeframe is the candle timeframe the indicator is computed on.
	Timeframe shared.Timeframe
	// Params holds the indicator parameters keyed by name.
	Params map[string]float64
	// UsedInConditions flags indicators referenced by entry conditions.
	UsedInConditions bool
}

// Param returns the named parameter or the provided default when unset.
func (c *Config) Param(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok && v > 0 {
		return v
	}
	return def
}

// WarmupPeriod returns the minimum number of candles required before the
// indicator produces meaningful values.
func (c *Config) WarmupPeriod() int {
	switch c.Kind {
	case MACD:
		return int(c.Param("slowPeriod", 26) + c.Param("signalPeriod", 9))
	case RSI:
		return int(c.Param("period", 14)) + 1
	case Bollinger:
		return int(c.Param("period", 20))
	default:
		return int(c.Param("period", 14))
	}
}

// Result represents one indicator value at one timestamp. Scalar indicators
// set Value, multi field indicators populate Fields keyed by field name.
type Result struct {
	// Timestamp is the candle close time of the value in unix milliseconds.
	Timestamp int64
	// Value is the scalar value, nil when the indicator is multi field only.
	Value *float64
	// Fields holds named sub values, eg. macd/signal/histogram.
	Fields map[string]float64
}

// Field resolves the named field of the result. An empty name or "value"
// resolves the scalar value when one is set.
func (r *Result) Field(name string) (float64, bool) {
	if name == "" || name == "value" {
		if r.Value != nil {
			return *r.Value, true
		}
	}
	v, ok := r.Fields[name]
	return v, ok
}

// floatPtr returns a pointer to the provided float.
func floatPtr(v float64) *float64 {
	return &v
}
