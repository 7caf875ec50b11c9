package strategy

import (
	"math"

	"github.com/tmwry/updown/shared"
)

// ruleEqualityTolerance is the tolerance in cents applied to rule equality
// comparisons.
const ruleEqualityTolerance = 0.5

// OrderbookRule represents a raw price threshold trigger, the alternative to
// indicator conditions for strategies trading straight off the book.
type OrderbookRule struct {
	Field    RuleField
	Operator Operator
	// Value is the threshold in cents.
	Value float64
	// SecondValue is the upper bound in cents for between comparisons.
	SecondValue float64
}

// fieldCents extracts the rule's price field from the provided tick.
func (r *OrderbookRule) fieldCents(tick *shared.Tick, direction shared.Direction) int {
	switch r.Field {
	case YesBid:
		return tick.YesBid
	case YesAsk:
		return tick.YesAsk
	case NoBid:
		return tick.NoBid
	case NoAsk:
		return tick.NoAsk
	default:
		return tick.DirectionPrice(direction)
	}
}

// Evaluate compares the tick's price field against the rule threshold.
func (r *OrderbookRule) Evaluate(tick *shared.Tick, direction shared.Direction) bool {
	cents := float64(r.fieldCents(tick, direction))

	switch r.Operator {
	case GreaterThan:
		return cents > r.Value
	case LessThan:
		return cents < r.Value
	case GreaterThanOrEqual:
		return cents >= r.Value
	case LessThanOrEqual:
		return cents <= r.Value
	case Equals:
		return math.Abs(cents-r.Value) <= ruleEqualityTolerance
	case Between:
		low, high := r.Value, r.SecondValue
		if low > high {
			low, high = high, low
		}
		return cents >= low && cents <= high
	default:
		return false
	}
}

// EvaluateRules reports whether every provided rule holds for the tick. An
// empty rule set never triggers.
func EvaluateRules(rules []OrderbookRule, tick *shared.Tick, direction shared.Direction) bool {
	if len(rules) == 0 {
		return false
	}

	for idx := range rules {
		if !rules[idx].Evaluate(tick, direction) {
			return false
		}
	}

	return true
}
