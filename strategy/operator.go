package strategy

import (
	"fmt"
	"strings"
)

// Operator represents a condition comparison operator.
type Operator int

const (
	GreaterThan Operator = iota
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
	Equals
	Between
	CrossesAbove
	CrossesBelow
)

// String stringifies the provided operator.
func (o *Operator) String() string {
	switch *o {
	case GreaterThan:
		return "greater_than"
	case LessThan:
		return "less_than"
	case GreaterThanOrEqual:
		return "greater_than_or_equal"
	case LessThanOrEqual:
		return "less_than_or_equal"
	case Equals:
		return "equals"
	case Between:
		return "between"
	case CrossesAbove:
		return "crosses_above"
	case CrossesBelow:
		return "crosses_below"
	default:
		return "unknown"
	}
}

// canonical lowercases the provided name and collapses spaces and dashes
// into underscores.
func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// ParseOperator parses an operator from the provided string, tolerating
// spacing and casing variants. Normalization happens once at the strategy
// boundary so operator strings are never re-parsed during simulation.
func ParseOperator(name string) (Operator, error) {
	switch canonical(name) {
	case ">", "gt", "greater_than", "greater":
		return GreaterThan, nil
	case "<", "lt", "less_than", "less":
		return LessThan, nil
	case ">=", "gte", "greater_than_or_equal":
		return GreaterThanOrEqual, nil
	case "<=", "lte", "less_than_or_equal":
		return LessThanOrEqual, nil
	case "=", "==", "eq", "equal", "equals":
		return Equals, nil
	case "between":
		return Between, nil
	case "crosses_above", "cross_above":
		return CrossesAbove, nil
	case "crosses_below", "cross_below":
		return CrossesBelow, nil
	default:
		return 0, fmt.Errorf("unknown operator: %s", name)
	}
}

// RuleField represents the tick price field an orderbook rule reads.
type RuleField int

const (
	YesBid RuleField = iota
	YesAsk
	NoBid
	NoAsk
	// MarketPrice reads the tradable price of the strategy's direction.
	MarketPrice
)

// String stringifies the provided rule field.
func (f *RuleField) String() string {
	switch *f {
	case YesBid:
		return "yes_bid"
	case YesAsk:
		return "yes_ask"
	case NoBid:
		return "no_bid"
	case NoAsk:
		return "no_ask"
	case MarketPrice:
		return "market_price"
	default:
		return "unknown"
	}
}

// ParseRuleField parses a rule field from the provided string, tolerating
// spacing and casing variants.
func ParseRuleField(name string) (RuleField, error) {
	switch canonical(name) {
	case "yes_bid", "yesbid":
		return YesBid, nil
	case "yes_ask", "yesask":
		return YesAsk, nil
	case "no_bid", "nobid":
		return NoBid, nil
	case "no_ask", "noask":
		return NoAsk, nil
	case "market_price", "price":
		return MarketPrice, nil
	default:
		return 0, fmt.Errorf("unknown rule field: %s", name)
	}
}

// Logic represents how a strategy combines its conditions.
type Logic int

const (
	// All requires every condition to hold.
	All Logic = iota
	// Any requires at least one condition to hold.
	Any
)

// String stringifies the provided logic.
func (l *Logic) String() string {
	switch *l {
	case All:
		return "all"
	case Any:
		return "any"
	default:
		return "unknown"
	}
}

// ParseLogic parses condition combination logic from the provided string.
func ParseLogic(name string) (Logic, error) {
	switch canonical(name) {
	case "all", "and", "":
		return All, nil
	case "any", "or":
		return Any, nil
	default:
		return 0, fmt.Errorf("unknown condition logic: %s", name)
	}
}
