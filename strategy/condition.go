package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/tmwry/updown/indicator"
)

const (
	// equalityTolerance is the tolerance applied to equality comparisons.
	equalityTolerance = 1e-4
	// exactLookupWindowMs is the window for an exact indicator lookup.
	exactLookupWindowMs = int64(1_000)
	// nearLookupWindowMs is the window for a nearest indicator lookup.
	nearLookupWindowMs = int64(5 * 60 * 1_000)
	// indicatorOperandPrefix marks operands referencing indicator series.
	indicatorOperandPrefix = "indicator_"
)

// OperandKind represents the kind of a condition operand.
type OperandKind int

const (
	// LiteralOperand resolves to the condition's literal value.
	LiteralOperand OperandKind = iota
	// PriceOperand resolves to the price under evaluation.
	PriceOperand
	// IndicatorOperand resolves an indicator series value at the evaluated
	// timestamp.
	IndicatorOperand
)

// Operand represents one side of a condition.
type Operand struct {
	Kind        OperandKind
	Literal     float64
	IndicatorID string
	// Field selects a named sub value of a multi field indicator, empty for
	// the scalar value.
	Field string
}

// ParseOperand parses an operand from the provided reference string. The
// literal value is used when the reference names the condition's own value.
func ParseOperand(ref string, literal float64) (Operand, error) {
	switch canonical(ref) {
	case "price", "close":
		return Operand{Kind: PriceOperand}, nil
	case "value", "":
		return Operand{Kind: LiteralOperand, Literal: literal}, nil
	}

	if strings.HasPrefix(ref, indicatorOperandPrefix) {
		id, field, _ := strings.Cut(strings.TrimPrefix(ref, indicatorOperandPrefix), ".")
		if id == "" {
			return Operand{}, fmt.Errorf("indicator operand missing id: %s", ref)
		}
		return Operand{Kind: IndicatorOperand, IndicatorID: id, Field: field}, nil
	}

	return Operand{}, fmt.Errorf("unknown operand reference: %s", ref)
}

// CandleOffset represents which candle a condition evaluates against.
type CandleOffset int

const (
	CurrentCandle CandleOffset = iota
	PreviousCandle
)

// Condition represents one logical test in a strategy's trigger rule.
type Condition struct {
	ID       string
	A        Operand
	Operator Operator
	B        Operand
	// SecondValue is the upper bound literal for between comparisons.
	SecondValue float64
	Offset      CandleOffset
}

// Snapshot represents the evaluation point of a condition check: the price
// and close time of the candle under evaluation plus those of the two
// candles before it. Both prior candles are needed so a previous candle
// offset and a crossover lookback can stack. Index is the candle's position
// in its series, used for positional indicator fallback.
type Snapshot struct {
	Price          float64
	Timestamp      int64
	PrevPrice      float64
	PrevTimestamp  int64
	Prev2Price     float64
	Prev2Timestamp int64
	Index          int
}

// previous shifts the snapshot one candle back. Reports false when there is
// no previous candle to shift to.
func (s *Snapshot) previous() (Snapshot, bool) {
	if s.Index < 1 {
		return Snapshot{}, false
	}
	return Snapshot{
		Price:         s.PrevPrice,
		Timestamp:     s.PrevTimestamp,
		PrevPrice:     s.Prev2Price,
		PrevTimestamp: s.Prev2Timestamp,
		Index:         s.Index - 1,
	}, true
}

// Evaluator resolves condition operands against indicator series and applies
// comparison and crossover operators. Operand resolution failures fail
// closed: a condition with an unresolvable operand is false.
type Evaluator struct {
	logic      Logic
	conditions []Condition
	series     map[string][]indicator.Result
}

// NewEvaluator initializes a condition evaluator over the provided indicator
// series keyed by indicator id.
func NewEvaluator(conditions []Condition, logic Logic, series map[string][]indicator.Result) *Evaluator {
	return &Evaluator{
		logic:      logic,
		conditions: conditions,
		series:     series,
	}
}

// lookupResult finds the indicator result for the provided timestamp: an
// exact match within a second, else the closest within five minutes, else
// the result at the provided positional index.
func lookupResult(results []indicator.Result, timestamp int64, index int) *indicator.Result {
	var nearest *indicator.Result
	nearestDelta := int64(math.MaxInt64)

	for idx := range results {
		delta := results[idx].Timestamp - timestamp
		if delta < 0 {
			delta = -delta
		}
		if delta <= exactLookupWindowMs {
			return &results[idx]
		}
		if delta < nearestDelta {
			nearestDelta = delta
			nearest = &results[idx]
		}
	}

	if nearest != nil && nearestDelta <= nearLookupWindowMs {
		return nearest
	}

	if index >= 0 && index < len(results) {
		return &results[index]
	}

	return nil
}

// resolve resolves the provided operand to a value at the snapshot point.
// A nil result means the operand could not be resolved.
func (e *Evaluator) resolve(op *Operand, snap *Snapshot) *float64 {
	switch op.Kind {
	case LiteralOperand:
		v := op.Literal
		return &v
	case PriceOperand:
		v := snap.Price
		return &v
	case IndicatorOperand:
		result := lookupResult(e.series[op.IndicatorID], snap.Timestamp, snap.Index)
		if result == nil {
			return nil
		}
		v, ok := result.Field(op.Field)
		if !ok {
			return nil
		}
		return &v
	default:
		return nil
	}
}

// evaluateCondition applies a single condition at the snapshot point.
func (e *Evaluator) evaluateCondition(cond *Condition, snap *Snapshot) bool {
	point := *snap
	if cond.Offset == PreviousCandle {
		prev, ok := point.previous()
		if !ok {
			return false
		}
		point = prev
	}

	a := e.resolve(&cond.A, &point)
	b := e.resolve(&cond.B, &point)
	if a == nil || b == nil {
		return false
	}

	switch cond.Operator {
	case GreaterThan:
		return *a > *b
	case LessThan:
		return *a < *b
	case GreaterThanOrEqual:
		return *a >= *b
	case LessThanOrEqual:
		return *a <= *b
	case Equals:
		return math.Abs(*a-*b) <= equalityTolerance
	case Between:
		low, high := *b, cond.SecondValue
		if low > high {
			low, high = high, low
		}
		return *a >= low && *a <= high
	case CrossesAbove, CrossesBelow:
		return e.evaluateCrossover(cond, &point, *a, *b)
	default:
		return false
	}
}

// evaluateCrossover applies a stateful crossover operator: true only when
// the ordering of the two operands strictly flips between the previous and
// current candle. Undefined at the first evaluable candle.
func (e *Evaluator) evaluateCrossover(cond *Condition, snap *Snapshot, a, b float64) bool {
	prev, ok := snap.previous()
	if !ok {
		return false
	}

	prevA := e.resolve(&cond.A, &prev)
	prevB := e.resolve(&cond.B, &prev)
	if prevA == nil || prevB == nil {
		return false
	}

	switch cond.Operator {
	case CrossesAbove:
		return *prevA <= *prevB && a > b
	default:
		return *prevA >= *prevB && a < b
	}
}

// Evaluate applies every condition at the snapshot point and combines the
// outcomes with the evaluator's logic. An empty condition set never triggers.
func (e *Evaluator) Evaluate(snap *Snapshot) bool {
	if len(e.conditions) == 0 {
		return false
	}

	for idx := range e.conditions {
		met := e.evaluateCondition(&e.conditions[idx], snap)
		switch {
		case met && e.logic == Any:
			return true
		case !met && e.logic == All:
			return false
		}
	}

	return e.logic == All
}
