package strategy

import (
	"errors"
	"fmt"

	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/shared"
)

// Kind represents the strategy class, which decides entry fill semantics.
type Kind int

const (
	// IndicatorTriggered strategies enter on confirmed indicator conditions,
	// filling the first ladder order immediately at its limit price.
	IndicatorTriggered Kind = iota
	// OrderbookOnly strategies enter on raw price thresholds with true limit
	// order semantics.
	OrderbookOnly
)

// String stringifies the provided strategy kind.
func (k *Kind) String() string {
	switch *k {
	case IndicatorTriggered:
		return "indicator"
	case OrderbookOnly:
		return "orderbook"
	default:
		return "unknown"
	}
}

// LadderOrder represents one simulated limit order of a strategy's ladder.
type LadderOrder struct {
	// PriceCents is the limit price in cents.
	PriceCents int
	// Shares is the order size.
	Shares int
}

// Cost returns the dollar cost of filling the order at its limit price.
func (o *LadderOrder) Cost() float64 {
	return float64(o.Shares) * shared.CentsToDecimal(o.PriceCents)
}

// Strategy represents a user defined up/down trading strategy.
type Strategy struct {
	ID        string
	Name      string
	Asset     string
	Timeframe shared.Timeframe
	Direction shared.Direction
	Logic     Logic

	Indicators []indicator.Config
	Conditions []Condition
	Rules      []OrderbookRule
	Ladder     []LadderOrder

	// ExitPriceCents is the optional take profit price. When unset,
	// positions ride to terminal settlement at market close.
	ExitPriceCents *int
}

// Kind derives the strategy class: any condition referencing an indicator
// makes the strategy indicator triggered.
func (s *Strategy) Kind() Kind {
	for idx := range s.Conditions {
		if s.Conditions[idx].A.Kind == IndicatorOperand || s.Conditions[idx].B.Kind == IndicatorOperand {
			return IndicatorTriggered
		}
	}
	return OrderbookOnly
}

// Indicator returns the indicator configuration with the provided id.
func (s *Strategy) Indicator(id string) *indicator.Config {
	for idx := range s.Indicators {
		if s.Indicators[idx].ID == id {
			return &s.Indicators[idx]
		}
	}
	return nil
}

// ConditionIndicators returns the indicator configurations referenced by the
// strategy's conditions.
func (s *Strategy) ConditionIndicators() []indicator.Config {
	configs := make([]indicator.Config, 0, len(s.Indicators))
	for idx := range s.Indicators {
		if s.Indicators[idx].UsedInConditions {
			configs = append(configs, s.Indicators[idx])
		}
	}
	return configs
}

// WarmupPeriod returns the candle warm up requirement implied by the
// strategy's condition indicators.
func (s *Strategy) WarmupPeriod() int {
	var warmup int
	for idx := range s.Indicators {
		if !s.Indicators[idx].UsedInConditions {
			continue
		}
		if w := s.Indicators[idx].WarmupPeriod(); w > warmup {
			warmup = w
		}
	}
	return warmup
}

// CandleTimeframe returns the timeframe candles are built at when the
// strategy is evaluated against a market's own data: the condition
// indicators' timeframe when any are configured, else the market timeframe.
func (s *Strategy) CandleTimeframe() shared.Timeframe {
	indicators := s.ConditionIndicators()
	if len(indicators) > 0 {
		return indicators[0].Timeframe
	}
	return s.Timeframe
}

// Validate asserts the strategy has sane inputs.
func (s *Strategy) Validate() error {
	var errs error

	if s.ID == "" {
		errs = errors.Join(errs, fmt.Errorf("strategy id cannot be an empty string"))
	}
	if s.Timeframe == 0 {
		errs = errors.Join(errs, fmt.Errorf("strategy has no market timeframe"))
	}
	if len(s.Ladder) == 0 {
		errs = errors.Join(errs, fmt.Errorf("strategy has no ladder orders"))
	}
	for idx := range s.Ladder {
		if s.Ladder[idx].Shares <= 0 {
			errs = errors.Join(errs, fmt.Errorf("ladder order %d has no shares", idx))
		}
		if s.Ladder[idx].PriceCents <= shared.MinPriceCents || s.Ladder[idx].PriceCents >= shared.MaxPriceCents {
			errs = errors.Join(errs, fmt.Errorf("ladder order %d price out of range: %d",
				idx, s.Ladder[idx].PriceCents))
		}
	}
	if len(s.Conditions) == 0 && len(s.Rules) == 0 {
		errs = errors.Join(errs, fmt.Errorf("strategy has neither conditions nor orderbook rules"))
	}
	for idx := range s.Conditions {
		cond := &s.Conditions[idx]
		for _, op := range []*Operand{&cond.A, &cond.B} {
			if op.Kind == IndicatorOperand && s.Indicator(op.IndicatorID) == nil {
				errs = errors.Join(errs, fmt.Errorf("condition %s references unknown indicator: %s",
					cond.ID, op.IndicatorID))
			}
		}
	}

	return errs
}
