package strategy

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/shared"
)

// LoadFile loads a strategy from the json file at the provided path.
func LoadFile(path string) (*Strategy, error) {
	readb, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy from file with path '%s': %v", path, err)
	}

	return Parse(readb)
}

// Parse parses a strategy from the provided json bytes. Operator, field and
// operand strings are normalized into enums here, once, at the boundary.
func Parse(data []byte) (*Strategy, error) {
	b := gjson.ParseBytes(data)

	strat := &Strategy{
		ID:   b.Get("id").String(),
		Name: b.Get("name").String(),
	}
	if strat.ID == "" {
		strat.ID = uuid.New().String()
	}

	strat.Asset = b.Get("asset").String()

	var err error
	if tf := b.Get("timeframe").String(); tf != "" {
		strat.Timeframe, err = shared.ParseTimeframe(tf)
		if err != nil {
			return nil, fmt.Errorf("parsing strategy timeframe: %v", err)
		}
	}

	strat.Direction, err = shared.ParseDirection(b.Get("direction").String())
	if err != nil {
		return nil, fmt.Errorf("parsing strategy direction: %v", err)
	}

	strat.Logic, err = ParseLogic(b.Get("logic").String())
	if err != nil {
		return nil, fmt.Errorf("parsing strategy logic: %v", err)
	}

	indicators := b.Get("indicators").Array()
	for idx := range indicators {
		cfg, err := parseIndicator(&indicators[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing indicator %d: %v", idx, err)
		}
		strat.Indicators = append(strat.Indicators, *cfg)
	}

	conditions := b.Get("conditions").Array()
	for idx := range conditions {
		cond, err := parseCondition(&conditions[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing condition %d: %v", idx, err)
		}
		strat.Conditions = append(strat.Conditions, *cond)
	}

	rules := b.Get("rules").Array()
	for idx := range rules {
		rule, err := parseRule(&rules[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing orderbook rule %d: %v", idx, err)
		}
		strat.Rules = append(strat.Rules, *rule)
	}

	ladder := b.Get("ladder").Array()
	for idx := range ladder {
		strat.Ladder = append(strat.Ladder, LadderOrder{
			PriceCents: int(ladder[idx].Get("price").Int()),
			Shares:     int(ladder[idx].Get("shares").Int()),
		})
	}

	if exit := b.Get("exitPrice"); exit.Exists() {
		cents := int(exit.Int())
		strat.ExitPriceCents = &cents
	}

	if err := strat.Validate(); err != nil {
		return nil, fmt.Errorf("validating strategy: %v", err)
	}

	return strat, nil
}

// parseIndicator parses an indicator configuration from the provided json.
func parseIndicator(b *gjson.Result) (*indicator.Config, error) {
	kind, err := indicator.ParseType(b.Get("type").String())
	if err != nil {
		return nil, err
	}

	cfg := &indicator.Config{
		ID:               b.Get("id").String(),
		Kind:             kind,
		UsedInConditions: b.Get("usedInConditions").Bool(),
		Params:           make(map[string]float64),
	}
	if cfg.ID == "" {
		return nil, fmt.Errorf("indicator id cannot be an empty string")
	}

	if tf := b.Get("timeframe").String(); tf != "" {
		cfg.Timeframe, err = shared.ParseTimeframe(tf)
		if err != nil {
			return nil, err
		}
	}

	b.Get("parameters").ForEach(func(key, value gjson.Result) bool {
		cfg.Params[key.String()] = value.Float()
		return true
	})

	return cfg, nil
}

// parseCondition parses a condition from the provided json.
func parseCondition(b *gjson.Result) (*Condition, error) {
	operator, err := ParseOperator(b.Get("operator").String())
	if err != nil {
		return nil, err
	}

	literal := b.Get("value").Float()
	a, err := ParseOperand(b.Get("operandA").String(), literal)
	if err != nil {
		return nil, err
	}
	operandB := b.Get("operandB").String()
	if operandB == "" {
		operandB = "value"
	}
	bOp, err := ParseOperand(operandB, literal)
	if err != nil {
		return nil, err
	}

	cond := &Condition{
		ID:          b.Get("id").String(),
		A:           a,
		Operator:    operator,
		B:           bOp,
		SecondValue: b.Get("secondValue").Float(),
	}
	if b.Get("offset").String() == "previous" {
		cond.Offset = PreviousCandle
	}

	return cond, nil
}

// parseRule parses an orderbook rule from the provided json.
func parseRule(b *gjson.Result) (*OrderbookRule, error) {
	field, err := ParseRuleField(b.Get("field").String())
	if err != nil {
		return nil, err
	}

	operator, err := ParseOperator(b.Get("operator").String())
	if err != nil {
		return nil, err
	}

	switch operator {
	case CrossesAbove, CrossesBelow:
		return nil, fmt.Errorf("crossover operators are not valid for orderbook rules")
	}

	return &OrderbookRule{
		Field:       field,
		Operator:    operator,
		Value:       b.Get("value").Float(),
		SecondValue: b.Get("secondValue").Float(),
	}, nil
}
