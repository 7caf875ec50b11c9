package strategy

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/tmwry/updown/shared"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		input   string
		want    Operator
		wantErr bool
	}{
		{input: ">", want: GreaterThan},
		{input: "greater_than", want: GreaterThan},
		{input: "Greater Than", want: GreaterThan},
		{input: "less than", want: LessThan},
		{input: "crosses above", want: CrossesAbove},
		{input: "CROSSES_BELOW", want: CrossesBelow},
		{input: "equals", want: Equals},
		{input: "between", want: Between},
		{input: "sideways", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParseOperator(test.input)
		if test.wantErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		if got != test.want {
			t.Errorf("%s: expected %s, got %s", test.input, test.want.String(), got.String())
		}
	}
}

func TestParseRuleField(t *testing.T) {
	tests := []struct {
		input   string
		want    RuleField
		wantErr bool
	}{
		{input: "yes_bid", want: YesBid},
		{input: "Yes Bid", want: YesBid},
		{input: "no ask", want: NoAsk},
		{input: "market price", want: MarketPrice},
		{input: "price", want: MarketPrice},
		{input: "spread", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParseRuleField(test.input)
		if test.wantErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		if got != test.want {
			t.Errorf("%s: expected %s, got %s", test.input, test.want.String(), got.String())
		}
	}
}

func TestRuleEvaluate(t *testing.T) {
	tick := shared.Tick{Timestamp: 1, YesBid: 39, YesAsk: 41, NoBid: 58, NoAsk: 60}

	tests := []struct {
		name string
		rule OrderbookRule
		want bool
	}{
		{
			name: "yes bid below threshold",
			rule: OrderbookRule{Field: YesBid, Operator: LessThan, Value: 40},
			want: true,
		},
		{
			name: "yes bid not above threshold",
			rule: OrderbookRule{Field: YesBid, Operator: GreaterThan, Value: 40},
			want: false,
		},
		{
			name: "equals within half cent",
			rule: OrderbookRule{Field: YesAsk, Operator: Equals, Value: 41.5},
			want: true,
		},
		{
			name: "equals outside half cent",
			rule: OrderbookRule{Field: YesAsk, Operator: Equals, Value: 42},
			want: false,
		},
		{
			name: "between inclusive",
			rule: OrderbookRule{Field: NoBid, Operator: Between, Value: 58, SecondValue: 60},
			want: true,
		},
		{
			name: "market price reads direction side",
			rule: OrderbookRule{Field: MarketPrice, Operator: LessThan, Value: 40},
			want: true,
		},
	}

	for _, test := range tests {
		got := test.rule.Evaluate(&tick, shared.Up)
		if got != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}

	// Ensure rule sets require every rule to hold and empty sets never
	// trigger.
	rules := []OrderbookRule{
		{Field: YesBid, Operator: LessThan, Value: 40},
		{Field: NoAsk, Operator: GreaterThan, Value: 70},
	}
	assert.False(t, EvaluateRules(rules, &tick, shared.Up))
	assert.True(t, EvaluateRules(rules[:1], &tick, shared.Up))
	assert.False(t, EvaluateRules(nil, &tick, shared.Up))
}
