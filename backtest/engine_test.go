package backtest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/shared"
	"github.com/tmwry/updown/strategy"
)

// mockStore serves canned tick histories keyed by market id.
type mockStore struct {
	ticks map[string][]shared.Tick
}

func (m *mockStore) LoadMarketTicks(_ context.Context, marketID string) ([]shared.Tick, error) {
	return m.ticks[marketID], nil
}

func (m *mockStore) FindCompletedMarkets(_ context.Context, _ *shared.MarketFilter) ([]shared.MarketWindow, error) {
	windows := make([]shared.MarketWindow, 0, len(m.ticks))
	for id := range m.ticks {
		windows = append(windows, shared.MarketWindow{MarketID: id})
	}
	return windows, nil
}

func newTestEngine(store shared.TickStore, selected []shared.MarketWindow) *Engine {
	logger := log.With().Str("component", "backtest").Logger()
	return NewEngine(&EngineConfig{
		Store:      store,
		Calculator: indicator.NewProvider(&indicator.ProviderConfig{Logger: &logger}),
		SelectMarkets: func(_ context.Context, _ *strategy.Strategy, count int) ([]shared.MarketWindow, error) {
			if count < len(selected) {
				return selected[:count], nil
			}
			return selected, nil
		},
		RankMarkets: func(ctx context.Context, filter *shared.MarketFilter, count int) ([]shared.MarketWindow, error) {
			windows, err := store.FindCompletedMarkets(ctx, filter)
			if err != nil {
				return nil, err
			}
			if count < len(windows) {
				windows = windows[:count]
			}
			return windows, nil
		},
		Logger: &logger,
	})
}

func winningTicks() []shared.Tick {
	return []shared.Tick{
		upTick(1_000, 45),
		upTick(2_000, 42),
		upTick(3_000, 35),
		upTick(4_000, 38),
		upTick(5_000, 60),
	}
}

func macdStrategy() *strategy.Strategy {
	return &strategy.Strategy{
		ID:        "macd-cross",
		Asset:     "BTC",
		Timeframe: shared.FifteenMinute,
		Direction: shared.Up,
		Indicators: []indicator.Config{
			{
				ID:               "macd1",
				Kind:             indicator.MACD,
				Timeframe:        shared.OneMinute,
				Params:           map[string]float64{"fastPeriod": 2, "slowPeriod": 3, "signalPeriod": 2},
				UsedInConditions: true,
			},
		},
		Conditions: []strategy.Condition{
			{
				ID:       "c1",
				A:        strategy.Operand{Kind: strategy.IndicatorOperand, IndicatorID: "macd1", Field: "macd"},
				Operator: strategy.CrossesAbove,
				B:        strategy.Operand{Kind: strategy.IndicatorOperand, IndicatorID: "macd1", Field: "signal"},
			},
		},
		Ladder: []strategy.LadderOrder{{PriceCents: 45, Shares: 10}},
	}
}

func TestEngineSingleMarket(t *testing.T) {
	store := &mockStore{ticks: map[string][]shared.Tick{"mkt-1": winningTicks()}}
	engine := newTestEngine(store, nil)

	result, err := engine.Run(context.Background(), dipStrategy(), 100, &RunOptions{MarketID: "mkt-1"})
	assert.NoError(t, err)

	assert.Equal(t, result.MarketsProcessed, 1)
	assert.Equal(t, result.InitialBalance, float64(100))
	assert.Equal(t, result.FinalBalance, float64(160))
	assert.Equal(t, result.PNL, float64(60))
	assert.Equal(t, len(result.Trades), 2)
	assert.Equal(t, result.Stats.TotalTrades, 1)
	assert.Equal(t, result.Stats.Wins, 1)
	assert.Equal(t, result.Stats.WinRate, float64(1))
	assert.Equal(t, result.Start, int64(1_000))
	assert.Equal(t, result.End, int64(5_000))
}

func TestEngineMultiMarketPartialMatch(t *testing.T) {
	// Requesting three markets when only two triggers matched is a partial
	// result, not an error.
	store := &mockStore{ticks: map[string][]shared.Tick{
		"mkt-1": winningTicks(),
		"mkt-2": winningTicks(),
	}}
	selected := []shared.MarketWindow{{MarketID: "mkt-1"}, {MarketID: "mkt-2"}}
	engine := newTestEngine(store, selected)

	result, err := engine.Run(context.Background(), macdStrategy(), 100, &RunOptions{MarketCount: 3})
	assert.NoError(t, err)
	assert.Equal(t, result.MarketsProcessed, 2)
	assert.Equal(t, len(result.Trades), 4)
}

func TestEngineNoMarkets(t *testing.T) {
	store := &mockStore{ticks: map[string][]shared.Tick{}}
	engine := newTestEngine(store, nil)

	_, err := engine.Run(context.Background(), macdStrategy(), 100, &RunOptions{MarketCount: 3})
	assert.Error(t, err)
}

func TestEngineWarmupSkip(t *testing.T) {
	// An explicit market with fewer candles than the indicator warm up is
	// skipped; with no other market the run fails outright.
	store := &mockStore{ticks: map[string][]shared.Tick{
		"mkt-1": {upTick(1_000, 45), upTick(2_000, 42)},
	}}
	engine := newTestEngine(store, nil)

	_, err := engine.Run(context.Background(), macdStrategy(), 100, &RunOptions{MarketID: "mkt-1"})
	assert.Error(t, err)
}

func TestEngineDeterminism(t *testing.T) {
	// Two runs over identical data and parameters yield identical results.
	store := &mockStore{ticks: map[string][]shared.Tick{"mkt-1": winningTicks()}}
	engine := newTestEngine(store, nil)

	first, err := engine.Run(context.Background(), dipStrategy(), 100, &RunOptions{MarketID: "mkt-1"})
	assert.NoError(t, err)
	second, err := engine.Run(context.Background(), dipStrategy(), 100, &RunOptions{MarketID: "mkt-1"})
	assert.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ between identical runs:\n%s", diff)
	}
}

func TestEngineBalanceFoldsAcrossMarkets(t *testing.T) {
	store := &mockStore{ticks: map[string][]shared.Tick{
		"mkt-1": winningTicks(),
		"mkt-2": {
			upTick(1_000, 45),
			upTick(2_000, 35),
			upTick(3_000, 20),
		},
	}}
	selected := []shared.MarketWindow{{MarketID: "mkt-1"}, {MarketID: "mkt-2"}}
	engine := newTestEngine(store, selected)

	strat := dipStrategy()
	result, err := engine.Run(context.Background(), strat, 100, &RunOptions{MarketID: "mkt-1"})
	assert.NoError(t, err)
	assert.Equal(t, result.FinalBalance, float64(160))

	// The orderbook strategy resolves markets through the variance ranking;
	// wins and losses fold through the same running balance.
	result, err = engine.Run(context.Background(), strat, 100, &RunOptions{MarketCount: 2})
	assert.NoError(t, err)
	assert.Equal(t, result.MarketsProcessed, 2)
	assert.Equal(t, result.FinalBalance, result.InitialBalance+result.PNL)
	assert.Equal(t, result.Stats.TotalTrades, 2)
}
