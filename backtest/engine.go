package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tmwry/updown/candle"
	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/shared"
	"github.com/tmwry/updown/strategy"
)

// EngineConfig represents the backtest engine configuration.
type EngineConfig struct {
	// Store reads persisted market tick histories.
	Store shared.TickStore
	// Calculator computes indicator value series.
	Calculator indicator.Calculator
	// SelectMarkets resolves the markets an indicator strategy should trade
	// across, from triggers confirmed on the continuous asset feed.
	SelectMarkets func(ctx context.Context, strat *strategy.Strategy, count int) ([]shared.MarketWindow, error)
	// RankMarkets resolves the highest price variance completed markets for
	// orderbook only testing.
	RankMarkets func(ctx context.Context, filter *shared.MarketFilter, count int) ([]shared.MarketWindow, error)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// RunOptions represents the per run knobs of a backtest.
type RunOptions struct {
	// MarketID runs against one explicit market.
	MarketID string
	// MarketCount bounds the market set resolved in multi market mode.
	MarketCount int
	// ExitPriceCents overrides the strategy's configured exit price.
	ExitPriceCents *int
	// Start and End optionally bound the tick history in unix milliseconds.
	Start int64
	End   int64
}

// Result represents the full report of one backtest run.
type Result struct {
	StrategyID string
	// Start and End bound the simulated data in unix milliseconds.
	Start int64
	End   int64

	InitialBalance float64
	FinalBalance   float64
	PNL            float64

	MarketsProcessed int
	MarketsSkipped   int
	SkippedFills     int

	Stats Stats
	// Trades is the full ledger of the run in chronological order.
	Trades []Trade
}

// Engine drives backtest runs across one or many markets. A run is
// sequential, markets are processed one at a time in their selected order;
// separate runs are independent and may execute concurrently.
type Engine struct {
	cfg *EngineConfig
}

// NewEngine initializes a new backtest engine.
func NewEngine(cfg *EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// resolveMarkets resolves the candidate market set for the provided strategy
// and run options.
func (e *Engine) resolveMarkets(ctx context.Context, strat *strategy.Strategy, opts *RunOptions) ([]shared.MarketWindow, Mode, error) {
	if opts.MarketID != "" {
		return []shared.MarketWindow{{MarketID: opts.MarketID}}, EvaluateEntry, nil
	}

	count := opts.MarketCount
	if count <= 0 {
		count = 1
	}

	if strat.Kind() == strategy.IndicatorTriggered {
		windows, err := e.cfg.SelectMarkets(ctx, strat, count)
		if err != nil {
			return nil, 0, fmt.Errorf("selecting markets: %v", err)
		}
		return windows, EnterImmediately, nil
	}

	filter := &shared.MarketFilter{
		Asset:     strat.Asset,
		Timeframe: strat.Timeframe,
		Before:    opts.End,
	}
	windows, err := e.cfg.RankMarkets(ctx, filter, count)
	if err != nil {
		return nil, 0, fmt.Errorf("ranking completed markets: %v", err)
	}
	return windows, EvaluateEntry, nil
}

// clampTicks bounds the provided tick history to the run's time range.
func clampTicks(ticks []shared.Tick, start, end int64) []shared.Tick {
	if start == 0 && end == 0 {
		return ticks
	}

	clamped := make([]shared.Tick, 0, len(ticks))
	for idx := range ticks {
		ts := ticks[idx].Timestamp
		if start != 0 && ts < start {
			continue
		}
		if end != 0 && ts > end {
			continue
		}
		clamped = append(clamped, ticks[idx])
	}
	return clamped
}

// Run executes a backtest of the provided strategy. Markets with too few
// candles for indicator warm up are skipped, the run only fails when no
// market at all could be processed.
func (e *Engine) Run(ctx context.Context, strat *strategy.Strategy, initialBalance float64, opts *RunOptions) (*Result, error) {
	if err := strat.Validate(); err != nil {
		return nil, fmt.Errorf("validating strategy: %v", err)
	}
	if initialBalance <= 0 {
		return nil, fmt.Errorf("initial balance must be positive, got %.2f", initialBalance)
	}

	windows, mode, err := e.resolveMarkets(ctx, strat, opts)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no markets found for strategy %s", strat.ID)
	}

	exitPrice := strat.ExitPriceCents
	if opts.ExitPriceCents != nil {
		exitPrice = opts.ExitPriceCents
	}

	result := &Result{
		StrategyID:     strat.ID,
		InitialBalance: initialBalance,
		FinalBalance:   initialBalance,
	}

	warmup := strat.WarmupPeriod()
	equity := []float64{initialBalance}
	var returns []float64

	for idx := range windows {
		marketID := windows[idx].MarketID

		ticks, err := e.cfg.Store.LoadMarketTicks(ctx, marketID)
		if err != nil {
			return nil, fmt.Errorf("loading ticks for market %s: %v", marketID, err)
		}
		ticks = clampTicks(ticks, opts.Start, opts.End)

		if warmup > 0 && mode == EvaluateEntry {
			candles := candle.Build(ticks, marketID, strat.CandleTimeframe(), strat.Direction)
			if len(candles) < warmup {
				e.cfg.Logger.Info().Msgf("skipping market %s: %d candles, warm up needs %d",
					marketID, len(candles), warmup)
				result.MarketsSkipped++
				continue
			}
		}

		// A time bounded run can cut the data before the market resolves, in
		// which case an open position is marked to the last price instead of
		// settling on the binary payoff.
		markAtEnd := opts.End != 0 && (windows[idx].EventEnd == 0 || opts.End < windows[idx].EventEnd)

		simulator := NewSimulator(&SimulatorConfig{
			Strategy:       strat,
			Calculator:     e.cfg.Calculator,
			ExitPriceCents: exitPrice,
			MarkAtEnd:      markAtEnd,
			Logger:         e.cfg.Logger,
		})

		sim, err := simulator.Run(ctx, marketID, ticks, mode, result.FinalBalance)
		if err != nil {
			return nil, fmt.Errorf("simulating market %s: %v", marketID, err)
		}

		result.MarketsProcessed++
		result.FinalBalance = sim.FinalBalance
		result.SkippedFills += sim.SkippedFills
		result.Trades = append(result.Trades, sim.Trades...)
		returns = append(returns, sim.Returns...)
		equity = append(equity, sim.Equity...)

		if result.Start == 0 || (sim.Start != 0 && sim.Start < result.Start) {
			result.Start = sim.Start
		}
		if sim.End > result.End {
			result.End = sim.End
		}
	}

	if result.MarketsProcessed == 0 {
		return nil, fmt.Errorf("no markets could be processed for strategy %s", strat.ID)
	}

	result.PNL = result.FinalBalance - result.InitialBalance
	result.Stats = computeStats(result.Trades, returns, equity)

	return result, nil
}
