package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tmwry/updown/candle"
	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/position"
	"github.com/tmwry/updown/shared"
	"github.com/tmwry/updown/strategy"
)

// Mode represents how a market simulation decides entry.
type Mode int

const (
	// EvaluateEntry evaluates the strategy's conditions and orderbook rules
	// against the market's own data.
	EvaluateEntry Mode = iota
	// EnterImmediately enters at the first priced tick: the trigger was
	// already confirmed upstream on the continuous asset feed.
	EnterImmediately
)

// SimulatorConfig represents the market simulator configuration.
type SimulatorConfig struct {
	// Strategy is the strategy under test.
	Strategy *strategy.Strategy
	// Calculator computes indicator value series.
	Calculator indicator.Calculator
	// ExitPriceCents is the resolved exit price, nil when none is configured.
	ExitPriceCents *int
	// MarkAtEnd marks open positions to the last observed price when the
	// tick history ends, instead of applying the binary payoff. Set when the
	// run's time range cuts the data before the market actually resolves.
	MarkAtEnd bool
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Simulation represents the outcome of simulating one market.
type Simulation struct {
	Market string
	// Trades is the ledger of the market in chronological order.
	Trades []Trade
	// Returns holds the per trade return of each closed position.
	Returns []float64
	// Equity holds chronological equity samples, including the unrealized
	// value of an open position.
	Equity []float64
	// FinalBalance is the balance after the market resolved.
	FinalBalance float64
	// SkippedFills counts fill opportunities skipped on insufficient balance.
	SkippedFills int
	// Start and End bound the simulated data in unix milliseconds.
	Start int64
	End   int64
}

// Simulator replays a market's tick history through a strategy.
type Simulator struct {
	cfg *SimulatorConfig
}

// NewSimulator initializes a new market simulator.
func NewSimulator(cfg *SimulatorConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run simulates the provided market tick history, starting from the provided
// balance. The tick loop is single threaded, markets never share state
// beyond the balance handed in and out.
func (s *Simulator) Run(ctx context.Context, marketID string, ticks []shared.Tick, mode Mode, balance float64) (*Simulation, error) {
	strat := s.cfg.Strategy
	kind := strat.Kind()

	candles := candle.Build(ticks, marketID, strat.CandleTimeframe(), strat.Direction)

	series := make(map[string][]indicator.Result)
	if mode == EvaluateEntry && kind == strategy.IndicatorTriggered {
		for _, cfg := range strat.ConditionIndicators() {
			results, err := s.cfg.Calculator.Calculate(ctx, candles, &cfg)
			if err != nil {
				return nil, fmt.Errorf("calculating indicator %s for market %s: %v", cfg.ID, marketID, err)
			}
			series[cfg.ID] = results
		}
	}

	eval := strategy.NewEvaluator(strat.Conditions, strat.Logic, series)

	sim := &Simulation{
		Market:       marketID,
		FinalBalance: balance,
		Equity:       []float64{balance},
	}
	if len(ticks) > 0 {
		sim.Start = ticks[0].Timestamp
		sim.End = ticks[len(ticks)-1].Timestamp
	}

	var pos *position.Position
	var entered bool
	var prevCents, lastCents int
	var lastTimestamp int64
	candleIdx := 0

	for idx := range ticks {
		tick := &ticks[idx]
		cents := tick.DirectionPrice(strat.Direction)
		if cents == 0 {
			continue
		}

		switch {
		case pos != nil && pos.Status == position.Open:
			// Monitor the open position for its exit price.
			if pos.TrackPrice(cents, s.cfg.ExitPriceCents) {
				settlement := pos.SettleExit(*s.cfg.ExitPriceCents, tick.Timestamp)
				sim.settle(pos, &settlement)
			}
		case !entered:
			// Look for an entry opportunity on this tick.
			switch {
			case mode == EnterImmediately:
				pos = s.tryEnter(sim, prevCents, cents, tick.Timestamp,
					"trigger confirmed on asset feed", &entered)
			case strategy.EvaluateRules(strat.Rules, tick, strat.Direction):
				pos = s.tryEnter(sim, prevCents, cents, tick.Timestamp,
					"orderbook rules met", &entered)
			}

			// Evaluate indicator conditions at every candle close reached
			// by this tick.
			for !entered && candleIdx < len(candles) && tick.Timestamp >= candles[candleIdx].EndMs() {
				snap := snapshotAt(candles, candleIdx)
				if eval.Evaluate(snap) {
					pos = s.tryEnter(sim, prevCents, cents, tick.Timestamp,
						fmt.Sprintf("entry conditions met at candle close %d", snap.Timestamp), &entered)
				}
				candleIdx++
			}
		}

		equity := sim.FinalBalance
		if pos != nil {
			equity += pos.MarkValue(cents)
		}
		sim.Equity = append(sim.Equity, equity)
		prevCents = cents
		lastCents = cents
		lastTimestamp = tick.Timestamp
	}

	// Terminal settlement for a position still open at market close. An
	// unreached exit price expires worthless, otherwise the market's binary
	// payoff applies unless the data was cut before resolution.
	if pos != nil && pos.Status == position.Open {
		var settlement position.Settlement
		switch {
		case s.cfg.ExitPriceCents != nil:
			settlement = pos.SettleExpired(lastTimestamp)
		case s.cfg.MarkAtEnd:
			settlement = pos.SettleMark(lastCents, lastTimestamp)
		default:
			settlement = pos.SettleBinary(lastCents, lastTimestamp)
		}
		sim.settle(pos, &settlement)
		sim.Equity = append(sim.Equity, sim.FinalBalance)
	}

	return sim, nil
}

// tryEnter executes the first fillable ladder order for an entry
// opportunity. Insufficient balance skips the fill without consuming the
// opportunity, it is retried on the next one.
func (s *Simulator) tryEnter(sim *Simulation, prevCents, cents int, timestamp int64, reason string, entered *bool) *position.Position {
	strat := s.cfg.Strategy

	idx, ok := firstFillableOrder(strat.Ladder, strat.Kind(), prevCents, cents)
	if !ok {
		return nil
	}

	order := &strat.Ladder[idx]
	cost := order.Cost()
	if cost > sim.FinalBalance {
		sim.SkippedFills++
		s.cfg.Logger.Warn().Msgf("insufficient balance for ladder order %d on %s: need %.2f, have %.2f",
			idx, sim.Market, cost, sim.FinalBalance)
		return nil
	}

	pos := position.New(sim.Market, strat.Direction, timestamp, order.PriceCents, order.Shares)
	sim.FinalBalance -= cost
	sim.Trades = append(sim.Trades, Trade{
		Timestamp:  timestamp,
		Market:     sim.Market,
		Side:       Buy,
		PriceCents: order.PriceCents,
		Shares:     order.Shares,
		Value:      cost,
		Balance:    sim.FinalBalance,
		Reason:     reason,
	})

	*entered = true
	return pos
}

// settle credits a settlement back to the balance and appends the closing
// ledger event.
func (sim *Simulation) settle(pos *position.Position, settlement *position.Settlement) {
	pnl := pos.PNL(settlement.Payout)
	sim.FinalBalance += settlement.Payout

	side := Loss
	if settlement.Payout > 0 {
		side = Sell
	}

	sim.Trades = append(sim.Trades, Trade{
		Timestamp:  settlement.Timestamp,
		Market:     pos.Market,
		Side:       side,
		PriceCents: settlement.PriceCents,
		Shares:     pos.Shares,
		Value:      settlement.Payout,
		PNL:        pnl,
		Balance:    sim.FinalBalance,
		Reason:     settlement.Reason,
	})

	if pos.Cost > 0 {
		sim.Returns = append(sim.Returns, pnl/pos.Cost)
	}
}

// snapshotAt builds the condition evaluation snapshot for the candle at the
// provided index.
func snapshotAt(candles []shared.Candlestick, idx int) *strategy.Snapshot {
	snap := &strategy.Snapshot{
		Price:     candles[idx].Close,
		Timestamp: candles[idx].EndMs(),
		Index:     idx,
	}
	if idx > 0 {
		snap.PrevPrice = candles[idx-1].Close
		snap.PrevTimestamp = candles[idx-1].EndMs()
	}
	if idx > 1 {
		snap.Prev2Price = candles[idx-2].Close
		snap.Prev2Timestamp = candles[idx-2].EndMs()
	}
	return snap
}
