package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/shared"
	"github.com/tmwry/updown/strategy"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

const (
	// defaultCandleCount is the default length of the continuous candle
	// history fetched for trigger evaluation.
	defaultCandleCount = 500
	// resolverInterval is the minimum spacing between metadata resolver
	// calls.
	resolverInterval = time.Second / 2
	// maxVerifyFailures is the number of consecutive resolver failures
	// tolerated before falling back to duration based window matching.
	maxVerifyFailures = 3
)

// SelectorConfig represents the market selector configuration.
type SelectorConfig struct {
	// Feed fetches continuous candle history for the underlying asset.
	Feed shared.CandleFeed
	// Calculator computes indicator value series.
	Calculator indicator.Calculator
	// Store reads persisted market windows.
	Store shared.TickStore
	// Resolver verifies matched windows against the metadata api.
	Resolver shared.MetadataResolver
	// MaxLag bounds how long after a trigger a selected market window may
	// start. A zero value defaults to the strategy timeframe duration.
	MaxLag time.Duration
	// CandleCount is the length of the candle history fetched from the
	// feed. A zero value uses the default.
	CandleCount int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Selector maps confirmed indicator triggers on the continuous asset feed
// to the next tradable market windows. A selector is shared by concurrent
// runs, the failure counter is atomic.
type Selector struct {
	cfg            *SelectorConfig
	limiter        *rate.Limiter
	verifyFailures atomic.Int32
}

// NewSelector initializes a new market selector.
func NewSelector(cfg *SelectorConfig) *Selector {
	if cfg.CandleCount <= 0 {
		cfg.CandleCount = defaultCandleCount
	}
	return &Selector{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(resolverInterval), 1),
	}
}

// feedTimeframe resolves the timeframe of the continuous candle series from
// the strategy's condition indicators.
func feedTimeframe(strat *strategy.Strategy) (shared.Timeframe, error) {
	indicators := strat.ConditionIndicators()
	if len(indicators) == 0 {
		return 0, fmt.Errorf("strategy %s has no condition indicators to trigger on", strat.ID)
	}

	timeframe := indicators[0].Timeframe
	for idx := range indicators {
		if indicators[idx].Timeframe != timeframe {
			return 0, fmt.Errorf("strategy %s mixes indicator timeframes %s and %s",
				strat.ID, timeframe.String(), indicators[idx].Timeframe.String())
		}
	}

	return timeframe, nil
}

// triggers evaluates the strategy's entry conditions at every candle close
// over the provided continuous series and returns the confirmed trigger
// times in unix milliseconds.
func (s *Selector) triggers(ctx context.Context, strat *strategy.Strategy, candles []shared.Candlestick) ([]int64, error) {
	series := make(map[string][]indicator.Result)
	indicators := strat.ConditionIndicators()
	for idx := range indicators {
		results, err := s.cfg.Calculator.Calculate(ctx, candles, &indicators[idx])
		if err != nil {
			return nil, fmt.Errorf("calculating %s series: %v", indicators[idx].ID, err)
		}
		series[indicators[idx].ID] = results
	}

	evaluator := strategy.NewEvaluator(strat.Conditions, strat.Logic, series)

	var confirmed []int64
	for idx := 1; idx < len(candles); idx++ {
		// A signal is only known once its candle seals.
		if !candles[idx].Closed {
			continue
		}

		snapshot := strategy.Snapshot{
			Price:         candles[idx].Close,
			Timestamp:     candles[idx].EndMs(),
			PrevPrice:     candles[idx-1].Close,
			PrevTimestamp: candles[idx-1].EndMs(),
			Index:         idx,
		}
		if idx > 1 {
			snapshot.Prev2Price = candles[idx-2].Close
			snapshot.Prev2Timestamp = candles[idx-2].EndMs()
		}
		if evaluator.Evaluate(&snapshot) {
			confirmed = append(confirmed, candles[idx].EndMs())
		}
	}

	return confirmed, nil
}

// matchWindow finds the market window starting at or after the provided
// trigger time and within the allowed lag, preferring the closest start.
// The windows are expected sorted by ascending start time.
func matchWindow(windows []shared.MarketWindow, trigger int64, maxLag time.Duration) *shared.MarketWindow {
	limit := trigger + maxLag.Milliseconds()
	for idx := range windows {
		start := windows[idx].EventStart
		if start < trigger {
			continue
		}
		if start >= limit {
			return nil
		}
		return &windows[idx]
	}
	return nil
}

// verifyWindow checks the provided window against the metadata resolver.
// Repeated resolver failures switch verification to duration based matching
// so a degraded metadata api cannot stall a run.
func (s *Selector) verifyWindow(ctx context.Context, window *shared.MarketWindow) bool {
	if window.Slug == "" || s.verifyFailures.Load() >= maxVerifyFailures {
		return window.Duration() == window.Timeframe.Duration()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return false
	}

	meta, err := s.cfg.Resolver.ResolveMarketBySlug(ctx, window.Slug)
	if err != nil {
		failures := s.verifyFailures.Inc()
		s.cfg.Logger.Error().Msgf("resolving market %s (failure %d/%d): %v",
			window.Slug, failures, maxVerifyFailures, err)
		return window.Duration() == window.Timeframe.Duration()
	}

	s.verifyFailures.Store(0)
	if meta == nil {
		s.cfg.Logger.Info().Msgf("market %s unknown to metadata api, dropping", window.Slug)
		return false
	}

	return meta.EventStart == window.EventStart
}

// SelectMarkets resolves the market windows an indicator triggered strategy
// should trade across. Triggers with no matching tradable window are logged
// and dropped, the result may carry fewer windows than requested.
func (s *Selector) SelectMarkets(ctx context.Context, strat *strategy.Strategy, count int) ([]shared.MarketWindow, error) {
	timeframe, err := feedTimeframe(strat)
	if err != nil {
		return nil, err
	}

	candles, err := s.cfg.Feed.FetchCandleHistory(ctx, strat.Asset, timeframe, s.cfg.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candle history: %v", strat.Asset, err)
	}

	confirmed, err := s.triggers(ctx, strat, candles)
	if err != nil {
		return nil, err
	}
	if len(confirmed) == 0 {
		return nil, nil
	}

	filter := &shared.MarketFilter{
		Asset:     strat.Asset,
		Timeframe: strat.Timeframe,
	}
	windows, err := s.cfg.Store.FindCompletedMarkets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("finding completed markets: %v", err)
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].EventStart < windows[j].EventStart
	})

	maxLag := s.cfg.MaxLag
	if maxLag <= 0 {
		maxLag = strat.Timeframe.Duration()
	}

	selected := make([]shared.MarketWindow, 0, count)
	seen := make(map[string]struct{})
	for _, trigger := range confirmed {
		window := matchWindow(windows, trigger, maxLag)
		if window == nil {
			s.cfg.Logger.Info().Msgf("no tradable market window within %s of trigger at %d, skipping",
				maxLag, trigger)
			continue
		}

		if _, ok := seen[window.MarketID]; ok {
			continue
		}

		if !s.verifyWindow(ctx, window) {
			continue
		}

		seen[window.MarketID] = struct{}{}
		selected = append(selected, *window)
		if len(selected) == count {
			break
		}
	}

	return selected, nil
}
