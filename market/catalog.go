package market

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"github.com/tmwry/updown/shared"
)

// CatalogConfig represents the completed market catalog configuration.
type CatalogConfig struct {
	// Store reads persisted market windows and tick histories.
	Store shared.TickStore
	// MinTicks is the minimum number of persisted samples a window needs to
	// be cataloged.
	MinTicks int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Catalog caches completed market windows and ranks them by price variance
// for orderbook only testing.
type Catalog struct {
	cfg     *CatalogConfig
	mtx     sync.RWMutex
	windows []shared.MarketWindow
}

// NewCatalog initializes a new completed market catalog.
func NewCatalog(cfg *CatalogConfig) *Catalog {
	return &Catalog{cfg: cfg}
}

// Refresh reloads the completed market set from the store.
func (c *Catalog) Refresh(ctx context.Context) error {
	windows, err := c.cfg.Store.FindCompletedMarkets(ctx, &shared.MarketFilter{MinTicks: c.cfg.MinTicks})
	if err != nil {
		return fmt.Errorf("refreshing completed market catalog: %v", err)
	}

	c.mtx.Lock()
	c.windows = windows
	c.mtx.Unlock()

	c.cfg.Logger.Info().Msgf("completed market catalog refreshed, %d windows", len(windows))
	return nil
}

// matchesFilter reports whether the provided window satisfies the filter.
func matchesFilter(window *shared.MarketWindow, filter *shared.MarketFilter) bool {
	if filter.Asset != "" && window.Asset != filter.Asset {
		return false
	}
	if filter.Timeframe != 0 && window.Timeframe != filter.Timeframe {
		return false
	}
	if filter.Before != 0 && window.EventEnd > filter.Before {
		return false
	}
	if filter.MinTicks > 0 && window.TickCount < filter.MinTicks {
		return false
	}
	return true
}

// priceVariance computes the variance of the yes bid prices of the provided
// ticks, ignoring zero price gaps.
func priceVariance(ticks []shared.Tick) float64 {
	prices := make([]float64, 0, len(ticks))
	for idx := range ticks {
		if ticks[idx].YesBid == 0 {
			continue
		}
		prices = append(prices, float64(ticks[idx].YesBid))
	}

	variance, err := stats.Variance(prices)
	if err != nil {
		return 0
	}
	return variance
}

// HighestVarianceMarkets returns up to count completed markets matching the
// provided filter, ranked by descending tick price variance. The cached
// window set is used when populated, otherwise the store is queried
// directly.
func (c *Catalog) HighestVarianceMarkets(ctx context.Context, filter *shared.MarketFilter, count int) ([]shared.MarketWindow, error) {
	c.mtx.RLock()
	cached := c.windows
	c.mtx.RUnlock()

	var candidates []shared.MarketWindow
	if len(cached) > 0 {
		for idx := range cached {
			if matchesFilter(&cached[idx], filter) {
				candidates = append(candidates, cached[idx])
			}
		}
	} else {
		windows, err := c.cfg.Store.FindCompletedMarkets(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("finding completed markets: %v", err)
		}
		candidates = windows
	}

	type rankedWindow struct {
		window   shared.MarketWindow
		variance float64
	}

	ranked := make([]rankedWindow, 0, len(candidates))
	for idx := range candidates {
		ticks, err := c.cfg.Store.LoadMarketTicks(ctx, candidates[idx].MarketID)
		if err != nil {
			return nil, fmt.Errorf("loading ticks for market %s: %v", candidates[idx].MarketID, err)
		}
		ranked = append(ranked, rankedWindow{
			window:   candidates[idx],
			variance: priceVariance(ticks),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].variance > ranked[j].variance
	})

	if count > 0 && count < len(ranked) {
		ranked = ranked[:count]
	}

	windows := make([]shared.MarketWindow, 0, len(ranked))
	for idx := range ranked {
		windows = append(windows, ranked[idx].window)
	}
	return windows, nil
}
