package indicator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tmwry/updown/shared"
)

// Calculator defines the requirements for computing indicator value series.
type Calculator interface {
	// Calculate computes the indicator value series for the provided candles
	// and indicator configuration.
	Calculate(ctx context.Context, candles []shared.Candlestick, cfg *Config) ([]Result, error)
}

// ProviderConfig represents the indicator provider configuration.
type ProviderConfig struct {
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Provider computes indicator value series, memoizing results keyed by
// market, timeframe, indicator type, parameters and candle range. Entries
// are safe for concurrent lookup across backtest runs.
type Provider struct {
	cfg      *ProviderConfig
	cache    map[string][]Result
	cacheMtx sync.RWMutex
}

// Ensure the provider implements the Calculator interface.
var _ Calculator = (*Provider)(nil)

// NewProvider initializes a new indicator provider.
func NewProvider(cfg *ProviderConfig) *Provider {
	return &Provider{
		cfg:   cfg,
		cache: make(map[string][]Result),
	}
}

// cacheKey derives the deterministic cache key for the provided candles and
// indicator configuration.
func cacheKey(candles []shared.Candlestick, cfg *Config) string {
	params := make([]string, 0, len(cfg.Params))
	for name, value := range cfg.Params {
		params = append(params, fmt.Sprintf("%s=%v", name, value))
	}
	sort.Strings(params)

	var market string
	var start, end int64
	if len(candles) > 0 {
		market = candles[0].Market
		start = candles[0].Start
		end = candles[len(candles)-1].Start
	}

	return fmt.Sprintf("%s:%s:%s:%s:%d-%d:%d", market, cfg.Timeframe.String(),
		cfg.Kind.String(), strings.Join(params, ","), start, end, len(candles))
}

// Calculate computes the indicator value series for the provided candles and
// indicator configuration, serving repeated calls from the cache.
func (p *Provider) Calculate(ctx context.Context, candles []shared.Candlestick, cfg *Config) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(candles, cfg)

	p.cacheMtx.RLock()
	cached, ok := p.cache[key]
	p.cacheMtx.RUnlock()
	if ok {
		return cached, nil
	}

	results, err := p.compute(candles, cfg)
	if err != nil {
		return nil, fmt.Errorf("calculating %s indicator: %v", cfg.Kind.String(), err)
	}

	p.cacheMtx.Lock()
	p.cache[key] = results
	p.cacheMtx.Unlock()

	return results, nil
}

// compute dispatches the indicator calculation for the provided type.
func (p *Provider) compute(candles []shared.Candlestick, cfg *Config) ([]Result, error) {
	switch cfg.Kind {
	case SMA:
		return calculateSMA(candles, cfg), nil
	case EMA:
		return calculateEMA(candles, cfg), nil
	case RSI:
		return calculateRSI(candles, cfg), nil
	case MACD:
		return calculateMACD(candles, cfg), nil
	case Bollinger:
		return calculateBollinger(candles, cfg)
	default:
		return nil, fmt.Errorf("unsupported indicator type: %s", cfg.Kind.String())
	}
}
