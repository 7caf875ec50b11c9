package shared

import "context"

// TickStore defines the requirements for reading persisted market price data.
type TickStore interface {
	// LoadMarketTicks fetches the full ordered tick history of a market.
	LoadMarketTicks(ctx context.Context, marketID string) ([]Tick, error)
	// FindCompletedMarkets fetches completed market windows matching the
	// provided filter.
	FindCompletedMarkets(ctx context.Context, filter *MarketFilter) ([]MarketWindow, error)
}

// MetadataResolver defines the requirements for verifying market metadata.
type MetadataResolver interface {
	// ResolveMarketBySlug resolves market metadata for the provided slug.
	// A nil result without an error means the slug is unknown upstream.
	ResolveMarketBySlug(ctx context.Context, slug string) (*MarketMeta, error)
}

// CandleFeed defines the requirements for fetching continuous asset candles.
type CandleFeed interface {
	// FetchCandleHistory fetches the most recent count candles for the
	// provided asset symbol and timeframe, in chronological order.
	FetchCandleHistory(ctx context.Context, symbol string, timeframe Timeframe, count int) ([]Candlestick, error)
}
