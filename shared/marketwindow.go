package shared

import "time"

// MarketWindow represents the discrete trading window of one up/down market.
type MarketWindow struct {
	// MarketID uniquely identifies the market.
	MarketID string
	// Slug is the human readable market identifier used by the metadata api.
	Slug string
	// Asset is the underlying asset symbol.
	Asset string
	// Timeframe is the duration class of the market window.
	Timeframe Timeframe
	// EventStart is the window open time in unix milliseconds.
	EventStart int64
	// EventEnd is the window close time in unix milliseconds.
	EventEnd int64
	// TickCount is the number of persisted price samples for the window.
	TickCount int
}

// Duration returns the span of the market window.
func (w *MarketWindow) Duration() time.Duration {
	return time.Duration(w.EventEnd-w.EventStart) * time.Millisecond
}

// MarketMeta represents resolved market metadata from the metadata api.
type MarketMeta struct {
	MarketID   string
	Slug       string
	EventStart int64
	EventEnd   int64
	YesTokenID string
	NoTokenID  string
}

// MarketFilter represents the criteria for finding completed markets.
type MarketFilter struct {
	// Asset restricts matches to the provided underlying asset symbol.
	Asset string
	// Timeframe restricts matches to the provided window duration class.
	Timeframe Timeframe
	// Before restricts matches to windows ending at or before the provided
	// unix millisecond time. A zero value means now.
	Before int64
	// MinTicks restricts matches to windows with at least the provided
	// number of persisted samples.
	MinTicks int
}
