package market

import (
	"context"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
	"github.com/tmwry/updown/shared"
)

func newTestCatalog(store shared.TickStore) *Catalog {
	logger := log.With().Str("component", "catalog").Logger()
	return NewCatalog(&CatalogConfig{
		Store:  store,
		Logger: &logger,
	})
}

func bidTicks(bids ...int) []shared.Tick {
	ticks := make([]shared.Tick, 0, len(bids))
	for idx := range bids {
		ticks = append(ticks, shared.Tick{
			Timestamp: int64(idx+1) * 1_000,
			YesBid:    bids[idx],
		})
	}
	return ticks
}

func TestCatalogHighestVariance(t *testing.T) {
	store := &mockStore{
		windows: []shared.MarketWindow{
			fifteenMinuteWindow("flat", 0),
			fifteenMinuteWindow("volatile", 0),
			fifteenMinuteWindow("mild", 0),
		},
		ticks: map[string][]shared.Tick{
			"flat":     bidTicks(50, 50, 50, 50),
			"volatile": bidTicks(10, 90, 5, 95),
			"mild":     bidTicks(45, 55, 48, 52),
		},
	}
	catalog := newTestCatalog(store)

	filter := &shared.MarketFilter{Asset: "BTC", Timeframe: shared.FifteenMinute}
	windows, err := catalog.HighestVarianceMarkets(context.Background(), filter, 2)
	assert.NoError(t, err)

	assert.Equal(t, len(windows), 2)
	assert.Equal(t, windows[0].MarketID, "volatile")
	assert.Equal(t, windows[1].MarketID, "mild")
}

func TestCatalogZeroPricesIgnored(t *testing.T) {
	// Zero price gaps carry no information and do not inflate variance.
	store := &mockStore{
		windows: []shared.MarketWindow{
			fifteenMinuteWindow("gappy", 0),
			fifteenMinuteWindow("steady", 0),
		},
		ticks: map[string][]shared.Tick{
			"gappy":  bidTicks(50, 0, 0, 50, 51),
			"steady": bidTicks(40, 60, 40, 60),
		},
	}
	catalog := newTestCatalog(store)

	windows, err := catalog.HighestVarianceMarkets(context.Background(), &shared.MarketFilter{}, 1)
	assert.NoError(t, err)
	assert.Equal(t, len(windows), 1)
	assert.Equal(t, windows[0].MarketID, "steady")
}

func TestCatalogRefreshServesCache(t *testing.T) {
	store := &mockStore{
		windows: []shared.MarketWindow{
			fifteenMinuteWindow("btc-1", 0),
		},
		ticks: map[string][]shared.Tick{
			"btc-1": bidTicks(40, 60),
			"eth-1": bidTicks(30, 70),
		},
	}
	catalog := newTestCatalog(store)

	err := catalog.Refresh(context.Background())
	assert.NoError(t, err)

	// New windows appearing in the store after a refresh are not seen until
	// the next refresh.
	store.windows = append(store.windows, fifteenMinuteWindow("eth-1", 0))
	windows, err := catalog.HighestVarianceMarkets(context.Background(), &shared.MarketFilter{}, 10)
	assert.NoError(t, err)
	assert.Equal(t, len(windows), 1)
	assert.Equal(t, windows[0].MarketID, "btc-1")

	err = catalog.Refresh(context.Background())
	assert.NoError(t, err)
	windows, err = catalog.HighestVarianceMarkets(context.Background(), &shared.MarketFilter{}, 10)
	assert.NoError(t, err)
	assert.Equal(t, len(windows), 2)
}

func TestMatchesFilter(t *testing.T) {
	window := fifteenMinuteWindow("btc-1", 1_000_000)
	window.TickCount = 50

	tests := []struct {
		name   string
		filter shared.MarketFilter
		want   bool
	}{
		{name: "empty filter matches", filter: shared.MarketFilter{}, want: true},
		{name: "matching asset", filter: shared.MarketFilter{Asset: "BTC"}, want: true},
		{name: "mismatched asset", filter: shared.MarketFilter{Asset: "ETH"}, want: false},
		{name: "matching timeframe", filter: shared.MarketFilter{Timeframe: shared.FifteenMinute}, want: true},
		{name: "mismatched timeframe", filter: shared.MarketFilter{Timeframe: shared.OneHour}, want: false},
		{name: "before window end", filter: shared.MarketFilter{Before: 1_200_000}, want: false},
		{name: "after window end", filter: shared.MarketFilter{Before: 2_000_000}, want: true},
		{name: "enough ticks", filter: shared.MarketFilter{MinTicks: 10}, want: true},
		{name: "too few ticks", filter: shared.MarketFilter{MinTicks: 100}, want: false},
	}

	for _, test := range tests {
		got := matchesFilter(&window, &test.filter)
		if got != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}
}
