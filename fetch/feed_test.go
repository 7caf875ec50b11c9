package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
	"github.com/tmwry/updown/shared"
)

func TestFeedInterval(t *testing.T) {
	tests := []struct {
		name      string
		timeframe shared.Timeframe
		want      string
		wantErr   bool
	}{
		{name: "one minute", timeframe: shared.OneMinute, want: "1m"},
		{name: "fifteen minute", timeframe: shared.FifteenMinute, want: "15m"},
		{name: "one hour", timeframe: shared.OneHour, want: "1h"},
		{name: "unset", timeframe: 0, wantErr: true},
	}

	for _, test := range tests {
		got, err := feedInterval(test.timeframe)
		if test.wantErr {
			if err == nil {
				t.Errorf("%s: expected an error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
		if got != test.want {
			t.Errorf("%s: expected %s, got %s", test.name, test.want, got)
		}
	}
}

func TestParseFeedCandles(t *testing.T) {
	data := `[
		[60000, "100.5", "103.0", "99.2", "101.1", "12.5", 119999],
		[120000, "101.1", "104.4", "100.9", "104.0", "8.3", 179999],
		[180000, "104.0", "104.2", "103.1", "103.5", "2.1", 239999]
	]`

	candles := ParseFeedCandles(gjson.Parse(data).Array(), "BTC", shared.OneMinute)
	assert.Equal(t, len(candles), 3)

	assert.Equal(t, candles[0].Start, int64(60_000))
	assert.Equal(t, candles[0].Open, 100.5)
	assert.Equal(t, candles[0].High, 103.0)
	assert.Equal(t, candles[0].Low, 99.2)
	assert.Equal(t, candles[0].Close, 101.1)
	assert.Equal(t, candles[0].Volume, 12.5)
	assert.Equal(t, candles[0].Market, "BTC")
	assert.Equal(t, candles[0].Timeframe, shared.OneMinute)

	// Ensure only the trailing candle is treated as still forming.
	assert.True(t, candles[0].Closed)
	assert.True(t, candles[1].Closed)
	assert.False(t, candles[2].Closed)
}

func TestParseFeedCandlesShortRows(t *testing.T) {
	data := `[[60000, "100.5"], [120000, "101.1", "104.4", "100.9", "104.0", "8.3"]]`
	candles := ParseFeedCandles(gjson.Parse(data).Array(), "BTC", shared.OneMinute)
	assert.Equal(t, len(candles), 1)
	assert.Equal(t, candles[0].Start, int64(120_000))
}

func TestFetchCandleHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, klinesPath)
		assert.Equal(t, r.URL.Query().Get("symbol"), "BTCUSDT")
		assert.Equal(t, r.URL.Query().Get("interval"), "15m")
		assert.Equal(t, r.URL.Query().Get("limit"), "2")
		w.Write([]byte(`[
			[0, "100.0", "101.0", "99.0", "100.5", "3.2", 899999],
			[900000, "100.5", "102.0", "100.1", "101.7", "4.4", 1799999]
		]`))
	}))
	defer srv.Close()

	fc := NewFeedClient(&FeedConfig{BaseURL: srv.URL})

	candles, err := fc.FetchCandleHistory(context.Background(), "BTC", shared.FifteenMinute, 2)
	assert.NoError(t, err)
	assert.Equal(t, len(candles), 2)
	assert.Equal(t, candles[1].Close, 101.7)
}

func TestFetchCandleHistoryUnknownTimeframe(t *testing.T) {
	fc := NewFeedClient(&FeedConfig{})
	_, err := fc.FetchCandleHistory(context.Background(), "BTC", 99, 10)
	assert.Error(t, err)
}
