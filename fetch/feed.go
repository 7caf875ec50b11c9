package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tmwry/updown/shared"
)

const (
	// defaultFeedURL is the default continuous asset feed endpoint.
	defaultFeedURL = "https://api.binance.com"
	// klinesPath is the candle history path.
	klinesPath = "/api/v3/klines"
	// maxCandleBatch is the feed's maximum candles per request.
	maxCandleBatch = 1000
)

// FeedConfig represents the configuration for the asset feed client.
type FeedConfig struct {
	// BaseURL overrides the feed endpoint, empty for the default.
	BaseURL string
}

// FeedClient fetches continuous candle history for an underlying asset. The
// client is safe for concurrent use.
type FeedClient struct {
	cfg   *FeedConfig
	httpc http.Client
}

// Ensure the FeedClient implements the CandleFeed interface.
var _ shared.CandleFeed = (*FeedClient)(nil)

// NewFeedClient instantiates a new asset feed client.
func NewFeedClient(cfg *FeedConfig) *FeedClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultFeedURL
	}
	return &FeedClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
	}
}

// formURL creates full urls including parameters for the api.
func (c *FeedClient) formURL(path string, params string) string {
	buf := bytes.NewBuffer(make([]byte, 0, 512))
	buf.WriteString(c.cfg.BaseURL)
	buf.WriteString(path)
	buf.WriteString("?")
	buf.WriteString(params)

	return buf.String()
}

// feedSymbol maps an asset symbol to its feed trading pair.
func feedSymbol(asset string) string {
	return asset + "USDT"
}

// feedInterval maps a timeframe to its feed interval name.
func feedInterval(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.OneMinute:
		return "1m", nil
	case shared.FifteenMinute:
		return "15m", nil
	case shared.OneHour:
		return "1h", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// ParseFeedCandles parses candlesticks from the provided feed rows. Feed
// rows are positional arrays of open time, open, high, low, close and
// volume. All but the last candle are sealed, the last may still be
// forming.
func ParseFeedCandles(rows []gjson.Result, market string, timeframe shared.Timeframe) []shared.Candlestick {
	candles := make([]shared.Candlestick, 0, len(rows))

	for idx := range rows {
		row := rows[idx].Array()
		if len(row) < 6 {
			continue
		}

		candles = append(candles, shared.Candlestick{
			Start:     row[0].Int(),
			Open:      row[1].Float(),
			High:      row[2].Float(),
			Low:       row[3].Float(),
			Close:     row[4].Float(),
			Volume:    row[5].Float(),
			Closed:    idx < len(rows)-1,
			Market:    market,
			Timeframe: timeframe,
		})
	}

	return candles
}

// FetchCandleHistory fetches up to count continuous candles for the
// provided asset, oldest first.
func (c *FeedClient) FetchCandleHistory(ctx context.Context, asset string, timeframe shared.Timeframe, count int) ([]shared.Candlestick, error) {
	interval, err := feedInterval(timeframe)
	if err != nil {
		return nil, err
	}

	if count <= 0 || count > maxCandleBatch {
		count = maxCandleBatch
	}

	params := url.Values{}
	params.Add("symbol", feedSymbol(asset))
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formURL(klinesPath, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating candle history request: %v", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching candle history (%s) for %s: %v", interval, asset, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching candle history for %s: status %d", asset, resp.StatusCode)
	}

	return ParseFeedCandles(gjson.ParseBytes(body).Array(), asset, timeframe), nil
}
