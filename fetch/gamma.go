package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tmwry/updown/shared"
)

const (
	// defaultGammaURL is the default market metadata api endpoint.
	defaultGammaURL = "https://gamma-api.polymarket.com"
	// marketsPath is the market lookup path.
	marketsPath = "/markets"
	// metaTimeLayout is the timestamp layout of the metadata api.
	metaTimeLayout = time.RFC3339
)

// GammaConfig represents the configuration for the market metadata client.
type GammaConfig struct {
	// BaseURL overrides the metadata api endpoint, empty for the default.
	BaseURL string
}

// GammaClient resolves market metadata from the gamma api. The client is
// safe for concurrent use.
type GammaClient struct {
	cfg   *GammaConfig
	httpc http.Client
}

// Ensure the GammaClient implements the MetadataResolver interface.
var _ shared.MetadataResolver = (*GammaClient)(nil)

// NewGammaClient instantiates a new market metadata client.
func NewGammaClient(cfg *GammaConfig) *GammaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGammaURL
	}
	return &GammaClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
	}
}

// formURL creates full urls including parameters for the api.
func (c *GammaClient) formURL(path string, params string) string {
	buf := bytes.NewBuffer(make([]byte, 0, 512))
	buf.WriteString(c.cfg.BaseURL)
	buf.WriteString(path)
	buf.WriteString("?")
	buf.WriteString(params)

	return buf.String()
}

// ParseMarketMeta parses market metadata from the provided json object.
func ParseMarketMeta(obj gjson.Result) (*shared.MarketMeta, error) {
	meta := &shared.MarketMeta{
		MarketID: obj.Get("id").String(),
		Slug:     obj.Get("slug").String(),
	}

	start, err := time.Parse(metaTimeLayout, obj.Get("startDate").String())
	if err != nil {
		return nil, fmt.Errorf("parsing market start date: %v", err)
	}
	end, err := time.Parse(metaTimeLayout, obj.Get("endDate").String())
	if err != nil {
		return nil, fmt.Errorf("parsing market end date: %v", err)
	}

	meta.EventStart = start.UnixMilli()
	meta.EventEnd = end.UnixMilli()

	// Token ids arrive as a json array encoded into a string field.
	tokens := gjson.Parse(obj.Get("clobTokenIds").String()).Array()
	if len(tokens) == 2 {
		meta.YesTokenID = tokens[0].String()
		meta.NoTokenID = tokens[1].String()
	}

	return meta, nil
}

// ResolveMarketBySlug resolves metadata for the market with the provided
// slug. An unknown slug resolves to nil metadata without an error.
func (c *GammaClient) ResolveMarketBySlug(ctx context.Context, slug string) (*shared.MarketMeta, error) {
	params := url.Values{}
	params.Add("slug", slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formURL(marketsPath, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating market metadata request: %v", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching market metadata for %s: %v", slug, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching market metadata for %s: status %d", slug, resp.StatusCode)
	}

	markets := gjson.ParseBytes(body).Array()
	if len(markets) == 0 {
		return nil, nil
	}

	return ParseMarketMeta(markets[0])
}
