package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tmwry/updown/shared"
)

const (
	// SQL statements.
	createMarketTableSQL = "CREATE TABLE IF NOT EXISTS market (id TEXT PRIMARY KEY, slug TEXT, asset TEXT, timeframe TEXT, eventstart INTEGER, eventend INTEGER, tickcount INTEGER)"
	createTickTableSQL   = "CREATE TABLE IF NOT EXISTS tick (market TEXT PRIMARY KEY, data TEXT)"
	persistMarketSQL     = "INSERT OR REPLACE INTO market(id, slug, asset, timeframe, eventstart, eventend, tickcount) VALUES(?,?,?,?,?,?,?)"
	persistTicksSQL      = "INSERT OR REPLACE INTO tick(market, data) VALUES(?,?)"
	loadTicksSQL         = "SELECT data FROM tick WHERE market = ?"
	findMarketsSQL       = "SELECT id, slug, asset, timeframe, eventstart, eventend, tickcount FROM market WHERE eventend <= ? AND tickcount >= ? ORDER BY eventstart"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the TickStore interface.
var _ shared.TickStore = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createMarketTableSQL},
		{SQL: createTickTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// tickRow is the compact persisted form of one price sample.
type tickRow struct {
	T  int64 `json:"t"`
	YB int   `json:"yb"`
	YA int   `json:"ya"`
	NB int   `json:"nb"`
	NA int   `json:"na"`
}

// encodeTicks encodes the provided ticks as a compact json array.
func encodeTicks(ticks []shared.Tick) (string, error) {
	rows := make([]tickRow, 0, len(ticks))
	for idx := range ticks {
		rows = append(rows, tickRow{
			T:  ticks[idx].Timestamp,
			YB: ticks[idx].YesBid,
			YA: ticks[idx].YesAsk,
			NB: ticks[idx].NoBid,
			NA: ticks[idx].NoAsk,
		})
	}

	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding ticks: %v", err)
	}
	return string(b), nil
}

// decodeTicks decodes a persisted compact json tick array.
func decodeTicks(data string) []shared.Tick {
	rows := gjson.Parse(data).Array()
	ticks := make([]shared.Tick, 0, len(rows))
	for idx := range rows {
		ticks = append(ticks, shared.Tick{
			Timestamp: rows[idx].Get("t").Int(),
			YesBid:    int(rows[idx].Get("yb").Int()),
			YesAsk:    int(rows[idx].Get("ya").Int()),
			NoBid:     int(rows[idx].Get("nb").Int()),
			NoAsk:     int(rows[idx].Get("na").Int()),
		})
	}
	return ticks
}

// rowString reads a string column from the provided associative row.
func rowString(row map[string]any, key string) string {
	v, _ := row[key].(string)
	return v
}

// rowInt64 reads an integer column from the provided associative row.
// rqlite returns numbers as json floats.
func rowInt64(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

// parseWindowRow parses a market window from the provided associative row.
func parseWindowRow(row map[string]any) (shared.MarketWindow, error) {
	timeframe, err := shared.ParseTimeframe(rowString(row, "timeframe"))
	if err != nil {
		return shared.MarketWindow{}, fmt.Errorf("parsing market row: %v", err)
	}

	return shared.MarketWindow{
		MarketID:   rowString(row, "id"),
		Slug:       rowString(row, "slug"),
		Asset:      rowString(row, "asset"),
		Timeframe:  timeframe,
		EventStart: rowInt64(row, "eventstart"),
		EventEnd:   rowInt64(row, "eventend"),
		TickCount:  int(rowInt64(row, "tickcount")),
	}, nil
}

// PersistMarket stores the provided market window and its tick history.
func (db *Database) PersistMarket(ctx context.Context, window *shared.MarketWindow, ticks []shared.Tick) error {
	data, err := encodeTicks(ticks)
	if err != nil {
		return err
	}

	tf := window.Timeframe
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistMarketSQL,
			PositionalParams: []any{window.MarketID, window.Slug, window.Asset, tf.String(),
				window.EventStart, window.EventEnd, len(ticks)},
		},
		{
			SQL:              persistTicksSQL,
			PositionalParams: []any{window.MarketID, data},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting market %s: %d -> %s", window.MarketID, idx, errStr)
	}

	return nil
}

// LoadMarketTicks loads the full tick history of the provided market,
// ordered by time.
func (db *Database) LoadMarketTicks(ctx context.Context, marketID string) ([]shared.Tick, error) {
	resp, err := db.client.QuerySingle(ctx, loadTicksSQL, marketID)
	if err != nil {
		return nil, fmt.Errorf("loading ticks for market %s: %v", marketID, err)
	}

	results := resp.GetQueryResultsAssoc()
	if len(results) == 0 || len(results[0].Rows) == 0 {
		return nil, fmt.Errorf("no tick history for market %s", marketID)
	}

	data := rowString(results[0].Rows[0], "data")
	if !gjson.Valid(data) {
		db.cfg.Logger.Error().Msgf("malformed tick data for market %s: %s", marketID, spew.Sdump(results[0].Rows[0]))
		return nil, fmt.Errorf("malformed tick data for market %s", marketID)
	}

	return decodeTicks(data), nil
}

// FindCompletedMarkets finds market windows that ended at or before the
// filter time, satisfying the filter's criteria.
func (db *Database) FindCompletedMarkets(ctx context.Context, filter *shared.MarketFilter) ([]shared.MarketWindow, error) {
	before := filter.Before
	if before == 0 {
		before = time.Now().UnixMilli()
	}

	resp, err := db.client.QuerySingle(ctx, findMarketsSQL, before, filter.MinTicks)
	if err != nil {
		return nil, fmt.Errorf("finding completed markets: %v", err)
	}

	results := resp.GetQueryResultsAssoc()
	if len(results) == 0 {
		return nil, nil
	}

	windows := make([]shared.MarketWindow, 0, len(results[0].Rows))
	for _, row := range results[0].Rows {
		window, err := parseWindowRow(row)
		if err != nil {
			db.cfg.Logger.Error().Msgf("skipping malformed market row: %v: %s", err, spew.Sdump(row))
			continue
		}

		if filter.Asset != "" && window.Asset != filter.Asset {
			continue
		}
		if filter.Timeframe != 0 && window.Timeframe != filter.Timeframe {
			continue
		}

		windows = append(windows, window)
	}

	return windows, nil
}
