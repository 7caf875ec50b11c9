package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/tmwry/updown/backtest"
	"github.com/tmwry/updown/database"
	"github.com/tmwry/updown/fetch"
	"github.com/tmwry/updown/indicator"
	"github.com/tmwry/updown/market"
	"github.com/tmwry/updown/strategy"
)

const (
	// defaultCatalogRefreshMinutes is the default completed market catalog
	// refresh interval.
	defaultCatalogRefreshMinutes = 30
)

// BacktestConfig represents the configuration struct for the backtest
// service.
type BacktestConfig struct {
	// DBEndpoint represents the database connection endpoint.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// GammaURL overrides the market metadata api endpoint.
	GammaURL string
	// FeedURL overrides the continuous asset feed endpoint.
	FeedURL string
	// CatalogRefreshMinutes is the completed market catalog refresh
	// interval, zero for the default.
	CatalogRefreshMinutes int
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config has sane inputs.
func (cfg *BacktestConfig) Validate() error {
	var errs error

	if cfg.DBEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Backtest represents the strategy backtesting service.
type Backtest struct {
	cfg          *BacktestConfig
	db           *database.Database
	gamma        *fetch.GammaClient
	feed         *fetch.FeedClient
	provider     *indicator.Provider
	selector     *market.Selector
	catalog      *market.Catalog
	engine       *backtest.Engine
	jobScheduler *gocron.Scheduler
	logger       *zerolog.Logger
}

// NewBacktest initializes a new backtest service.
func NewBacktest(ctx context.Context, cfg *BacktestConfig) (*Backtest, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating backtest service config: %v", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "backtest").Logger()

	dbLogger := logger.With().Str("component", "database").Logger()
	db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
		Endpoint: cfg.DBEndpoint,
		User:     cfg.DBUser,
		Pass:     cfg.DBPass,
		Logger:   &dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating database: %v", err)
	}

	gamma := fetch.NewGammaClient(&fetch.GammaConfig{BaseURL: cfg.GammaURL})
	feed := fetch.NewFeedClient(&fetch.FeedConfig{BaseURL: cfg.FeedURL})

	providerLogger := logger.With().Str("component", "indicatorprovider").Logger()
	provider := indicator.NewProvider(&indicator.ProviderConfig{Logger: &providerLogger})

	selectorLogger := logger.With().Str("component", "selector").Logger()
	selector := market.NewSelector(&market.SelectorConfig{
		Feed:       feed,
		Calculator: provider,
		Store:      db,
		Resolver:   gamma,
		Logger:     &selectorLogger,
	})

	catalogLogger := logger.With().Str("component", "catalog").Logger()
	catalog := market.NewCatalog(&market.CatalogConfig{
		Store:  db,
		Logger: &catalogLogger,
	})

	engineLogger := logger.With().Str("component", "engine").Logger()
	engine := backtest.NewEngine(&backtest.EngineConfig{
		Store:         db,
		Calculator:    provider,
		SelectMarkets: selector.SelectMarkets,
		RankMarkets:   catalog.HighestVarianceMarkets,
		Logger:        &engineLogger,
	})

	service := &Backtest{
		cfg:          cfg,
		db:           db,
		gamma:        gamma,
		feed:         feed,
		provider:     provider,
		selector:     selector,
		catalog:      catalog,
		engine:       engine,
		jobScheduler: gocron.NewScheduler(time.UTC),
		logger:       &logger,
	}

	return service, nil
}

// RunBacktest executes a backtest of the provided strategy.
func (s *Backtest) RunBacktest(ctx context.Context, strat *strategy.Strategy, initialBalance float64, opts *backtest.RunOptions) (*backtest.Result, error) {
	return s.engine.Run(ctx, strat, initialBalance, opts)
}

// Run handles the lifecycle processes of the backtest service. The completed
// market catalog is refreshed immediately and then on an interval, keeping
// orderbook only runs served from a warm window set.
func (s *Backtest) Run(ctx context.Context) {
	err := s.catalog.Refresh(ctx)
	if err != nil {
		s.logger.Error().Msgf("refreshing market catalog: %v", err)
	}

	interval := s.cfg.CatalogRefreshMinutes
	if interval <= 0 {
		interval = defaultCatalogRefreshMinutes
	}

	_, err = s.jobScheduler.Every(interval).Minutes().Do(func() {
		err := s.catalog.Refresh(ctx)
		if err != nil {
			s.logger.Error().Msgf("refreshing market catalog: %v", err)
		}
	})
	if err != nil {
		s.logger.Error().Msgf("scheduling market catalog refresh: %v", err)
	}

	s.jobScheduler.StartAsync()

	<-ctx.Done()
	s.jobScheduler.Stop()
}
