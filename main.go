package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/tmwry/updown/backtest"
	"github.com/tmwry/updown/service"
	"github.com/tmwry/updown/strategy"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	strat, err := strategy.LoadFile(cfg.StrategyFilepath)
	if err != nil {
		log.Printf("loading strategy: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svcCfg := service.BacktestConfig{
		DBEndpoint:            cfg.DBEndpoint,
		DBUser:                cfg.DBUser,
		DBPass:                cfg.DBPass,
		GammaURL:              cfg.GammaURL,
		FeedURL:               cfg.FeedURL,
		CatalogRefreshMinutes: cfg.CatalogRefreshMinutes,
		Cancel:                cancel,
	}
	svc, err := service.NewBacktest(ctx, &svcCfg)
	if err != nil {
		log.Printf("creating backtest service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	go svc.Run(ctx)

	opts := &backtest.RunOptions{
		MarketID:    cfg.MarketID,
		MarketCount: cfg.MarketCount,
	}
	if cfg.ExitPrice > 0 {
		exitPrice := cfg.ExitPrice
		opts.ExitPriceCents = &exitPrice
	}

	result, err := svc.RunBacktest(ctx, strat, cfg.InitialBalance, opts)
	if err != nil {
		log.Printf("running backtest: %v", err)
		return
	}

	renderLedger(os.Stdout, result)
	renderSummary(os.Stdout, result)
}
