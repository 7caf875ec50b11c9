package main

import (
	"strings"
	"testing"

	"github.com/tmwry/updown/backtest"
)

func testResult() *backtest.Result {
	return &backtest.Result{
		StrategyID:       "dip",
		Start:            1_000,
		End:              5_000,
		InitialBalance:   100,
		FinalBalance:     160,
		PNL:              60,
		MarketsProcessed: 1,
		Stats: backtest.Stats{
			TotalTrades:  1,
			Wins:         1,
			WinRate:      1,
			AvgWin:       60,
			ProfitFactor: 999,
		},
		Trades: []backtest.Trade{
			{Timestamp: 3_000, Market: "mkt-1", Side: backtest.Buy, PriceCents: 40, Shares: 100,
				Value: 40, Balance: 60, Reason: "orderbook rules matched"},
			{Timestamp: 5_000, Market: "mkt-1", Side: backtest.Sell, PriceCents: 100, Shares: 100,
				Value: 100, PNL: 60, Balance: 160, Reason: "binary settlement"},
		},
	}
}

func TestRenderLedger(t *testing.T) {
	var sb strings.Builder
	renderLedger(&sb, testResult())
	out := sb.String()

	for _, want := range []string{"BUY", "SELL", "mkt-1", "$40.00", "$160.00", "binary settlement"} {
		if !strings.Contains(out, want) {
			t.Errorf("ledger output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	var sb strings.Builder
	renderSummary(&sb, testResult())
	out := sb.String()

	for _, want := range []string{"dip", "$60.00", "100.0%", "999.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}
