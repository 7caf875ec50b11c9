package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/tmwry/updown/backtest"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// renderLedger writes the run's trade ledger as a table.
func renderLedger(w io.Writer, result *backtest.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Market", "Side", "Price (cents)", "Shares", "Value", "PNL", "Balance", "Reason"})

	for idx := range result.Trades {
		trade := &result.Trades[idx]
		table.Append([]string{
			time.UnixMilli(trade.Timestamp).UTC().Format(reportTimeLayout),
			trade.Market,
			trade.Side.String(),
			strconv.Itoa(trade.PriceCents),
			strconv.Itoa(trade.Shares),
			fmt.Sprintf("$%.2f", trade.Value),
			fmt.Sprintf("$%.2f", trade.PNL),
			fmt.Sprintf("$%.2f", trade.Balance),
			trade.Reason,
		})
	}

	table.Render()
}

// renderSummary writes the run's performance summary as a table.
func renderSummary(w io.Writer, result *backtest.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})

	rows := [][]string{
		{"Strategy", result.StrategyID},
		{"Start", time.UnixMilli(result.Start).UTC().Format(reportTimeLayout)},
		{"End", time.UnixMilli(result.End).UTC().Format(reportTimeLayout)},
		{"Markets processed", strconv.Itoa(result.MarketsProcessed)},
		{"Markets skipped", strconv.Itoa(result.MarketsSkipped)},
		{"Skipped fills", strconv.Itoa(result.SkippedFills)},
		{"Initial balance", fmt.Sprintf("$%.2f", result.InitialBalance)},
		{"Final balance", fmt.Sprintf("$%.2f", result.FinalBalance)},
		{"PNL", fmt.Sprintf("$%.2f", result.PNL)},
		{"Trades", strconv.Itoa(result.Stats.TotalTrades)},
		{"Wins", strconv.Itoa(result.Stats.Wins)},
		{"Losses", strconv.Itoa(result.Stats.Losses)},
		{"Win rate", fmt.Sprintf("%.1f%%", result.Stats.WinRate*100)},
		{"Avg win", fmt.Sprintf("$%.2f", result.Stats.AvgWin)},
		{"Avg loss", fmt.Sprintf("$%.2f", result.Stats.AvgLoss)},
		{"Profit factor", fmt.Sprintf("%.2f", result.Stats.ProfitFactor)},
		{"Max drawdown", fmt.Sprintf("%.1f%%", result.Stats.MaxDrawdown*100)},
		{"Sharpe", fmt.Sprintf("%.2f", result.Stats.Sharpe)},
	}
	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
}
