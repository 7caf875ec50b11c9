package backtest

import (
	"math"

	"github.com/montanaflynn/stats"
)

const (
	// losslessProfitFactor is the sentinel reported when there are profits
	// with zero losses.
	losslessProfitFactor = float64(999)
	// annualizationFactor converts a per trade sharpe ratio to an annual
	// figure, assuming one trading opportunity per day.
	annualizationFactor = 252
)

// Stats represents the aggregate performance statistics of a backtest run.
type Stats struct {
	// TotalTrades counts closed positions.
	TotalTrades int
	Wins        int
	Losses      int
	// WinRate is the fraction of closed positions that won.
	WinRate float64
	// AvgWin is the mean realized profit of winning positions.
	AvgWin float64
	// AvgLoss is the mean realized loss of losing positions, reported as a
	// positive figure.
	AvgLoss float64
	// ProfitFactor is gross profit over gross loss.
	ProfitFactor float64
	// MaxDrawdown is the largest peak to trough equity decline, as a
	// fraction of the peak.
	MaxDrawdown float64
	// Sharpe is the annualized sharpe ratio of the per trade return series.
	Sharpe float64
}

// computeStats derives aggregate statistics from the provided ledger, per
// trade returns and chronological equity samples. Every aggregate guards
// against division by zero and defaults to 0.
func computeStats(trades []Trade, returns []float64, equity []float64) Stats {
	var agg Stats
	var grossProfit, grossLoss float64

	for idx := range trades {
		if trades[idx].Side == Buy {
			continue
		}

		agg.TotalTrades++
		switch {
		case trades[idx].PNL > 0:
			agg.Wins++
			grossProfit += trades[idx].PNL
		default:
			agg.Losses++
			grossLoss += -trades[idx].PNL
		}
	}

	if agg.TotalTrades > 0 {
		agg.WinRate = float64(agg.Wins) / float64(agg.TotalTrades)
	}
	if agg.Wins > 0 {
		agg.AvgWin = grossProfit / float64(agg.Wins)
	}
	if agg.Losses > 0 {
		agg.AvgLoss = grossLoss / float64(agg.Losses)
	}

	switch {
	case grossLoss > 0:
		agg.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		agg.ProfitFactor = losslessProfitFactor
	}

	agg.MaxDrawdown = maxDrawdown(equity)
	agg.Sharpe = sharpeRatio(returns)

	return agg
}

// maxDrawdown computes the largest running peak to trough decline over the
// provided equity samples.
func maxDrawdown(equity []float64) float64 {
	var peak, drawdown float64
	for idx := range equity {
		if equity[idx] > peak {
			peak = equity[idx]
		}
		if peak > 0 {
			dd := (peak - equity[idx]) / peak
			if dd > drawdown {
				drawdown = dd
			}
		}
	}
	return drawdown
}

// sharpeRatio computes the annualized sharpe ratio of the provided per trade
// return series. Fewer than two returns or zero variance yield 0.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviation(returns)
	if err != nil || sd == 0 {
		return 0
	}

	return mean / sd * math.Sqrt(annualizationFactor)
}
