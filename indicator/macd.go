package indicator

import (
	"github.com/tmwry/updown/shared"
)

// calculateMACD computes moving average convergence divergence results for
// the provided candles. Each result carries macd, signal and histogram
// fields; results start once the signal line is established.
func calculateMACD(candles []shared.Candlestick, cfg *Config) []Result {
	fast := int(cfg.Param("fastPeriod", 12))
	slow := int(cfg.Param("slowPeriod", 26))
	signalPeriod := int(cfg.Param("signalPeriod", 9))

	series := closes(candles)
	if len(series) < slow+signalPeriod {
		return nil
	}

	fastEMA := emaSeries(series, fast)
	slowEMA := emaSeries(series, slow)

	// The macd line only exists once the slow ema is established.
	macdLine := make([]float64, len(series)-slow+1)
	for idx := slow - 1; idx < len(series); idx++ {
		macdLine[idx-slow+1] = fastEMA[idx] - slowEMA[idx]
	}

	signalLine := emaSeries(macdLine, signalPeriod)

	results := make([]Result, 0, len(macdLine))
	for idx := signalPeriod - 1; idx < len(macdLine); idx++ {
		candleIdx := idx + slow - 1
		macd := macdLine[idx]
		signal := signalLine[idx]
		results = append(results, Result{
			Timestamp: candles[candleIdx].EndMs(),
			Value:     floatPtr(macd),
			Fields: map[string]float64{
				"macd":      macd,
				"signal":    signal,
				"histogram": macd - signal,
			},
		})
	}

	return results
}
