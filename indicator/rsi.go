package indicator

import (
	"math"

	"github.com/tmwry/updown/shared"
)

// calculateRSI computes Wilder smoothed relative strength index results for
// the provided candles. Results start after one full period of deltas.
func calculateRSI(candles []shared.Candlestick, cfg *Config) []Result {
	period := int(cfg.Param("period", 14))
	series := closes(candles)
	if len(series) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for idx := 1; idx <= period; idx++ {
		delta := series[idx] - series[idx-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += math.Abs(delta)
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	results := make([]Result, 0, len(series)-period)
	results = append(results, Result{
		Timestamp: candles[period].EndMs(),
		Value:     floatPtr(rsiValue(avgGain, avgLoss)),
	})

	for idx := period + 1; idx < len(series); idx++ {
		delta := series[idx] - series[idx-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = math.Abs(delta)
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		results = append(results, Result{
			Timestamp: candles[idx].EndMs(),
			Value:     floatPtr(rsiValue(avgGain, avgLoss)),
		})
	}

	return results
}

// rsiValue derives the rsi value from the provided average gain and loss.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
