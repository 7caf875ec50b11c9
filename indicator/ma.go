package indicator

import (
	"github.com/tmwry/updown/shared"
)

// closes extracts the close series of the provided candles.
func closes(candles []shared.Candlestick) []float64 {
	series := make([]float64, len(candles))
	for idx := range candles {
		series[idx] = candles[idx].Close
	}
	return series
}

// smaSeries computes the simple moving average over the provided series.
// Entries before one full period are zero.
func smaSeries(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if period <= 0 || len(series) < period {
		return out
	}

	var sum float64
	for idx := range series {
		sum += series[idx]
		if idx >= period {
			sum -= series[idx-period]
		}
		if idx >= period-1 {
			out[idx] = sum / float64(period)
		}
	}

	return out
}

// emaSeries computes the exponential moving average over the provided series,
// seeded with the simple moving average of the first period. Entries before
// one full period are zero.
func emaSeries(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if period <= 0 || len(series) < period {
		return out
	}

	var seed float64
	for idx := 0; idx < period; idx++ {
		seed += series[idx]
	}
	seed /= float64(period)
	out[period-1] = seed

	multiplier := 2 / float64(period+1)
	prev := seed
	for idx := period; idx < len(series); idx++ {
		prev = (series[idx]-prev)*multiplier + prev
		out[idx] = prev
	}

	return out
}

// calculateSMA computes simple moving average results for the provided candles.
func calculateSMA(candles []shared.Candlestick, cfg *Config) []Result {
	period := int(cfg.Param("period", 14))
	series := smaSeries(closes(candles), period)

	results := make([]Result, 0, len(candles))
	for idx := period - 1; idx < len(candles); idx++ {
		results = append(results, Result{
			Timestamp: candles[idx].EndMs(),
			Value:     floatPtr(series[idx]),
		})
	}

	return results
}

// calculateEMA computes exponential moving average results for the provided candles.
func calculateEMA(candles []shared.Candlestick, cfg *Config) []Result {
	period := int(cfg.Param("period", 14))
	series := emaSeries(closes(candles), period)

	results := make([]Result, 0, len(candles))
	for idx := period - 1; idx < len(candles); idx++ {
		results = append(results, Result{
			Timestamp: candles[idx].EndMs(),
			Value:     floatPtr(series[idx]),
		})
	}

	return results
}
