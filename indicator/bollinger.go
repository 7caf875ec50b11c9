package indicator

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/tmwry/updown/shared"
)

// calculateBollinger computes bollinger band results for the provided
// candles. Each result carries upper, middle and lower fields.
func calculateBollinger(candles []shared.Candlestick, cfg *Config) ([]Result, error) {
	period := int(cfg.Param("period", 20))
	deviations := cfg.Param("stdDev", 2)

	series := closes(candles)
	if len(series) < period {
		return nil, nil
	}

	results := make([]Result, 0, len(series)-period+1)
	for idx := period - 1; idx < len(series); idx++ {
		window := series[idx-period+1 : idx+1]

		middle, err := stats.Mean(window)
		if err != nil {
			return nil, fmt.Errorf("calculating window mean: %v", err)
		}
		sd, err := stats.StandardDeviation(window)
		if err != nil {
			return nil, fmt.Errorf("calculating window standard deviation: %v", err)
		}

		results = append(results, Result{
			Timestamp: candles[idx].EndMs(),
			Value:     floatPtr(middle),
			Fields: map[string]float64{
				"upper":  middle + deviations*sd,
				"middle": middle,
				"lower":  middle - deviations*sd,
			},
		})
	}

	return results, nil
}
