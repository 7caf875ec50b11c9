package backtest

import (
	"github.com/tmwry/updown/strategy"
)

// firstFillableOrder selects the ladder order to execute for an entry
// opportunity, first match wins. Indicator triggered strategies fill their
// first order immediately at its limit price, the trigger itself is the
// timing signal. Orderbook strategies apply true limit order semantics: an
// order only fills when the price crosses down through its limit, which
// prevents duplicate fills on a stationary price.
func firstFillableOrder(ladder []strategy.LadderOrder, kind strategy.Kind, prevCents, cents int) (int, bool) {
	if len(ladder) == 0 {
		return 0, false
	}

	if kind == strategy.IndicatorTriggered {
		return 0, true
	}

	for idx := range ladder {
		limit := ladder[idx].PriceCents
		if prevCents > limit && cents <= limit {
			return idx, true
		}
	}

	return 0, false
}
