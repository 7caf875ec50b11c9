package candle

import (
	"github.com/tmwry/updown/shared"
)

// Build converts an ordered tick stream into fixed interval candlesticks for
// the provided market direction. Ticks with no quote on the read side are
// skipped without sealing the in-progress candle, and empty buckets produce
// no candles. The trailing in-progress candle is appended when the stream
// ends, so malformed or empty input simply yields an empty list.
func Build(ticks []shared.Tick, market string, timeframe shared.Timeframe, direction shared.Direction) []shared.Candlestick {
	intervalMs := timeframe.IntervalMs()
	if intervalMs == 0 {
		return nil
	}

	candles := make([]shared.Candlestick, 0, len(ticks)/8)
	var current *shared.Candlestick

	for idx := range ticks {
		cents := ticks[idx].DirectionPrice(direction)
		if cents == 0 {
			// No quote on the read side for this sample.
			continue
		}

		price := shared.CentsToDecimal(cents)
		bucket := ticks[idx].Timestamp / intervalMs * intervalMs

		switch {
		case current == nil:
			candles = append(candles, newCandle(bucket, price, market, timeframe))
			current = &candles[len(candles)-1]
		case bucket > current.Start:
			// The tick is at or past the next bucket boundary, seal the
			// current candle and open a new one at the tick's own bucket.
			current.Closed = true
			candles = append(candles, newCandle(bucket, price, market, timeframe))
			current = &candles[len(candles)-1]
		default:
			current.Update(price)
		}
	}

	return candles
}

// newCandle opens a candlestick at the provided bucket with all price fields
// set to the opening price.
func newCandle(bucket int64, price float64, market string, timeframe shared.Timeframe) shared.Candlestick {
	return shared.Candlestick{
		Start:     bucket,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    1,
		Market:    market,
		Timeframe: timeframe,
	}
}
