package shared

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	// Start is the bucket start time in unix milliseconds. Bucket starts are
	// always exact multiples of the timeframe interval.
	Start  int64
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	// Closed reports whether the bucket has been sealed by a tick at or past
	// the next bucket boundary.
	Closed bool

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// EndMs returns the bucket end time of the candlestick in unix milliseconds.
func (c *Candlestick) EndMs() int64 {
	return c.Start + c.Timeframe.IntervalMs()
}

// Update folds the provided price into the candlestick, widening its range
// and advancing the close.
func (c *Candlestick) Update(price float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
	c.Volume++
}
