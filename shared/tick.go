package shared

// Tick represents one observed price sample for a market. Prices are carried
// as whole cents (0 - 100), a zero value means no quote was available on
// that side of the book when the sample was taken.
type Tick struct {
	// Timestamp is the sample time in unix milliseconds.
	Timestamp int64
	// YesBid is the best yes bid in cents.
	YesBid int
	// YesAsk is the best yes ask in cents.
	YesAsk int
	// NoBid is the best no bid in cents.
	NoBid int
	// NoAsk is the best no ask in cents.
	NoAsk int
}

// DirectionPrice returns the tick's tradable price in cents for the provided
// direction. Up positions read the yes bid, down positions the no bid.
func (t *Tick) DirectionPrice(direction Direction) int {
	switch direction {
	case Up:
		return t.YesBid
	default:
		return t.NoBid
	}
}
