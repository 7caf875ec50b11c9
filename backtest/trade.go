package backtest

// Side represents the ledger event kind of a backtest trade.
type Side int

const (
	// Buy records an entry fill.
	Buy Side = iota
	// Sell records a position closed for value.
	Sell
	// Loss records a position resolved worthless.
	Loss
)

// String stringifies the provided side.
func (s *Side) String() string {
	switch *s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Loss:
		return "LOSS"
	default:
		return "unknown"
	}
}

// Trade represents one recorded ledger event. Entries are append only and
// never mutated once written.
type Trade struct {
	// Timestamp is the event time in unix milliseconds.
	Timestamp int64
	// Market identifies the market the event belongs to.
	Market string
	Side   Side
	// PriceCents is the event price in cents.
	PriceCents int
	Shares     int
	// Value is the dollar amount moved by the event.
	Value float64
	// PNL is the realized profit on closing events, zero on entries.
	PNL float64
	// Balance is the running balance after the event.
	Balance float64
	// Reason is the human readable event trigger.
	Reason string
}
