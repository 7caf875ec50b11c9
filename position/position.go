package position

import (
	"github.com/google/uuid"
	"github.com/tmwry/updown/shared"
)

// Status represents the status of a position.
type Status int

const (
	Open Status = iota
	Closed
)

// String stringifies the provided position status.
func (s *Status) String() string {
	switch *s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Settlement represents the terminal outcome of a position.
type Settlement struct {
	// PriceCents is the settlement price recorded on the ledger.
	PriceCents int
	// Payout is the dollar amount credited back to the balance.
	Payout float64
	// Win reports whether the position resolved profitably at settlement.
	Win bool
	// Reason is the human readable settlement trigger.
	Reason string
	// Timestamp is the settlement time in unix milliseconds.
	Timestamp int64
}

// Position represents the engine's in-flight position for one market. A
// market yields at most one position over its lifetime; once settled it is
// never reopened.
type Position struct {
	ID        string
	Market    string
	Direction shared.Direction
	// EntryTimestamp is the fill time in unix milliseconds.
	EntryTimestamp int64
	// EntryPriceCents is the fill price in cents.
	EntryPriceCents int
	Shares          int
	// Cost is the dollar amount debited at entry.
	Cost float64
	// MaxPriceCents tracks the highest price seen while the position is open.
	MaxPriceCents int
	Status        Status
}

// New opens a position for the provided market at the provided fill.
func New(market string, direction shared.Direction, timestamp int64, priceCents int, shares int) *Position {
	return &Position{
		ID:              uuid.New().String(),
		Market:          market,
		Direction:       direction,
		EntryTimestamp:  timestamp,
		EntryPriceCents: priceCents,
		Shares:          shares,
		Cost:            float64(shares) * shared.CentsToDecimal(priceCents),
		MaxPriceCents:   priceCents,
		Status:          Open,
	}
}

// TrackPrice folds the provided price into the running maximum and reports
// whether the configured exit price was reached. A nil exit price never
// triggers an exit.
func (p *Position) TrackPrice(cents int, exitPriceCents *int) bool {
	if p.Status != Open {
		return false
	}
	if cents > p.MaxPriceCents {
		p.MaxPriceCents = cents
	}
	return exitPriceCents != nil && cents >= *exitPriceCents
}

// MarkValue returns the unrealized dollar value of the position at the
// provided price. Settled positions carry no unrealized value.
func (p *Position) MarkValue(cents int) float64 {
	if p.Status != Open {
		return 0
	}
	return float64(p.Shares) * shared.CentsToDecimal(cents)
}

// PNL returns the realized profit of the position for the provided payout.
func (p *Position) PNL(payout float64) float64 {
	return payout - p.Cost
}

// SettleExit closes the position at its configured exit price, a win
// credited at shares times the exit price.
func (p *Position) SettleExit(exitPriceCents int, timestamp int64) Settlement {
	p.Status = Closed
	return Settlement{
		PriceCents: exitPriceCents,
		Payout:     float64(p.Shares) * shared.CentsToDecimal(exitPriceCents),
		Win:        true,
		Reason:     "exit price reached",
		Timestamp:  timestamp,
	}
}

// SettleBinary closes the position at market end with the binary payoff:
// a final price above the entry price in the trade direction pays a dollar
// per share, anything else pays nothing.
func (p *Position) SettleBinary(finalPriceCents int, timestamp int64) Settlement {
	p.Status = Closed

	if finalPriceCents > p.EntryPriceCents {
		return Settlement{
			PriceCents: shared.MaxPriceCents,
			Payout:     float64(p.Shares),
			Win:        true,
			Reason:     "binary settlement win",
			Timestamp:  timestamp,
		}
	}

	return Settlement{
		PriceCents: shared.MinPriceCents,
		Payout:     0,
		Win:        false,
		Reason:     "binary settlement loss",
		Timestamp:  timestamp,
	}
}

// SettleExpired closes the position worthless: the exit price was configured
// but never reached before the market closed.
func (p *Position) SettleExpired(timestamp int64) Settlement {
	p.Status = Closed
	return Settlement{
		PriceCents: shared.MinPriceCents,
		Payout:     0,
		Win:        false,
		Reason:     "expired without reaching exit price",
		Timestamp:  timestamp,
	}
}

// SettleMark closes the position at the market's last observed price, a
// mark to market exit that may realize a partial gain or loss.
func (p *Position) SettleMark(lastPriceCents int, timestamp int64) Settlement {
	p.Status = Closed
	payout := float64(p.Shares) * shared.CentsToDecimal(lastPriceCents)
	return Settlement{
		PriceCents: lastPriceCents,
		Payout:     payout,
		Win:        payout > p.Cost,
		Reason:     "marked to last price at market close",
		Timestamp:  timestamp,
	}
}
