package models

import "time"

// Position is one user's open position in one instrument. Created by the
// reconciler when an entry fill arrives, removed when the exit fill arrives.
type Position struct {
	UserID      string
	Token       int64
	Variety     OrderVariety
	Quantity    int
	EntryPrice  float64
	Stoploss    float64
	TargetPrice float64
	ExitAt      time.Time // scalp holding deadline, zero when unused
	ExitPrice   float64   // last price seen when the exit signal fired
	ExitPending bool

	// protective second leg, bracket positions only
	OrderID       string
	ParentOrderID string
}

type SignalKind int

const (
	SignalExit SignalKind = iota
	SignalEnter
)

// Signal carries a price for entries and a position reference for exits.
type Signal struct {
	Kind     SignalKind
	Token    int64
	Price    float64
	Position *Position
}
