package strategy

import (
	"math"
	"time"

	"stock_trader/internal/models"
)

type ExitRule int

const (
	// ExitTrailing keeps tightening the position stop toward the current
	// price, faster once the target price has been crossed.
	ExitTrailing ExitRule = iota
	// ExitFixed leaves the initial stop in place.
	ExitFixed
	// ExitScalp closes on target, on the holding deadline, or on session end.
	ExitScalp
)

// Config parameterizes one trading variant: direction plus exit rule. All the
// direction-dependent price math lives here so the engine carries a single
// control flow for every variant.
type Config struct {
	Name  string
	Short bool
	Exit  ExitRule
}

// Direction is the sign applied to realized profit: -1 for short, +1 for long.
func (c *Config) Direction() float64 {
	if c.Short {
		return -1
	}
	return 1
}

// TriggerBreached reports whether a tick breaches the trailing entry
// threshold. A zero threshold is the unset sentinel and is treated as
// trivially breached.
func (c *Config) TriggerBreached(price, threshold float64) bool {
	if threshold == 0 {
		return true
	}
	if c.Short {
		return price <= threshold
	}
	return price >= threshold
}

// ResetTrigger computes the fresh threshold after an entry signal fired at
// price.
func (c *Config) ResetTrigger(price, triggerPercent float64) float64 {
	if c.Short {
		return price * (100.0 - triggerPercent) / 100.0
	}
	return price * (100.0 + triggerPercent) / 100.0
}

// RatchetTrigger moves the threshold in the direction that makes entry harder
// to re-trigger, never the other way.
func (c *Config) RatchetTrigger(threshold, price, triggerPercent float64) float64 {
	candidate := c.ResetTrigger(price, triggerPercent)
	if threshold == 0 {
		return candidate
	}
	if c.Short {
		return math.Max(threshold, candidate)
	}
	return math.Min(threshold, candidate)
}

// InitialStoploss places the stop on the losing side of the entry price.
func (c *Config) InitialStoploss(entry, stoplossPercent float64) float64 {
	if c.Short {
		return entry * (100.0 + stoplossPercent) / 100.0
	}
	return entry * (100.0 - stoplossPercent) / 100.0
}

// TargetPrice places the profit target on the winning side of the entry price.
func (c *Config) TargetPrice(entry, targetPercent float64) float64 {
	if c.Short {
		return entry * (100.0 - targetPercent) / 100.0
	}
	return entry * (100.0 + targetPercent) / 100.0
}

// StopBreached reports whether price has crossed the position stoploss.
func (c *Config) StopBreached(price, stoploss float64) bool {
	if c.Short {
		return price >= stoploss
	}
	return price <= stoploss
}

// TargetReached reports whether price has crossed the position target.
func (c *Config) TargetReached(price, target float64) bool {
	if c.Short {
		return price <= target
	}
	return price >= target
}

// TightenedStoploss returns the new stop for an open position at the current
// price. The stop only ever moves toward the price: the gap starts at the
// position stoploss percent and shrinks to the target stoploss percent as the
// price approaches the target, so profit locks in faster past the target.
func (c *Config) TightenedStoploss(pos *models.Position, price float64, ctl models.Controls) float64 {
	targetDist := pos.EntryPrice - pos.TargetPrice
	if !c.Short {
		targetDist = -targetDist
	}
	if targetDist <= 0 {
		return pos.Stoploss
	}
	rangeRatio := ctl.PositionStoplossRange() / targetDist

	var remaining float64
	if c.Short {
		remaining = math.Max(0, price-pos.TargetPrice)
	} else {
		remaining = math.Max(0, pos.TargetPrice-price)
	}
	gap := (remaining*rangeRatio + ctl.PositionTargetStoploss) * pos.EntryPrice / 100.0

	if c.Short {
		return math.Min(pos.Stoploss, price+gap)
	}
	return math.Max(pos.Stoploss, price-gap)
}

// BracketTriggerPrice computes the protective-leg trigger for a bracket order
// from the instrument's trigger-range bound, capped at 2.5% away from the
// current price and rounded to one decimal.
func (c *Config) BracketTriggerPrice(triggerBound, price float64) float64 {
	offset := price * math.Min(triggerBound-1.0, 2.5) / 100.0
	trigger := price - offset
	if c.Short {
		trigger = price + offset
	}
	return math.Round(trigger*10) / 10
}

// TriggerBound selects the instrument's bracket trigger bound for this side.
func (c *Config) TriggerBound(inst models.Instrument) float64 {
	if c.Short {
		return inst.COTriggerUpper
	}
	return inst.COTriggerLower
}

// ScalpDeadline is the exit deadline for scalp positions, zero otherwise.
func (c *Config) ScalpDeadline(entered time.Time, ctl models.Controls) time.Time {
	if c.Exit != ExitScalp {
		return time.Time{}
	}
	hold := ctl.ScalpHoldMinutes
	if hold <= 0 {
		hold = 5
	}
	return entered.Add(time.Duration(hold) * time.Minute)
}

// Profit is the signed realized profit of a closed position.
func (c *Config) Profit(entry, exit float64, quantity int) float64 {
	return (exit - entry) * float64(quantity) * c.Direction()
}
