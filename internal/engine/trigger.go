package engine

import "stock_trader/internal/models"

// checkEntryTrigger maintains the trailing entry threshold for one
// instrument. A breach resets the threshold off the triggering price and
// broadcasts an entry signal; otherwise the threshold only ratchets toward
// the price, never away from it.
func (e *Engine) checkEntryTrigger(is *instrumentState, price float64, ctl models.Controls) {
	if e.strat.TriggerBreached(price, is.trigger) {
		is.trigger = e.strat.ResetTrigger(price, ctl.EntryTriggerPercent)
		e.broadcastEnter(is.inst.Token, price)
		return
	}
	is.trigger = e.strat.RatchetTrigger(is.trigger, price, ctl.EntryTriggerPercent)
}
