package engine

import (
	"context"
	"time"

	"stock_trader/internal/models"
	"stock_trader/internal/strategy"
)

// checkPositions runs the exit rules for every open position in the
// instrument at the current price: breach of the trailing stop, a scalp
// deadline, or the session-wide exit flag raise an exit signal; otherwise the
// stop is tightened toward the price, never loosened.
func (e *Engine) checkPositions(ctx context.Context, is *instrumentState, price float64, now time.Time, ctl models.Controls) {
	exitAll := e.exitAll.Load()

	is.posMu.Lock()
	var due []*models.Position
	for _, pos := range is.positions {
		if pos.ExitPending {
			continue
		}
		if exitAll || e.exitDue(pos, price, now) {
			pos.ExitPrice = price
			due = append(due, pos)
			continue
		}
		if e.strat.Exit == strategy.ExitTrailing {
			pos.Stoploss = e.strat.TightenedStoploss(pos, price, ctl)
		}
	}
	is.posMu.Unlock()

	// exit delivery blocks under backpressure, so it happens off the lock
	for _, pos := range due {
		e.sendExit(ctx, pos, price)
	}
}

func (e *Engine) exitDue(pos *models.Position, price float64, now time.Time) bool {
	switch e.strat.Exit {
	case strategy.ExitScalp:
		return now.Equal(pos.ExitAt) || now.After(pos.ExitAt) ||
			e.strat.TargetReached(price, pos.TargetPrice)
	default:
		return e.strat.StopBreached(price, pos.Stoploss)
	}
}
