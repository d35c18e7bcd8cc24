package engine

import (
	"context"

	"stock_trader/internal/models"
)

// broadcastEnter fans an entry signal out to every account's queue. Delivery
// is best effort: a full queue drops the copy for that user, since the entry
// opportunity is transient anyway.
func (e *Engine) broadcastEnter(token int64, price float64) {
	sig := models.Signal{Kind: models.SignalEnter, Token: token, Price: price}
	for _, a := range e.accounts {
		select {
		case a.queue <- sig:
		default:
			// queue saturated, stale entry dropped
		}
	}
}

// sendExit delivers an exit signal to the owning user's queue with blocking
// backpressure. Exit signals are never dropped: failing to exit is a
// financial-safety violation, so the tick loop waits instead. The price is
// passed in as the snapshot taken under the position lock; the position's
// own fields may move again before delivery.
func (e *Engine) sendExit(ctx context.Context, pos *models.Position, price float64) {
	a, ok := e.accounts[pos.UserID]
	if !ok {
		return
	}
	sig := models.Signal{Kind: models.SignalExit, Token: pos.Token, Price: price, Position: pos}
	select {
	case a.queue <- sig:
	case <-ctx.Done():
	}
}
