package engine

import (
	"context"
	"time"
)

// healthLoop periodically reports session vitals through the notifier.
func (e *Engine) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			open := 0
			for _, is := range e.instruments {
				is.posMu.Lock()
				open += len(is.positions)
				is.posMu.Unlock()
			}
			queued := 0
			pending := 0
			for _, a := range e.accounts {
				queued += len(a.queue)
				a.mu.Lock()
				pending += len(a.pending)
				a.mu.Unlock()
			}
			e.notifier.Sendf("🩺 HEALTH | open=%d | queued=%d | pending=%d | postbacks=%d",
				open, queued, pending, len(e.postbacks))
		}
	}
}
