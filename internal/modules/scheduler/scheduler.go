package scheduler

import (
	"context"
	"time"

	"stock_trader/internal/engine"
	"stock_trader/internal/models"
	"stock_trader/internal/modules/controls"
	"stock_trader/pkg/logger"
)

const (
	defaultEntryEnd = "15:18:00"
	defaultExitTime = "15:19:00"
)

// Scheduler fires the two hard session deadlines: the entry cutoff, after
// which no new positions open, and the square-off time, when everything
// still open is force-exited before the exchange does it for us. A controls
// reload re-arms both timers, so the deadlines can be moved mid-session.
type Scheduler struct {
	engine *engine.Engine
	src    *controls.Source
	now    func() time.Time
}

func New(e *engine.Engine, src *controls.Source) *Scheduler {
	return &Scheduler{engine: e, src: src, now: time.Now}
}

func (s *Scheduler) Run(ctx context.Context) {
	go s.deadlineLoop(ctx, "entry cutoff", defaultEntryEnd,
		func() string { return s.src.Current().EntryTimeEnd },
		s.engine.BlockEntry)
	go s.deadlineLoop(ctx, "square-off", defaultExitTime,
		func() string { return s.src.Current().ExitTime },
		func() { s.engine.ExitAllPositions(ctx) })
}

func (s *Scheduler) deadlineLoop(ctx context.Context, name, fallback string, clock func() string, fn func()) {
	changed := make(chan struct{}, 1)
	s.src.Subscribe(func(models.Controls) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	s.await(ctx, changed, name, fallback, clock, fn)
}

// await waits until the configured time of day and runs fn once. A deadline
// already in the past fires immediately: a late start does not extend the
// session. A pulse on changed restarts the wait from the fresh clock value.
func (s *Scheduler) await(ctx context.Context, changed <-chan struct{}, name, fallback string, clock func() string, fn func()) {
	for {
		val := clock()
		timer := time.NewTimer(s.waitFor(val, fallback, name))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-changed:
			timer.Stop()
		case <-timer.C:
			logger.Info("scheduler: %s at %s", name, val)
			fn()
			return
		}
	}
}

func (s *Scheduler) waitFor(clock, fallback, name string) time.Duration {
	target, err := time.Parse("15:04:05", clock)
	if err != nil {
		logger.Error("scheduler: bad time %q for %s, using %s", clock, name, fallback)
		target, _ = time.Parse("15:04:05", fallback)
	}

	now := s.now()
	fireAt := time.Date(now.Year(), now.Month(), now.Day(),
		target.Hour(), target.Minute(), target.Second(), 0, now.Location())
	wait := fireAt.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait
}
