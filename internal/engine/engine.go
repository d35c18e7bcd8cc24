package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stock_trader/internal/models"
	"stock_trader/internal/notify"
	"stock_trader/internal/strategy"
	"stock_trader/pkg/logger"
)

// instrumentState is the per-instrument slice of the session: the trailing
// entry threshold, the open positions, and the last traded price. The trigger
// is written only by the tick loop; lastPrice and positions are shared with
// the scheduler and reconciler and guarded by posMu.
type instrumentState struct {
	inst    models.Instrument
	trigger float64

	posMu     sync.Mutex
	lastPrice float64
	positions []*models.Position
}

// account is one user's slice of the session. The trade worker and the
// reconciler race on pending orders and risk counters, so both go through mu.
type account struct {
	mu      sync.Mutex
	user    models.UserAccount
	broker  Broker
	queue   chan models.Signal
	pending []models.PendingOrder
	risk    riskState
}

func (a *account) findPending(orderID string) (models.PendingOrder, bool) {
	for _, po := range a.pending {
		if po.OrderID == orderID {
			return po, true
		}
	}
	return models.PendingOrder{}, false
}

func (a *account) removePending(orderID string) {
	for i, po := range a.pending {
		if po.OrderID == orderID {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			return
		}
	}
}

type Params struct {
	Strategy    *strategy.Config
	Controls    models.Controls
	Instruments []models.Instrument
	Accounts    []models.UserAccount
	Brokers     BrokerFactory
	Notifier    notify.Notifier

	// Postbacks is shared with whatever feeds broker notifications in: the
	// postback webhook in live mode, the paper broker in mock mode.
	Postbacks chan models.Postback

	MockTrading     bool
	SignalQueueSize int
	PostbackDelay   time.Duration
}

// Engine is one trading session: trigger tracking, signal dissemination,
// per-user execution and postback reconciliation over a fixed instrument and
// account set.
type Engine struct {
	strat    *strategy.Config
	notifier notify.Notifier

	mockTrading   bool
	postbackDelay time.Duration

	ctlMu      sync.RWMutex
	ctl        models.Controls
	entryStart int // seconds of day
	entryEnd   int

	instruments map[int64]*instrumentState
	accounts    map[string]*account

	postbacks chan models.Postback

	varietyMu sync.Mutex
	variety   models.OrderVariety

	entryBlocked atomic.Bool
	exitAll      atomic.Bool

	now func() time.Time
}

func New(p Params) *Engine {
	if p.SignalQueueSize <= 0 {
		p.SignalQueueSize = 100
	}
	if p.Postbacks == nil {
		p.Postbacks = make(chan models.Postback, 500)
	}
	if p.PostbackDelay <= 0 {
		p.PostbackDelay = 300 * time.Millisecond
	}
	if p.Notifier == nil {
		p.Notifier = notify.Nop{}
	}

	e := &Engine{
		strat:         p.Strategy,
		notifier:      p.Notifier,
		mockTrading:   p.MockTrading,
		postbackDelay: p.PostbackDelay,
		instruments:   make(map[int64]*instrumentState),
		accounts:      make(map[string]*account),
		postbacks:     p.Postbacks,
		now:           time.Now,
	}

	e.ApplyControls(p.Controls)
	e.variety = p.Controls.OrderVariety
	if e.variety == "" || p.MockTrading {
		// paper trading has no bracket support at the broker
		e.variety = models.VarietyRegular
	}

	for _, inst := range p.Instruments {
		e.instruments[inst.Token] = &instrumentState{inst: inst}
	}
	for _, acc := range p.Accounts {
		e.accounts[acc.UserID] = &account{
			user:   acc,
			broker: p.Brokers(acc),
			queue:  make(chan models.Signal, p.SignalQueueSize),
			risk:   newRiskState(acc.FundsAvailable, p.Controls),
		}
	}
	return e
}

// Postbacks is the inbound notification queue consumed by the reconciler.
func (e *Engine) Postbacks() chan<- models.Postback {
	return e.postbacks
}

// APISecret resolves an account's API secret for postback verification.
func (e *Engine) APISecret(userID string) (string, bool) {
	a, ok := e.accounts[userID]
	if !ok {
		return "", false
	}
	return a.user.APISecret, true
}

// Start launches one trade worker per account, the reconciler and the health
// loop. All are long-running and stop with ctx.
func (e *Engine) Start(ctx context.Context) {
	for _, a := range e.accounts {
		go e.tradeWorker(ctx, a)
	}
	go e.reconcile(ctx)
	go e.healthLoop(ctx)
	logger.Info("engine started: strategy=%s instruments=%d accounts=%d",
		e.strat.Name, len(e.instruments), len(e.accounts))
}

// Run drives the tick stream through trigger tracking and position lifecycle
// checks. It blocks until ctx is done or the feed closes.
func (e *Engine) Run(ctx context.Context, ticks <-chan []models.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-ticks:
			if !ok {
				return
			}
			ctl := e.controls()
			now := e.now()
			for _, t := range batch {
				is := e.instruments[t.Token]
				if is == nil {
					continue
				}
				is.posMu.Lock()
				is.lastPrice = t.LastPrice
				is.posMu.Unlock()
				e.checkEntryTrigger(is, t.LastPrice, ctl)
				e.checkPositions(ctx, is, t.LastPrice, now, ctl)
			}
		}
	}
}

// ApplyControls installs a new controls snapshot for all subsequent
// decisions. Per-account values derived from initial funds are not rebuilt.
func (e *Engine) ApplyControls(c models.Controls) {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	e.ctl = c
	e.entryStart = secondsOfDay(c.EntryTimeStart, 9*3600+15*60+4)
	e.entryEnd = secondsOfDay(c.EntryTimeEnd, 15*3600+18*60)
}

func (e *Engine) controls() models.Controls {
	e.ctlMu.RLock()
	defer e.ctlMu.RUnlock()
	return e.ctl
}

func (e *Engine) entryWindow() (int, int) {
	e.ctlMu.RLock()
	defer e.ctlMu.RUnlock()
	return e.entryStart, e.entryEnd
}

// BlockEntry stops all further position entries for the session.
func (e *Engine) BlockEntry() {
	e.entryBlocked.Store(true)
	logger.Info("entry blocked for the rest of the session")
}

// ExitAllPositions broadcasts an exit signal for every open position exactly
// once and flags the session so lifecycle checks keep closing stragglers.
func (e *Engine) ExitAllPositions(ctx context.Context) {
	e.exitAll.Store(true)
	for _, is := range e.instruments {
		is.posMu.Lock()
		price := is.lastPrice
		due := make([]*models.Position, 0, len(is.positions))
		for _, pos := range is.positions {
			if pos.ExitPending {
				continue
			}
			pos.ExitPrice = price
			due = append(due, pos)
		}
		is.posMu.Unlock()
		for _, pos := range due {
			e.sendExit(ctx, pos, price)
		}
	}
	logger.Info("session exit: all open positions signalled")
}

func (e *Engine) orderVariety() models.OrderVariety {
	e.varietyMu.Lock()
	defer e.varietyMu.Unlock()
	return e.variety
}

// downgradeVariety permanently falls back to plain intraday orders after a
// bracket rejection. Never upgraded back within a session.
func (e *Engine) downgradeVariety() {
	e.varietyMu.Lock()
	defer e.varietyMu.Unlock()
	if e.variety != models.VarietyRegular {
		e.variety = models.VarietyRegular
		logger.Info("bracket order rejected, falling back to regular variety for the session")
		e.notifier.Sendf("⚠️ Bracket orders rejected by broker, trading regular variety from now on")
	}
}

func (e *Engine) userHoldsPosition(is *instrumentState, userID string) bool {
	is.posMu.Lock()
	defer is.posMu.Unlock()
	for _, pos := range is.positions {
		if pos.UserID == userID {
			return true
		}
	}
	return false
}

// OpenPositions returns a snapshot of one user's open positions.
func (e *Engine) OpenPositions(userID string) []models.Position {
	var out []models.Position
	for _, is := range e.instruments {
		is.posMu.Lock()
		for _, pos := range is.positions {
			if pos.UserID == userID {
				out = append(out, *pos)
			}
		}
		is.posMu.Unlock()
	}
	return out
}

// StatusSummary renders the per-user risk state for the status command.
func (e *Engine) StatusSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s | variety=%s\n", e.strat.Name, e.orderVariety())
	for id, a := range e.accounts {
		a.mu.Lock()
		r := a.risk
		pending := len(a.pending)
		a.mu.Unlock()
		open := len(e.OpenPositions(id))
		fmt.Fprintf(&b,
			"%s: net=%.2f funds=%.2f atRisk=%.2f stoploss=%.2f commission=%.2f open=%d pending=%d\n",
			id, r.netValue, r.fundsAvailable, r.amountAtRisk, r.stoploss, r.commissionPaid, open, pending)
	}
	return b.String()
}

// secondsOfDay parses "HH:MM:SS" (seconds optional) into seconds since
// midnight, falling back to def on malformed input.
func secondsOfDay(s string, def int) int {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return def
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return def
		}
		switch i {
		case 0:
			total += n * 3600
		case 1:
			total += n * 60
		case 2:
			total += n
		}
	}
	return total
}

func clockSeconds(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
