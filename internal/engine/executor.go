package engine

import (
	"context"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"
)

// tradeWorker consumes one user's signal queue. A broker failure on a single
// signal is logged and dropped; the loop itself never terminates on it, since
// the next tick cycle re-evaluates conditions and may re-trigger.
func (e *Engine) tradeWorker(ctx context.Context, a *account) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-a.queue:
			var err error
			switch sig.Kind {
			case models.SignalEnter:
				err = e.handleEnter(ctx, a, sig)
			case models.SignalExit:
				err = e.handleExit(ctx, a, sig)
			}
			if err != nil {
				logger.Error("order failed: user=%s token=%d: %v", a.user.UserID, sig.Token, err)
			}
		}
	}
}

func (e *Engine) handleEnter(ctx context.Context, a *account, sig models.Signal) error {
	is := e.instruments[sig.Token]
	if is == nil {
		return nil
	}

	// 1. Admission control.
	if !e.admitEntry(a, is) {
		return nil
	}

	// 2. Position size from the risk budget.
	variety := e.orderVariety()
	margin := is.inst.MISMargin
	if variety == models.VarietyBracket {
		margin = is.inst.COMargin
	}
	ctl := e.controls()

	a.mu.Lock()
	quantity := a.risk.positionSize(sig.Price, margin, ctl)
	a.mu.Unlock()
	if quantity == 0 {
		return nil
	}

	// 3. Submit the entry order.
	params := OrderParams{
		Variety:  variety,
		Token:    sig.Token,
		Symbol:   is.inst.Symbol,
		Buy:      !e.strat.Short,
		Quantity: quantity,
		Price:    sig.Price,
	}
	if variety == models.VarietyBracket {
		params.TriggerPrice = e.strat.BracketTriggerPrice(e.strat.TriggerBound(is.inst), sig.Price)
	}
	orderID, err := a.broker.PlaceOrder(ctx, params)
	if err != nil {
		return err
	}

	// 4. Record the pending order; the reconciler removes it on a terminal
	// status.
	a.mu.Lock()
	a.pending = append(a.pending, models.PendingOrder{
		Direction: models.DirectionEnter,
		OrderID:   orderID,
		Token:     sig.Token,
	})
	a.mu.Unlock()

	logger.Info("entry order placed: user=%s %s qty=%d @ %.2f variety=%s id=%s",
		a.user.UserID, is.inst.Symbol, quantity, sig.Price, variety, orderID)
	return nil
}

// admitEntry applies the entry gate: no open position in the instrument, no
// pending entry order for it, inside the entry window, and the account has
// not hit its stoploss.
func (e *Engine) admitEntry(a *account, is *instrumentState) bool {
	if e.userHoldsPosition(is, a.user.UserID) {
		return false
	}
	if e.entryBlocked.Load() {
		return false
	}
	nowSec := clockSeconds(e.now())
	start, end := e.entryWindow()
	if nowSec < start || nowSec > end {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.risk.netValue <= a.risk.stoploss {
		return false
	}
	for _, po := range a.pending {
		if po.Direction == models.DirectionEnter && po.Token == is.inst.Token {
			return false
		}
	}
	return true
}

func (e *Engine) handleExit(ctx context.Context, a *account, sig models.Signal) error {
	pos := sig.Position
	if pos == nil {
		return nil
	}
	is := e.instruments[pos.Token]
	if is == nil {
		return nil
	}

	// 1. Idempotence guard: one exit order per position.
	is.posMu.Lock()
	pending := pos.ExitPending
	is.posMu.Unlock()
	if pending || e.exitPendingFor(a, pos.Token) {
		return nil
	}

	// 2. Close: bracket positions exit by cancelling the protective leg,
	// plain positions by an explicit opposite order.
	var (
		orderID string
		err     error
	)
	if pos.Variety == models.VarietyBracket {
		orderID, err = a.broker.CancelOrder(ctx, models.VarietyBracket, pos.OrderID, pos.ParentOrderID)
	} else {
		orderID, err = a.broker.PlaceOrder(ctx, OrderParams{
			Variety:  pos.Variety,
			Token:    pos.Token,
			Symbol:   is.inst.Symbol,
			Buy:      e.strat.Short,
			Quantity: pos.Quantity,
			Price:    sig.Price,
		})
	}
	if err != nil {
		return err
	}

	is.posMu.Lock()
	pos.ExitPending = true
	is.posMu.Unlock()

	a.mu.Lock()
	a.pending = append(a.pending, models.PendingOrder{
		Direction: models.DirectionExit,
		OrderID:   orderID,
		Token:     pos.Token,
	})
	a.mu.Unlock()

	logger.Info("exit order placed: user=%s %s qty=%d variety=%s id=%s",
		a.user.UserID, is.inst.Symbol, pos.Quantity, pos.Variety, orderID)
	return nil
}

func (e *Engine) exitPendingFor(a *account, token int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, po := range a.pending {
		if po.Direction == models.DirectionExit && po.Token == token {
			return true
		}
	}
	return false
}
