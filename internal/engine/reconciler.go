package engine

import (
	"context"
	"fmt"
	"time"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"
)

// reconcile is the single consumer of the postback queue. One bad
// notification never halts processing for other users: failures are logged
// and the loop moves on.
func (e *Engine) reconcile(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pb := <-e.postbacks:
			// the postback can outrun the executor writing the pending
			// record; give the placement a moment to land
			select {
			case <-time.After(e.postbackDelay):
			case <-ctx.Done():
				return
			}
			if err := e.applyPostback(ctx, pb); err != nil {
				logger.Error("postback dropped: order=%s user=%s: %v", pb.OrderID, pb.UserID, err)
			}
		}
	}
}

func (e *Engine) applyPostback(ctx context.Context, pb models.Postback) error {
	a, ok := e.accounts[pb.UserID]
	if !ok {
		logger.Debug("postback for unknown user %s discarded", pb.UserID)
		return nil
	}

	a.mu.Lock()
	po, found := a.findPending(pb.OrderID)
	a.mu.Unlock()
	if !found {
		// unknown or duplicate: the pending record is removed exactly once
		logger.Debug("postback without pending order discarded: order=%s user=%s", pb.OrderID, pb.UserID)
		return nil
	}

	switch pb.Status {
	case models.StatusCancelled:
		e.dropPending(a, pb.OrderID)

	case models.StatusRejected:
		e.dropPending(a, pb.OrderID)
		if pb.Variety == models.VarietyBracket {
			e.downgradeVariety()
		}

	case models.StatusComplete:
		var err error
		if po.Direction == models.DirectionEnter {
			err = e.completeEntry(ctx, a, pb)
		} else {
			err = e.completeExit(a, pb)
		}
		// removing the pending order last marks the point after which a new
		// signal for this instrument is admissible again
		e.dropPending(a, pb.OrderID)
		if err != nil {
			return err
		}
		if !e.mockTrading {
			e.refreshFunds(ctx, a)
		}

	default:
		logger.Debug("postback with non-terminal status %s ignored: order=%s", pb.Status, pb.OrderID)
	}
	return nil
}

func (e *Engine) dropPending(a *account, orderID string) {
	a.mu.Lock()
	a.removePending(orderID)
	a.mu.Unlock()
}

// completeEntry turns an entry fill into an open position and books its risk.
func (e *Engine) completeEntry(ctx context.Context, a *account, pb models.Postback) error {
	is := e.instruments[pb.Token]
	if is == nil {
		return fmt.Errorf("entry fill for unknown instrument %d", pb.Token)
	}
	ctl := e.controls()

	pos := &models.Position{
		UserID:      pb.UserID,
		Token:       pb.Token,
		Variety:     pb.Variety,
		Quantity:    pb.FilledQuantity,
		EntryPrice:  pb.AveragePrice,
		Stoploss:    e.strat.InitialStoploss(pb.AveragePrice, ctl.PositionStoplossPercent),
		TargetPrice: e.strat.TargetPrice(pb.AveragePrice, ctl.PositionTargetPercent),
		ExitAt:      e.strat.ScalpDeadline(e.now(), ctl),
	}

	if pb.Variety == models.VarietyBracket {
		leg, err := e.secondLegOrder(ctx, a, pb.OrderID)
		if err != nil {
			return fmt.Errorf("second leg for order %s: %w", pb.OrderID, err)
		}
		pos.OrderID = leg.OrderID
		pos.ParentOrderID = leg.ParentOrderID
	}

	margin := is.inst.MISMargin
	if pb.Variety == models.VarietyBracket {
		margin = is.inst.COMargin
	}
	a.mu.Lock()
	a.risk.applyEntryFill(pb.AveragePrice, pb.FilledQuantity, margin, ctl)
	a.mu.Unlock()

	is.posMu.Lock()
	is.positions = append(is.positions, pos)
	is.posMu.Unlock()

	logger.Info("position opened: user=%s %s qty=%d @ %.2f sl=%.2f target=%.2f",
		pb.UserID, is.inst.Symbol, pos.Quantity, pos.EntryPrice, pos.Stoploss, pos.TargetPrice)
	return nil
}

// completeExit removes the matching position and realizes its result.
func (e *Engine) completeExit(a *account, pb models.Postback) error {
	is := e.instruments[pb.Token]
	if is == nil {
		return fmt.Errorf("exit fill for unknown instrument %d", pb.Token)
	}

	is.posMu.Lock()
	var pos *models.Position
	for i, p := range is.positions {
		if p.UserID == pb.UserID {
			pos = p
			is.positions = append(is.positions[:i], is.positions[i+1:]...)
			break
		}
	}
	is.posMu.Unlock()
	if pos == nil {
		return fmt.Errorf("exit fill with no open position: user=%s token=%d", pb.UserID, pb.Token)
	}

	ctl := e.controls()
	margin := is.inst.MISMargin
	if pos.Variety == models.VarietyBracket {
		margin = is.inst.COMargin
	}

	a.mu.Lock()
	profit, commission := a.risk.applyExitFill(
		pos.EntryPrice, pb.AveragePrice, pos.Quantity, margin, e.strat.Direction(), ctl)
	net := a.risk.netValue
	a.mu.Unlock()

	logger.Info("position closed: user=%s %s qty=%d entry=%.2f exit=%.2f profit=%.2f commission=%.2f net=%.2f",
		pb.UserID, is.inst.Symbol, pos.Quantity, pos.EntryPrice, pb.AveragePrice, profit, commission, net)
	e.notifier.Sendf("💰 [%s] closed %d @ %.2f | profit=%.2f net=%.2f",
		is.inst.Symbol, pos.Quantity, pb.AveragePrice, profit, net)
	return nil
}

// secondLegOrder finds the broker-created protective leg of a bracket entry
// by scanning open orders for the matching parent id.
func (e *Engine) secondLegOrder(ctx context.Context, a *account, parentID string) (models.BrokerOrder, error) {
	orders, err := a.broker.OpenOrders(ctx)
	if err != nil {
		return models.BrokerOrder{}, err
	}
	for _, o := range orders {
		if o.ParentOrderID == parentID {
			return o, nil
		}
	}
	return models.BrokerOrder{}, fmt.Errorf("not found")
}

func (e *Engine) refreshFunds(ctx context.Context, a *account) {
	funds, err := a.broker.MarginAvailable(ctx)
	if err != nil {
		logger.Error("margin refresh failed: user=%s: %v", a.user.UserID, err)
		return
	}
	a.mu.Lock()
	a.risk.fundsAvailable = funds
	a.mu.Unlock()
}
