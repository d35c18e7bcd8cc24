package service

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"stock_trader/internal/engine"
	"stock_trader/internal/models"
)

var paperSeq atomic.Int64

// Paper simulates the brokerage for dry runs: every order fills instantly
// at the signal price and a COMPLETE postback is pushed into the same
// channel live postbacks arrive on, so the engine cannot tell the
// difference.
type Paper struct {
	userID    string
	funds     float64
	postbacks chan<- models.Postback
}

func NewPaper(userID string, funds float64, postbacks chan<- models.Postback) *Paper {
	return &Paper{userID: userID, funds: funds, postbacks: postbacks}
}

func (p *Paper) PlaceOrder(ctx context.Context, o engine.OrderParams) (string, error) {
	orderID := strconv.FormatInt(paperSeq.Add(1), 10)
	p.fill(ctx, models.Postback{
		OrderID:        orderID,
		UserID:         p.userID,
		Status:         models.StatusComplete,
		Variety:        o.Variety,
		FilledQuantity: o.Quantity,
		AveragePrice:   o.Price,
		Token:          o.Token,
		OrderTimestamp: time.Now().Format("2006-01-02 15:04:05"),
	})
	return orderID, nil
}

func (p *Paper) CancelOrder(ctx context.Context, variety models.OrderVariety, orderID, parentOrderID string) (string, error) {
	p.fill(ctx, models.Postback{
		OrderID:        orderID,
		UserID:         p.userID,
		Status:         models.StatusCancelled,
		Variety:        variety,
		OrderTimestamp: time.Now().Format("2006-01-02 15:04:05"),
	})
	return orderID, nil
}

func (p *Paper) MarginAvailable(ctx context.Context) (float64, error) {
	return p.funds, nil
}

func (p *Paper) OpenOrders(ctx context.Context) ([]models.BrokerOrder, error) {
	return nil, nil
}

func (p *Paper) fill(ctx context.Context, pb models.Postback) {
	select {
	case p.postbacks <- pb:
	case <-ctx.Done():
	}
}
