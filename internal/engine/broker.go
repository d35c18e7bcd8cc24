package engine

import (
	"context"

	"stock_trader/internal/models"
)

// OrderParams is everything the engine supplies to place one market order.
type OrderParams struct {
	Variety      models.OrderVariety
	Token        int64
	Symbol       string
	Buy          bool
	Quantity     int
	TriggerPrice float64 // protective leg, bracket orders only
	Price        float64 // signal price; live brokers ignore it
}

// Broker is one user's connection to the brokerage. Each account owns its
// own Broker, no two users share one.
type Broker interface {
	PlaceOrder(ctx context.Context, o OrderParams) (string, error)
	CancelOrder(ctx context.Context, variety models.OrderVariety, orderID, parentOrderID string) (string, error)
	MarginAvailable(ctx context.Context) (float64, error)
	OpenOrders(ctx context.Context) ([]models.BrokerOrder, error)
}

// BrokerFactory builds the broker connection for one account.
type BrokerFactory func(acc models.UserAccount) Broker
