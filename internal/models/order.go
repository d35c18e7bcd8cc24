package models

type OrderVariety string

const (
	VarietyBracket OrderVariety = "co"
	VarietyRegular OrderVariety = "regular"
)

type OrderStatus string

const (
	StatusComplete  OrderStatus = "COMPLETE"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRejected  OrderStatus = "REJECTED"
)

type OrderDirection int

const (
	DirectionExit OrderDirection = iota
	DirectionEnter
)

// PendingOrder is recorded synchronously when an order is submitted and
// removed only by the reconciler once a terminal status arrives.
type PendingOrder struct {
	Direction OrderDirection
	OrderID   string
	Token     int64
}

// Postback is the asynchronous broker notification for an order's terminal
// status, delivered over the postback webhook.
type Postback struct {
	OrderID        string       `json:"order_id"`
	UserID         string       `json:"user_id"`
	Status         OrderStatus  `json:"status"`
	Variety        OrderVariety `json:"variety"`
	FilledQuantity int          `json:"filled_quantity"`
	AveragePrice   float64      `json:"average_price"`
	Token          int64        `json:"instrument_token"`
	OrderTimestamp string       `json:"order_timestamp"`
	Checksum       string       `json:"checksum,omitempty"`
}

// BrokerOrder is one row of the broker's open-order listing. Only the fields
// the reconciler needs for second-leg resolution are kept.
type BrokerOrder struct {
	OrderID       string `json:"order_id"`
	ParentOrderID string `json:"parent_order_id"`
	Status        string `json:"status"`
}
