package service

import (
	"context"
	"net/url"

	"stock_trader/internal/models"

	"github.com/pkg/errors"
)

type cancelOrderResponse struct {
	Data struct {
		OrderID string `json:"order_id"`
	} `json:"data"`
}

// CancelOrder cancels an open order. For a bracket position the open order
// is the protective second leg, so parentOrderID must name the entry leg.
func (c *Client) CancelOrder(ctx context.Context, variety models.OrderVariety, orderID, parentOrderID string) (string, error) {
	path := "/orders/" + string(variety) + "/" + orderID
	if parentOrderID != "" {
		path += "?" + url.Values{"parent_order_id": {parentOrderID}}.Encode()
	}

	var resp cancelOrderResponse
	if err := c.doForm(ctx, "DELETE", path, "", &resp); err != nil {
		return "", errors.Wrap(err, "cancel order")
	}
	return resp.Data.OrderID, nil
}
