package service

import (
	"context"

	"stock_trader/internal/models"

	"github.com/pkg/errors"
)

type ordersResponse struct {
	Data []models.BrokerOrder `json:"data"`
}

// OpenOrders lists today's orders. The reconciler scans it to resolve the
// protective second leg of a filled bracket entry.
func (c *Client) OpenOrders(ctx context.Context) ([]models.BrokerOrder, error) {
	var resp ordersResponse
	if err := c.doForm(ctx, "GET", "/orders", "", &resp); err != nil {
		return nil, errors.Wrap(err, "orders")
	}
	return resp.Data, nil
}
