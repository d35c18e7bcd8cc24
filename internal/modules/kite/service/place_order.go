package service

import (
	"context"
	"net/url"
	"strconv"

	"stock_trader/internal/engine"
	"stock_trader/internal/models"

	"github.com/pkg/errors"
)

type placeOrderResponse struct {
	Data struct {
		OrderID string `json:"order_id"`
	} `json:"data"`
}

// PlaceOrder submits an intraday market order and returns the broker's
// order id. Bracket orders carry the protective trigger price; regular
// orders are plain MIS.
func (c *Client) PlaceOrder(ctx context.Context, o engine.OrderParams) (string, error) {
	form := url.Values{}
	form.Set("exchange", "NSE")
	form.Set("tradingsymbol", o.Symbol)
	if o.Buy {
		form.Set("transaction_type", "BUY")
	} else {
		form.Set("transaction_type", "SELL")
	}
	form.Set("quantity", strconv.Itoa(o.Quantity))
	form.Set("order_type", "MARKET")
	form.Set("validity", "DAY")
	if o.Variety == models.VarietyBracket {
		form.Set("trigger_price", strconv.FormatFloat(o.TriggerPrice, 'f', 1, 64))
	} else {
		form.Set("product", "MIS")
	}

	var resp placeOrderResponse
	err := c.doForm(ctx, "POST", "/orders/"+string(o.Variety), form.Encode(), &resp)
	if err != nil {
		return "", errors.Wrap(err, "place order")
	}
	return resp.Data.OrderID, nil
}
