package service

import (
	"context"

	"github.com/pkg/errors"
)

type marginsResponse struct {
	Data struct {
		Available struct {
			LiveBalance float64 `json:"live_balance"`
		} `json:"available"`
	} `json:"data"`
}

// MarginAvailable reports the account's live equity balance.
func (c *Client) MarginAvailable(ctx context.Context) (float64, error) {
	var resp marginsResponse
	if err := c.doForm(ctx, "GET", "/user/margins/equity", "", &resp); err != nil {
		return 0, errors.Wrap(err, "margins")
	}
	return resp.Data.Available.LiveBalance, nil
}
