package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"stock_trader/pkg/db"
	"stock_trader/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

type marginRow struct {
	TradingSymbol string  `json:"tradingsymbol"`
	MISMultiplier float64 `json:"mis_multiplier"`
	COMultiplier  float64 `json:"co_multiplier"`
	COLower       float64 `json:"co_lower"`
	COUpper       float64 `json:"co_upper"`
}

// RefreshTriggerRanges pulls the day's margin multipliers and bracket
// trigger bounds from the broker's public margins listing and writes them
// into the instruments table. The bounds move daily and a stale lower bound
// gets bracket orders rejected.
func (s *Store) RefreshTriggerRanges(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch margins")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	var rows []marginRow
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "decode margins")
	}

	const q = `
		UPDATE instruments
		SET mis_margin = $2, co_margin = $3,
		    co_trigger_lower = $4, co_trigger_upper = $5
		WHERE symbol = $1`

	updated := 0
	err = s.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		for _, r := range rows {
			tag, err := tx.Exec(ctx, q, r.TradingSymbol,
				r.MISMultiplier, r.COMultiplier, r.COLower, r.COUpper)
			if err != nil {
				return err
			}
			updated += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "update trigger ranges")
	}

	logger.Info("trigger ranges refreshed: %d instruments updated", updated)
	return nil
}
