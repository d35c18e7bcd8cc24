package service

import (
	"context"
	"time"

	"stock_trader/internal/models"
	"stock_trader/pkg/db"

	"github.com/pkg/errors"
)

// Store reads the session's static inputs from postgres: the instrument
// universe and the user accounts cleared for trading.
type Store struct {
	tx db.TxManager
}

func NewStore(tx db.TxManager) *Store {
	return &Store{tx: tx}
}

// ActiveInstruments loads the instruments selected for the session, with the
// margin multipliers and bracket trigger bounds refreshed for the day.
func (s *Store) ActiveInstruments(ctx context.Context) ([]models.Instrument, error) {
	const q = `
		SELECT token, symbol, name, mis_margin, co_margin,
		       co_trigger_lower, co_trigger_upper
		FROM instruments
		WHERE active = true
		ORDER BY symbol`

	var out []models.Instrument
	err := s.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		rows, err := tx.Query(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var inst models.Instrument
			if err := rows.Scan(&inst.Token, &inst.Symbol, &inst.Name,
				&inst.MISMargin, &inst.COMargin,
				&inst.COTriggerLower, &inst.COTriggerUpper); err != nil {
				return err
			}
			inst.Active = true
			out = append(out, inst)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, "load instruments")
	}
	return out, nil
}

// ActiveAccounts loads the user accounts enabled for the session, including
// broker credentials and the timestamp of the last access-token refresh.
func (s *Store) ActiveAccounts(ctx context.Context) ([]models.UserAccount, error) {
	const q = `
		SELECT user_id, user_name, api_key, api_secret,
		       access_token, access_token_time
		FROM user_accounts
		WHERE active = true
		ORDER BY user_id`

	var out []models.UserAccount
	err := s.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		rows, err := tx.Query(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var acc models.UserAccount
			var tokenTime time.Time
			if err := rows.Scan(&acc.UserID, &acc.UserName, &acc.APIKey,
				&acc.APISecret, &acc.AccessToken, &tokenTime); err != nil {
				return err
			}
			acc.AccessTokenTime = tokenTime
			acc.Active = true
			out = append(out, acc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, "load accounts")
	}
	return out, nil
}
