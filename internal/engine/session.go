package engine

import (
	"context"
	"time"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"

	"github.com/pkg/errors"
)

// tokenRefreshHour is the earliest same-day hour an access token must have
// been issued at to be usable. Broker tokens expire overnight; one issued
// before the morning refresh belongs to yesterday's session.
const (
	tokenRefreshHour   = 8
	tokenRefreshMinute = 30
)

// SessionData is the day's bootstrap: the instrument universe and the
// accounts that passed the credential checks, with opening funds resolved.
type SessionData struct {
	Instruments []models.Instrument
	Accounts    []models.UserAccount
}

type SessionLoader struct {
	store      InstrumentStore
	brokers    BrokerFactory
	mock       bool
	mockFunds  float64
	marginsURL string
	now        func() time.Time
}

// InstrumentStore is what the loader needs from the storage layer.
type InstrumentStore interface {
	ActiveInstruments(ctx context.Context) ([]models.Instrument, error)
	ActiveAccounts(ctx context.Context) ([]models.UserAccount, error)
	RefreshTriggerRanges(ctx context.Context, url string) error
}

func NewSessionLoader(store InstrumentStore, brokers BrokerFactory, mock bool, mockFunds float64, marginsURL string) *SessionLoader {
	return &SessionLoader{
		store:      store,
		brokers:    brokers,
		mock:       mock,
		mockFunds:  mockFunds,
		marginsURL: marginsURL,
		now:        time.Now,
	}
}

// Load assembles the session inputs: refresh the day's trigger ranges, read
// instruments and accounts, drop accounts with stale access tokens and
// resolve each survivor's opening funds.
func (l *SessionLoader) Load(ctx context.Context) (*SessionData, error) {
	if !l.mock {
		if err := l.store.RefreshTriggerRanges(ctx, l.marginsURL); err != nil {
			// stale ranges degrade bracket orders but do not block the session
			logger.Error("trigger range refresh failed, using stored values: %v", err)
		}
	}

	instruments, err := l.store.ActiveInstruments(ctx)
	if err != nil {
		return nil, err
	}
	if len(instruments) == 0 {
		return nil, errors.New("no active instruments for the session")
	}

	accounts, err := l.store.ActiveAccounts(ctx)
	if err != nil {
		return nil, err
	}

	ready := make([]models.UserAccount, 0, len(accounts))
	for _, acc := range accounts {
		if !l.tokenFresh(acc) {
			logger.Error("skipping account %s: access token from %s is stale",
				acc.UserID, acc.AccessTokenTime.Format("2006-01-02 15:04:05"))
			continue
		}
		funds, err := l.openingFunds(ctx, acc)
		if err != nil {
			logger.Error("skipping account %s: margin lookup failed: %v", acc.UserID, err)
			continue
		}
		acc.FundsAvailable = funds
		ready = append(ready, acc)
	}
	if len(ready) == 0 {
		return nil, errors.New("no accounts ready to trade")
	}

	logger.Info("session loaded: %d instruments, %d accounts", len(instruments), len(ready))
	return &SessionData{Instruments: instruments, Accounts: ready}, nil
}

func (l *SessionLoader) tokenFresh(acc models.UserAccount) bool {
	if l.mock {
		return true
	}
	now := l.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(),
		tokenRefreshHour, tokenRefreshMinute, 0, 0, now.Location())
	return acc.AccessTokenTime.After(cutoff)
}

func (l *SessionLoader) openingFunds(ctx context.Context, acc models.UserAccount) (float64, error) {
	if l.mock {
		return l.mockFunds, nil
	}
	return l.brokers(acc).MarginAvailable(ctx)
}
