package engine

import (
	"context"
	"testing"
	"time"

	"stock_trader/internal/models"
	"stock_trader/internal/notify"
	"stock_trader/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTinyQueueEngine(t *testing.T) *Engine {
	t.Helper()
	strat, err := strategy.New("short_stoploss")
	require.NoError(t, err)

	return New(Params{
		Strategy:    strat,
		Controls:    testControls(),
		Instruments: []models.Instrument{testInstrument()},
		Accounts: []models.UserAccount{{
			UserID:         "u1",
			FundsAvailable: 10000,
		}},
		Brokers:         func(models.UserAccount) Broker { return &fakeBroker{} },
		Notifier:        notify.Nop{},
		MockTrading:     true,
		SignalQueueSize: 1,
	})
}

func TestBroadcastEnterDropsWhenFull(t *testing.T) {
	e := newTinyQueueEngine(t)
	a := e.accounts["u1"]

	e.broadcastEnter(1, 100)
	e.broadcastEnter(1, 99) // queue full, dropped

	assert.Len(t, a.queue, 1)
	sig := <-a.queue
	assert.InDelta(t, 100.0, sig.Price, 1e-9)
}

func TestSendExitBlocksUntilConsumed(t *testing.T) {
	e := newTinyQueueEngine(t)
	a := e.accounts["u1"]

	// saturate the queue so the exit send has to wait
	a.queue <- models.Signal{Kind: models.SignalEnter, Token: 1, Price: 100}

	pos := &models.Position{UserID: "u1", Token: 1, ExitPrice: 99}
	delivered := make(chan struct{})
	go func() {
		e.sendExit(context.Background(), pos, 99)
		close(delivered)
	}()

	select {
	case <-delivered:
		t.Fatal("exit signal delivered into a full queue")
	case <-time.After(20 * time.Millisecond):
	}

	<-a.queue // make room
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("exit signal never delivered")
	}

	sig := <-a.queue
	assert.Equal(t, models.SignalExit, sig.Kind)
	assert.Same(t, pos, sig.Position)
}

func TestSendExitHonorsContext(t *testing.T) {
	e := newTinyQueueEngine(t)
	a := e.accounts["u1"]
	a.queue <- models.Signal{Kind: models.SignalEnter, Token: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		e.sendExit(ctx, &models.Position{UserID: "u1", Token: 1}, 100)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendExit did not return on cancelled context")
	}
}

func TestSendExitCarriesPriceSnapshot(t *testing.T) {
	e, _ := newTestEngine(t, testControls())
	pos := &models.Position{UserID: "u1", Token: 1, ExitPrice: 201.2}

	e.sendExit(context.Background(), pos, 201.2)
	// the position moving again before delivery must not reach the signal
	pos.ExitPrice = 150

	sig := <-e.accounts["u1"].queue
	assert.InDelta(t, 201.2, sig.Price, 1e-9)
}

func TestSendExitUnknownUser(t *testing.T) {
	e := newTinyQueueEngine(t)
	// returns without panicking or blocking
	e.sendExit(context.Background(), &models.Position{UserID: "ghost", Token: 1}, 100)
}
