package notify

import (
	"context"
	"fmt"
	"sync"

	"stock_trader/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram is a passive notifier plus a single /status command.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu       sync.RWMutex
	statusFn func() string
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// SetStatusFunc installs the session status renderer behind /status.
func (t *Telegram) SetStatusFunc(fn func() string) {
	t.mu.Lock()
	t.statusFn = fn
	t.mu.Unlock()
}

func (t *Telegram) Send(msg string) {
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Error("telegram send failed: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) {
	t.Send(fmt.Sprintf(format, args...))
}

// Run polls for updates and answers /status until ctx is done.
func (t *Telegram) Run(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case upd := <-updates:
			if upd.Message == nil || upd.Message.Chat.ID != t.chatID {
				continue
			}
			if upd.Message.Command() != "status" {
				continue
			}
			t.mu.RLock()
			fn := t.statusFn
			t.mu.RUnlock()
			if fn == nil {
				t.Send("session is not running")
				continue
			}
			t.Send(fn())
		}
	}
}
