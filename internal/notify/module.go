package notify

import (
	"context"

	"stock_trader/internal/modules/config"
	"stock_trader/pkg/logger"

	"go.uber.org/fx"
)

// StatusSource renders the session status for the /status command. The
// engine satisfies it; the indirection keeps wiring one-directional.
type StatusSource interface {
	StatusSummary() string
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) (Notifier, error) {
				if cfg.Telegram.Token == "" {
					logger.Info("telegram token not set, notifications disabled")
					return Nop{}, nil
				}
				return NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, n Notifier, status StatusSource) {
			tg, ok := n.(*Telegram)
			if !ok {
				return
			}
			tg.SetStatusFunc(status.StatusSummary)

			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go tg.Run(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
