package ticker

import (
	"context"

	"stock_trader/internal/engine"
	"stock_trader/internal/models"
	"stock_trader/internal/modules/config"
	"stock_trader/internal/modules/ticker/service"

	"go.uber.org/fx"
)

// Module provides the live price feed. The first ready account's credentials
// authenticate the single websocket all users trade off.
func Module() fx.Option {
	return fx.Module("ticker",
		fx.Provide(
			func(cfg *config.Config, sd *engine.SessionData) *service.Feed {
				return service.NewFeed(cfg.Broker.TickerURL, sd.Accounts[0],
					sd.Instruments, cfg.TickBufferSize)
			},
			func(f *service.Feed) <-chan []models.Tick {
				return f.Ticks()
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, f *service.Feed) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go f.Run(ctx)
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
