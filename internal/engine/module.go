package engine

import (
	"context"

	"stock_trader/internal/models"
	"stock_trader/internal/modules/config"
	"stock_trader/internal/modules/controls"
	"stock_trader/internal/modules/store/service"
	"stock_trader/internal/notify"
	"stock_trader/internal/strategy"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(cfg *config.Config) chan models.Postback {
				size := cfg.PostbackQueueSize
				if size <= 0 {
					size = 500
				}
				return make(chan models.Postback, size)
			},
			func(e *Engine) notify.StatusSource {
				return e
			},
			func(cfg *config.Config) (*strategy.Config, error) {
				return strategy.New(cfg.Strategy)
			},
			func(cfg *config.Config, st *service.Store, brokers BrokerFactory) (*SessionData, error) {
				loader := NewSessionLoader(st, brokers,
					cfg.MockTrading, cfg.MockInitialValue, cfg.Broker.TriggerRangeURL)
				return loader.Load(context.Background())
			},
			func(
				cfg *config.Config,
				sd *SessionData,
				strat *strategy.Config,
				src *controls.Source,
				brokers BrokerFactory,
				notifier notify.Notifier,
				postbacks chan models.Postback,
			) *Engine {
				e := New(Params{
					Strategy:        strat,
					Controls:        src.Current(),
					Instruments:     sd.Instruments,
					Accounts:        sd.Accounts,
					Brokers:         brokers,
					Notifier:        notifier,
					Postbacks:       postbacks,
					MockTrading:     cfg.MockTrading,
					SignalQueueSize: cfg.SignalQueueSize,
					PostbackDelay:   cfg.PostbackDelay,
				})
				src.Subscribe(e.ApplyControls)
				return e
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, e *Engine, ticks <-chan []models.Tick) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					e.Start(ctx)
					go e.Run(ctx, ticks)
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
