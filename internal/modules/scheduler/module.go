package scheduler

import (
	"context"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(New),
		fx.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					s.Run(ctx)
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
