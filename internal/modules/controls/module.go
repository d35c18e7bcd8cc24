package controls

import (
	"stock_trader/internal/modules/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("controls",
		fx.Provide(
			func(cfg *config.Config) (*Source, error) {
				return NewSource(cfg.ControlsFile)
			},
		),
		fx.Invoke(func(s *Source) {
			s.Watch()
		}),
	)
}
