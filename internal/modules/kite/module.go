package kite

import (
	"stock_trader/internal/engine"
	"stock_trader/internal/models"
	"stock_trader/internal/modules/config"
	"stock_trader/internal/modules/kite/service"

	"go.uber.org/fx"
)

// Module provides the broker connection factory: one REST client per account
// in live mode, instant-fill paper brokers in mock mode.
func Module() fx.Option {
	return fx.Module("kite",
		fx.Provide(
			func(cfg *config.Config, postbacks chan models.Postback) engine.BrokerFactory {
				if cfg.MockTrading {
					return func(acc models.UserAccount) engine.Broker {
						return service.NewPaper(acc.UserID, cfg.MockInitialValue, postbacks)
					}
				}
				return func(acc models.UserAccount) engine.Broker {
					return service.NewClient(cfg.Broker.APIURL, acc)
				}
			},
		),
	)
}
