package store

import (
	"stock_trader/internal/modules/store/service"
	"stock_trader/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("store",
		fx.Provide(
			func(tx *db.PgTxManager) *service.Store {
				return service.NewStore(tx)
			},
		),
	)
}
