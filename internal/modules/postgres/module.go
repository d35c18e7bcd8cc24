package postgres

import (
	"context"

	"stock_trader/internal/modules/config"
	"stock_trader/pkg/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
				pool, err := db.NewPool(context.Background(), db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						pool.Close()
						return nil
					},
				})
				return pool, nil
			},
			db.NewPgTxManager,
		),
	)
}
