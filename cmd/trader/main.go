package main

import (
	"context"
	"log"

	"stock_trader/internal/engine"
	"stock_trader/internal/modules/config"
	"stock_trader/internal/modules/controls"
	"stock_trader/internal/modules/kite"
	"stock_trader/internal/modules/postback"
	"stock_trader/internal/modules/postgres"
	"stock_trader/internal/modules/scheduler"
	"stock_trader/internal/modules/store"
	"stock_trader/internal/modules/ticker"
	"stock_trader/internal/notify"
	"stock_trader/pkg/logger"
	"stock_trader/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		config.Module(),
		postgres.Module(),
		store.Module(),
		controls.Module(),
		notify.Module(),
		kite.Module(),
		engine.Module(),
		ticker.Module(),
		postback.Module(),
		scheduler.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil
	}
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
