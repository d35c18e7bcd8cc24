package postback

import (
	"context"
	"fmt"
	"net/http"

	"stock_trader/internal/engine"
	"stock_trader/internal/models"
	"stock_trader/internal/modules/config"
	"stock_trader/internal/modules/postback/service"
	"stock_trader/pkg/logger"

	"go.uber.org/fx"
)

// Module runs the postback webhook: the broker calls it with order status
// notifications which feed the engine's reconciler.
func Module() fx.Option {
	return fx.Module("postback",
		fx.Provide(
			func(e *engine.Engine, queue chan models.Postback) *service.Handler {
				return service.NewHandler(e, queue)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, h *service.Handler) {
			mux := http.NewServeMux()
			mux.Handle("/postback", h)

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Service.PostbackPort),
				Handler: mux,
			}

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						logger.Info("postback server listening on %s", srv.Addr)
						if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
							logger.Fatal("postback server: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}
