package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/config"
	"github.com/polkiloo/usersearch/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewUserSearchFacade,
		newHTTPServer,
		newDispatcher,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

// newHTTPServer builds the server. Request contexts are cancelled as soon as
// shutdown begins so event streams terminate.
func newHTTPServer(p serverParams) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	server := &http.Server{
		Addr:        p.Config.RunAddress,
		Handler:     p.Router,
		BaseContext: func(net.Listener) context.Context { return base },
	}
	server.RegisterOnShutdown(cancel)
	return server
}

func newDispatcher(logger *slog.Logger) *worker.Dispatcher {
	return worker.NewDispatcher(logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Dispatcher *worker.Dispatcher
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting usersearch", slog.String("addr", p.Server.Addr))
			// the start context expires once startup completes
			p.Dispatcher.Start(context.Background())
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			p.Dispatcher.Stop()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("usersearch stopped")
			return nil
		},
	})
}
