package usecase

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/adapter/github"
	"github.com/polkiloo/usersearch/internal/config"
	"github.com/polkiloo/usersearch/internal/favorites"
	"github.com/polkiloo/usersearch/internal/worker"
)

// Module provides the coordinators to the fx container.
var Module = fx.Provide(
	newSearchCoordinator,
	newDetailFactory,
	newFavoritesCoordinator,
)

type coordinatorParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     *config.Config
	Client     github.Client
	Store      *favorites.Store
	Dispatcher *worker.Dispatcher
	Logger     *slog.Logger
}

func newSearchCoordinator(p coordinatorParams) *SearchCoordinator {
	c := NewSearchCoordinator(p.Client, p.Store, p.Dispatcher, clockwork.NewRealClock(), p.Config.SearchDebounce, p.Logger)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			c.Close()
			return nil
		},
	})
	return c
}

func newDetailFactory(p coordinatorParams) *DetailFactory {
	return NewDetailFactory(p.Client, p.Store, p.Dispatcher, p.Logger)
}

func newFavoritesCoordinator(p coordinatorParams) *FavoritesCoordinator {
	c := NewFavoritesCoordinator(p.Store, p.Dispatcher)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			c.Close()
			return nil
		},
	})
	return c
}
