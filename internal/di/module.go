package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/adapter/github"
	"github.com/polkiloo/usersearch/internal/app"
	"github.com/polkiloo/usersearch/internal/config"
	"github.com/polkiloo/usersearch/internal/favorites"
	"github.com/polkiloo/usersearch/internal/imagecache"
	"github.com/polkiloo/usersearch/internal/logger"
	"github.com/polkiloo/usersearch/internal/server/http/handlers"
	"github.com/polkiloo/usersearch/internal/server/http/router"
	"github.com/polkiloo/usersearch/internal/storage"
	"github.com/polkiloo/usersearch/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		storage.Module,
		github.Module,
		imagecache.Module,
		favorites.Module,
		usecase.Module,
		fx.Provide(func(b storage.Backend) app.HealthChecker { return b }),
		fx.Provide(func(f *app.UserSearchFacade) handlers.UserSearchFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
