package imagecache

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/config"
	"github.com/polkiloo/usersearch/internal/worker"
)

// Module exposes the shared image cache.
var Module = fx.Provide(newCache)

type cacheParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     *config.Config
	Logger     *slog.Logger
	Dispatcher *worker.Dispatcher
}

func newCache(p cacheParams) (*Cache, error) {
	cache, err := New(p.Dispatcher, p.Logger, Options{
		MaxEntries: p.Config.ImageCacheEntries,
		MaxBytes:   p.Config.ImageCacheBytes,
		Dir:        p.Config.ImageCacheDir,
	})
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			cache.Close()
			return nil
		},
	})
	return cache, nil
}
