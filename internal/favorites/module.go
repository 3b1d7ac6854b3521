package favorites

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/domain/repository"
	"github.com/polkiloo/usersearch/internal/worker"
)

// Module provides the shared favorite store.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	Storage    repository.KeyValueStore
	Dispatcher *worker.Dispatcher
	Logger     *slog.Logger
}

func newStore(p storeParams) *Store {
	return NewStore(context.Background(), p.Storage, p.Dispatcher, p.Logger)
}
