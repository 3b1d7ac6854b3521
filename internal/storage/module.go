// Package storage selects the key-value backend named by the storage DSN.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/config"
	"github.com/polkiloo/usersearch/internal/domain/repository"
	"github.com/polkiloo/usersearch/internal/storage/memory"
	"github.com/polkiloo/usersearch/internal/storage/postgres"
	"github.com/polkiloo/usersearch/internal/storage/sqlite"
)

// Backend is a key-value store with connectivity checks and a lifecycle.
type Backend interface {
	repository.KeyValueStore
	HealthCheck(ctx context.Context) error
	Close()
}

// Module wires the configured backend and closes it on shutdown.
var Module = fx.Options(
	fx.Provide(newBackend),
	fx.Provide(func(b Backend) repository.KeyValueStore { return b }),
	fx.Invoke(registerLifecycle),
)

// Open picks the backend for dsn: "memory" (or empty) keeps data in process,
// postgres:// URLs use PostgreSQL, anything else is a SQLite file path.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (Backend, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return memory.New(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(ctx, dsn, logger)
	default:
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("empty sqlite path in %q", dsn)
		}
		return sqlite.New(ctx, path, logger)
	}
}

type backendParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newBackend(p backendParams) (Backend, error) {
	backend, err := Open(p.Ctx, p.Config.StorageDSN, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("storage ready", slog.String("backend", fmt.Sprintf("%T", backend)))
	return backend, nil
}

func registerLifecycle(lc fx.Lifecycle, backend Backend) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			backend.Close()
			return nil
		},
	})
}
