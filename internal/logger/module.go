package logger

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/polkiloo/usersearch/internal/config"
)

// Module wires slog logger for dependency injection.
var Module = fx.Provide(newFromConfig)

// EventLogger routes fx lifecycle events through the application logger.
var EventLogger = fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: l}
})

func newFromConfig(cfg *config.Config) *slog.Logger {
	return New(cfg.LogLevel)
}
