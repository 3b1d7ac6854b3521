package github

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/usersearch/internal/config"
	"github.com/polkiloo/usersearch/internal/worker"
)

// Module exposes the GitHub API client to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config     *config.Config
	Logger     *slog.Logger
	Dispatcher *worker.Dispatcher
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.APIBaseURL, p.Dispatcher, p.Logger, Options{
		Timeout:             p.Config.RequestTimeout,
		Token:               p.Config.GitHubToken,
		RequestsPerMinute:   p.Config.APIRateLimit,
		WaitForConnectivity: p.Config.WaitForConnectivity,
	})
}
