package config

import "go.uber.org/fx"

// Module provides the configuration parsed from flags, environment and the
// optional .env file.
var Module = fx.Provide(Load)
