package router

import "go.uber.org/fx"

// Module provides the gin engine serving the search, favorites, detail,
// avatar and event endpoints.
var Module = fx.Provide(Setup)
