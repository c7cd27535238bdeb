package stats

import "go.uber.org/fx"

// Module provides the stats service to Fx.
var Module = fx.Provide(NewService)
