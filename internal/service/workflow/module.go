package workflow

import "go.uber.org/fx"

// Module provides the workflow coordinator to Fx.
var Module = fx.Provide(NewCoordinator)
