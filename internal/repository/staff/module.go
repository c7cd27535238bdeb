package staff

import "go.uber.org/fx"

// Module provides the staff repository to Fx.
var Module = fx.Provide(NewRepository)
