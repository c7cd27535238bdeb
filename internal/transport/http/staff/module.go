package staff

import "go.uber.org/fx"

// Module wires HTTP staff handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
