package inventory

import "go.uber.org/fx"

// Module wires HTTP inventory handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
