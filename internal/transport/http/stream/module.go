package stream

import "go.uber.org/fx"

// Module wires HTTP stream handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
