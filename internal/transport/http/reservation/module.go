package reservation

import "go.uber.org/fx"

// Module wires HTTP reservation handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
