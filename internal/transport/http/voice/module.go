package voice

import "go.uber.org/fx"

// Module wires HTTP voice handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
