package dashboard

import "go.uber.org/fx"

// Module wires HTTP dashboard handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
