package middleware

import "go.uber.org/fx"

// Module provides the shared HTTP middleware.
var Module = fx.Provide(NewAuthenticator)
