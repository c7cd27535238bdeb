package reservation

import "go.uber.org/fx"

// Module provides the reservation ledger to Fx.
var Module = fx.Provide(NewService)
