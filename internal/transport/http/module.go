package http

import (
	"go.uber.org/fx"

	authtransport "github.com/Additional-Code/tableside/internal/transport/http/auth"
	dashboardtransport "github.com/Additional-Code/tableside/internal/transport/http/dashboard"
	inventorytransport "github.com/Additional-Code/tableside/internal/transport/http/inventory"
	menutransport "github.com/Additional-Code/tableside/internal/transport/http/menu"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	ordertransport "github.com/Additional-Code/tableside/internal/transport/http/order"
	reservationtransport "github.com/Additional-Code/tableside/internal/transport/http/reservation"
	stafftransport "github.com/Additional-Code/tableside/internal/transport/http/staff"
	streamtransport "github.com/Additional-Code/tableside/internal/transport/http/stream"
	tabletransport "github.com/Additional-Code/tableside/internal/transport/http/table"
	voicetransport "github.com/Additional-Code/tableside/internal/transport/http/voice"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	middleware.Module,
	authtransport.Module,
	tabletransport.Module,
	ordertransport.Module,
	reservationtransport.Module,
	menutransport.Module,
	inventorytransport.Module,
	stafftransport.Module,
	dashboardtransport.Module,
	voicetransport.Module,
	streamtransport.Module,
)
