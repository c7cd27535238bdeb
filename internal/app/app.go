package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/event"
	"github.com/Additional-Code/tableside/internal/logger"
	"github.com/Additional-Code/tableside/internal/messaging"
	"github.com/Additional-Code/tableside/internal/observability"
	"github.com/Additional-Code/tableside/internal/payment"
	"github.com/Additional-Code/tableside/internal/realtime"
	repositoryinventory "github.com/Additional-Code/tableside/internal/repository/inventory"
	repositorymenu "github.com/Additional-Code/tableside/internal/repository/menu"
	repositoryorder "github.com/Additional-Code/tableside/internal/repository/order"
	repositoryreservation "github.com/Additional-Code/tableside/internal/repository/reservation"
	repositorystaff "github.com/Additional-Code/tableside/internal/repository/staff"
	repositorytable "github.com/Additional-Code/tableside/internal/repository/table"
	grpcserver "github.com/Additional-Code/tableside/internal/server/grpc"
	httpserver "github.com/Additional-Code/tableside/internal/server/http"
	serviceauth "github.com/Additional-Code/tableside/internal/service/auth"
	serviceinventory "github.com/Additional-Code/tableside/internal/service/inventory"
	servicemenu "github.com/Additional-Code/tableside/internal/service/menu"
	serviceorder "github.com/Additional-Code/tableside/internal/service/order"
	servicereservation "github.com/Additional-Code/tableside/internal/service/reservation"
	servicestaff "github.com/Additional-Code/tableside/internal/service/staff"
	servicestats "github.com/Additional-Code/tableside/internal/service/stats"
	servicetable "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/internal/service/workflow"
	transporthttp "github.com/Additional-Code/tableside/internal/transport/http"
	"github.com/Additional-Code/tableside/internal/voice"
	"github.com/Additional-Code/tableside/internal/worker"
	workertable "github.com/Additional-Code/tableside/internal/worker/table"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	event.Module,
	realtime.Module,
	payment.Module,
	voice.Module,
	repositorytable.Module,
	repositoryorder.Module,
	repositoryreservation.Module,
	repositorymenu.Module,
	repositoryinventory.Module,
	repositorystaff.Module,
	servicetable.Module,
	serviceorder.Module,
	servicereservation.Module,
	servicemenu.Module,
	serviceinventory.Module,
	servicestaff.Module,
	serviceauth.Module,
	servicestats.Module,
	workflow.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
	fx.Invoke(registerFloorGauges),
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workertable.Module,
)

// Module is the default application wiring.
var Module = HTTP

// registerFloorGauges publishes dashboard counters as metrics.
func registerFloorGauges(lc fx.Lifecycle, mgr *observability.Manager, stats *servicestats.Service) error {
	reg, err := observability.RegisterFloorGauges(mgr, func(ctx context.Context) (observability.FloorSnapshot, error) {
		d, err := stats.Dashboard(ctx, time.Now())
		if err != nil {
			return observability.FloorSnapshot{}, err
		}
		return observability.FloorSnapshot{
			AvailableTables:      int64(d.AvailableTables),
			ActiveOrders:         int64(d.ActiveOrders),
			UpcomingReservations: int64(d.UpcomingBookings),
			LowStockItems:        int64(d.LowStockItems),
		}, nil
	})
	if err != nil {
		return err
	}
	lc.Append(fx.StopHook(reg.Unregister))
	return nil
}
