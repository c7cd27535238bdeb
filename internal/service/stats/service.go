package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/entity"
	inventorysvc "github.com/Additional-Code/tableside/internal/service/inventory"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/tableside/service/stats")

const recentOrderLimit = 5

// Dashboard summarises the current trading day.
type Dashboard struct {
	TotalOrdersToday int
	TodaysRevenue    decimal.Decimal
	ActiveOrders     int
	RecentOrders     []entity.Order
	UpcomingBookings int
	AvailableTables  int
	LowStockItems    int
}

// Service aggregates dashboard statistics from the ledgers.
type Service struct {
	orders       *ordersvc.Service
	reservations *reservationsvc.Service
	tables       *tablesvc.Service
	inventory    *inventorysvc.Service
	location     *time.Location
	logger       *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders       *ordersvc.Service
	Reservations *reservationsvc.Service
	Tables       *tablesvc.Service
	Inventory    *inventorysvc.Service
	Config       config.Config
	Logger       *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	loc := p.Config.Restaurant.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:       p.Orders,
		reservations: p.Reservations,
		tables:       p.Tables,
		inventory:    p.Inventory,
		location:     loc,
		logger:       p.Logger,
	}
}

// StartOfDay returns local midnight of the day containing now.
func (s *Service) StartOfDay(now time.Time) time.Time {
	local := now.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}

// Dashboard computes the summary as of now.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	ctx, span := serviceTracer.Start(ctx, "StatsService.Dashboard")
	defer span.End()

	today, err := s.orders.ListSince(ctx, s.StartOfDay(now))
	if err != nil {
		return nil, err
	}
	out := &Dashboard{TotalOrdersToday: len(today), TodaysRevenue: decimal.Zero}
	for _, o := range today {
		if o.Status == entity.OrderPaid || o.PaymentStatus == entity.PaymentPaid {
			out.TodaysRevenue = out.TodaysRevenue.Add(o.TotalAmount)
		}
		switch o.Status {
		case entity.OrderPending, entity.OrderPreparing, entity.OrderReady:
			out.ActiveOrders++
		}
	}

	if out.RecentOrders, err = s.orders.ListRecent(ctx, recentOrderLimit); err != nil {
		return nil, err
	}
	upcoming, err := s.reservations.Upcoming(ctx, now)
	if err != nil {
		return nil, err
	}
	out.UpcomingBookings = len(upcoming)

	if out.AvailableTables, err = s.tables.CountAvailable(ctx); err != nil {
		return nil, err
	}
	low, err := s.inventory.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	out.LowStockItems = len(low)
	return out, nil
}
