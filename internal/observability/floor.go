package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FloorSnapshot is the point-in-time state of the dining room.
type FloorSnapshot struct {
	AvailableTables      int64
	ActiveOrders         int64
	UpcomingReservations int64
	LowStockItems        int64
}

// FloorSource reads the current floor state.
type FloorSource func(ctx context.Context) (FloorSnapshot, error)

// RegisterFloorGauges exports the floor state as observable gauges. The
// source is read once per collection.
func RegisterFloorGauges(m *Manager, source FloorSource) (metric.Registration, error) {
	meter := m.Meter("github.com/Additional-Code/tableside/floor")

	available, err := meter.Int64ObservableGauge("tableside_tables_available",
		metric.WithDescription("Tables free to seat a party"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64ObservableGauge("tableside_orders_active",
		metric.WithDescription("Orders that are not yet paid"))
	if err != nil {
		return nil, err
	}
	upcoming, err := meter.Int64ObservableGauge("tableside_reservations_upcoming",
		metric.WithDescription("Confirmed reservations still ahead"))
	if err != nil {
		return nil, err
	}
	lowStock, err := meter.Int64ObservableGauge("tableside_inventory_low_stock",
		metric.WithDescription("Inventory items at or below threshold"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		snap, err := source(ctx)
		if err != nil {
			m.logger.Warn("floor gauges skipped", zap.Error(err))
			return nil
		}
		o.ObserveInt64(available, snap.AvailableTables)
		o.ObserveInt64(active, snap.ActiveOrders)
		o.ObserveInt64(upcoming, snap.UpcomingReservations)
		o.ObserveInt64(lowStock, snap.LowStockItems)
		return nil
	}, available, active, upcoming, lowStock)
}
