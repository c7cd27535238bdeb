// Package workflow applies the rules that span orders, tables and reservations.
package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/payment"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var (
	tracer = otel.Tracer("github.com/Additional-Code/tableside/service/workflow")
	meter  = otel.Meter("github.com/Additional-Code/tableside/service/workflow")
)

// Coordinator glues the order, table and reservation ledgers together.
type Coordinator struct {
	orders       *ordersvc.Service
	tables       *tablesvc.Service
	reservations *reservationsvc.Service
	gateway      payment.Gateway
	currency     string
	logger       *zap.Logger

	paymentsFailed metric.Int64Counter
}

// Params defines dependencies for constructing Coordinator.
type Params struct {
	fx.In

	Orders       *ordersvc.Service
	Tables       *tablesvc.Service
	Reservations *reservationsvc.Service
	Gateway      payment.Gateway
	Config       config.Config
	Logger       *zap.Logger
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(p Params) (*Coordinator, error) {
	failed, err := meter.Int64Counter("tableside.payments.failed")
	if err != nil {
		return nil, err
	}
	currency := p.Config.Payment.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Coordinator{
		orders:         p.Orders,
		tables:         p.Tables,
		reservations:   p.Reservations,
		gateway:        p.Gateway,
		currency:       currency,
		logger:         p.Logger,
		paymentsFailed: failed,
	}, nil
}

// CreateOrder places an order and occupies its table atomically.
func (c *Coordinator) CreateOrder(ctx context.Context, in ordersvc.CreateInput) (*entity.Order, error) {
	return c.orders.CreateOrder(ctx, in)
}

// AdvanceOrder bumps an order along the kitchen flow.
func (c *Coordinator) AdvanceOrder(ctx context.Context, orderID string, next entity.OrderStatus, changedBy string) (*entity.Order, error) {
	return c.orders.AdvanceStatus(ctx, orderID, next, changedBy)
}

// CheckoutResult carries the settled order and the gateway receipt.
type CheckoutResult struct {
	Order   *entity.Order
	Receipt *payment.Receipt
}

// Checkout charges the order total and, on success, marks the order paid,
// which frees its table. The order is claimed before the gateway is called,
// so concurrent checkouts of one order capture at most once. A declined
// payment releases the claim and leaves the order unpaid.
func (c *Coordinator) Checkout(ctx context.Context, orderID string) (*CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Checkout", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := c.orders.ClaimPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result, err := c.gateway.Initiate(ctx, payment.Request{
		OrderID:  order.ID,
		Amount:   minorUnits(order.TotalAmount),
		Currency: c.currency,
	})
	if err != nil || !result.Success {
		if err == nil {
			err = payment.ErrDeclined
		}
		c.paymentsFailed.Add(ctx, 1)
		if rerr := c.orders.ReleasePayment(context.WithoutCancel(ctx), orderID); rerr != nil {
			c.logger.Error("failed to release payment claim", zap.String("order_id", orderID), zap.Error(rerr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment failed")
		c.logger.Warn("payment failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, errorbank.Unprocessable("payment failed", errorbank.WithCause(err))
	}

	paid, err := c.orders.MarkPaid(ctx, orderID, result.PaymentID)
	if err != nil {
		// The claim stays in place: the capture must be reconciled by hand.
		c.logger.Error("payment captured but order not settled",
			zap.String("order_id", orderID),
			zap.String("payment_id", result.PaymentID),
			zap.Error(err),
		)
		return nil, err
	}
	return &CheckoutResult{Order: paid, Receipt: result.Receipt}, nil
}

// PlaceAndPay creates an order and checks it out straight away. When the
// payment fails the order stays open on its table.
func (c *Coordinator) PlaceAndPay(ctx context.Context, in ordersvc.CreateInput) (*entity.Order, *CheckoutResult, error) {
	order, err := c.orders.CreateOrder(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	res, err := c.Checkout(ctx, order.ID)
	if err != nil {
		return order, nil, err
	}
	return res.Order, res, nil
}

// CreateReservation books a table and reserves it. The capacity check runs
// before any write. If the table step fails the booking stays and a partial
// failure carrying its id is returned; ReconcileTable can finish the job.
func (c *Coordinator) CreateReservation(ctx context.Context, in reservationsvc.CreateInput) (*entity.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Workflow.CreateReservation", trace.WithAttributes(attribute.String("table.id", in.TableID)))
	defer span.End()

	if in.TableID == "" {
		return nil, errorbank.BadRequest("table id is required")
	}
	table, err := c.tables.Get(ctx, in.TableID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(table, in.PartySize); err != nil {
		return nil, err
	}

	res, err := c.reservations.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if _, err := c.tables.ReserveIfAvailable(ctx, res.TableID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve table failed")
		c.logger.Error("reservation stored but table not reserved",
			zap.String("reservation_id", res.ID),
			zap.String("table_id", res.TableID),
			zap.Error(err),
		)
		return res, errorbank.PartialFailure("reservation created but table status not updated",
			errorbank.WithCause(err),
			errorbank.WithDetail("reservation_id", res.ID),
		)
	}
	return res, nil
}

// UpdateReservation applies a patch, re-checking capacity when the party
// grows and releasing the table when the reservation leaves confirmed.
func (c *Coordinator) UpdateReservation(ctx context.Context, id string, p reservationsvc.Patch) (*entity.Reservation, error) {
	if p.PartySize != nil {
		current, err := c.reservations.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		table, err := c.tables.Get(ctx, current.TableID)
		if err != nil {
			return nil, err
		}
		if err := checkCapacity(table, *p.PartySize); err != nil {
			return nil, err
		}
	}

	res, previous, err := c.reservations.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if previous == entity.ReservationConfirmed && res.Status != entity.ReservationConfirmed {
		if err := c.release(ctx, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// CancelReservation cancels a booking and frees the table when it was the
// last confirmed reservation holding it.
func (c *Coordinator) CancelReservation(ctx context.Context, id string) (*entity.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Workflow.CancelReservation", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer span.End()

	res, err := c.reservations.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.release(ctx, res); err != nil {
		span.RecordError(err)
		return res, err
	}
	return res, nil
}

func (c *Coordinator) release(ctx context.Context, res *entity.Reservation) error {
	if _, err := c.tables.ReleaseIfUnreserved(ctx, res.TableID); err != nil {
		c.logger.Error("reservation closed but table not released",
			zap.String("reservation_id", res.ID),
			zap.String("table_id", res.TableID),
			zap.Error(err),
		)
		return errorbank.PartialFailure("reservation updated but table status not updated",
			errorbank.WithCause(err),
			errorbank.WithDetail("reservation_id", res.ID),
		)
	}
	return nil
}

// OverrideTableStatus forces a table status without checking orders or
// reservations.
func (c *Coordinator) OverrideTableStatus(ctx context.Context, tableID string, status entity.TableStatus) error {
	c.logger.Info("manual table override", zap.String("table_id", tableID), zap.String("status", string(status)))
	return c.tables.SetStatus(ctx, tableID, status)
}

// ReconcileTable converges a table to what its orders and reservations
// imply. Running it repeatedly has no further effect.
func (c *Coordinator) ReconcileTable(ctx context.Context, tableID string) error {
	ctx, span := tracer.Start(ctx, "Workflow.ReconcileTable", trace.WithAttributes(attribute.String("table.id", tableID)))
	defer span.End()

	table, err := c.tables.Get(ctx, tableID)
	if err != nil {
		if errorbank.IsKind(err, errorbank.KindNotFound) {
			return nil
		}
		return err
	}

	switch table.Status {
	case entity.TableOccupied:
		if !table.HasOrder() {
			return nil
		}
		order, err := c.orders.Get(ctx, *table.CurrentOrderID)
		switch {
		case errorbank.IsKind(err, errorbank.KindNotFound):
		case err != nil:
			return err
		case order.Status != entity.OrderPaid:
			return nil
		}
		c.logger.Info("reconcile: releasing table held by settled order", zap.String("table_id", tableID))
		return c.tables.Free(ctx, tableID)

	case entity.TableAvailable:
		n, err := c.reservations.CountConfirmedForTable(ctx, tableID)
		if err != nil || n == 0 {
			return err
		}
		reserved, err := c.tables.ReserveIfAvailable(ctx, tableID)
		if reserved {
			c.logger.Info("reconcile: reserving table for confirmed booking", zap.String("table_id", tableID))
		}
		return err

	case entity.TableReserved:
		released, err := c.tables.ReleaseIfUnreserved(ctx, tableID)
		if released {
			c.logger.Info("reconcile: releasing table without bookings", zap.String("table_id", tableID))
		}
		return err
	}
	return nil
}

func checkCapacity(table *entity.Table, partySize int) error {
	if partySize > table.Capacity {
		return errorbank.BadRequest("party size exceeds table capacity",
			errorbank.WithDetail("capacity", table.Capacity),
			errorbank.WithDetail("party_size", partySize),
		)
	}
	return nil
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
