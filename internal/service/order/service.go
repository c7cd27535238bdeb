package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/event"
	"github.com/Additional-Code/tableside/internal/realtime"
	repo "github.com/Additional-Code/tableside/internal/repository/order"
	tablerepo "github.com/Additional-Code/tableside/internal/repository/table"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/tableside/service/order")
	serviceMeter  = otel.Meter("github.com/Additional-Code/tableside/service/order")
)

// Service is the order ledger.
type Service struct {
	db       *database.Connections
	repo     *repo.Repository
	tables   *tablerepo.Repository
	registry *tablesvc.Service
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	events   *event.Publisher
	hub      *realtime.Hub

	ordersCreated metric.Int64Counter
	ordersPaid    metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	DB         *database.Connections
	Repository *repo.Repository
	Tables     *tablerepo.Repository
	Registry   *tablesvc.Service
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Events     *event.Publisher
	Hub        *realtime.Hub
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	created, err := serviceMeter.Int64Counter("tableside.orders.created",
		metric.WithDescription("Orders placed"))
	if err != nil {
		return nil, err
	}
	paid, err := serviceMeter.Int64Counter("tableside.orders.paid",
		metric.WithDescription("Orders settled"))
	if err != nil {
		return nil, err
	}
	return &Service{
		db:            p.DB,
		repo:          p.Repository,
		tables:        p.Tables,
		registry:      p.Registry,
		cache:         p.Cache,
		cacheTTL:      p.Config.Cache.DefaultTTL,
		logger:        p.Logger,
		events:        p.Events,
		hub:           p.Hub,
		ordersCreated: created,
		ordersPaid:    paid,
	}, nil
}

// CreateInput describes a new order.
type CreateInput struct {
	TableID     string
	Items       []entity.OrderItem
	TotalAmount decimal.Decimal
	Notes       string
	WaiterID    string
	WaiterName  string
}

// CreateOrder writes a pending order and occupies its table in one
// transaction. Either both become visible or neither does.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*entity.Order, error) {
	total, err := validate(in)
	if err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("table.id", in.TableID),
		attribute.Int("order.items", len(in.Items)),
	))
	defer span.End()

	now := time.Now().UTC()
	order := &entity.Order{
		ID:            uuid.NewString(),
		TableID:       in.TableID,
		WaiterName:    in.WaiterName,
		Items:         in.Items,
		TotalAmount:   total,
		Status:        entity.OrderPending,
		PaymentStatus: entity.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.WaiterID != "" {
		order.WaiterID = &in.WaiterID
	}
	if in.Notes != "" {
		order.Notes = &in.Notes
	}

	err = s.db.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		tables := s.tables.WithTx(tx)
		orders := s.repo.WithTx(tx)

		table, err := tables.GetByID(ctx, in.TableID)
		if err != nil {
			return err
		}
		order.TableNumber = table.Number

		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		if err := orders.AppendLog(ctx, &entity.OrderStatusLog{
			OrderID:   order.ID,
			ToStatus:  entity.OrderPending,
			ChangedBy: in.WaiterName,
			ChangedAt: now,
		}); err != nil {
			return err
		}
		return tables.SetStatus(ctx, in.TableID, entity.TableOccupied, &order.ID)
	})
	if err != nil {
		if errors.Is(err, tablerepo.ErrNotFound) {
			return nil, errorbank.NotFound("table not found", errorbank.WithDetail("table_id", in.TableID))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		s.logger.Error("create order", zap.String("table_id", in.TableID), zap.Error(err))
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.ordersCreated.Add(ctx, 1)
	s.store(ctx, order)
	s.events.Publish(ctx, event.Envelope{
		Type:    event.OrderCreated,
		ID:      order.ID,
		TableID: order.TableID,
		Status:  string(order.Status),
	})
	s.registry.Changed(ctx, order.TableID, entity.TableOccupied)
	s.notify(ctx)
	return order, nil
}

func validate(in CreateInput) (decimal.Decimal, error) {
	if in.TableID == "" {
		return decimal.Zero, errorbank.BadRequest("table id is required")
	}
	if len(in.Items) == 0 {
		return decimal.Zero, errorbank.BadRequest("order must contain at least one item")
	}
	for i, item := range in.Items {
		if item.MenuItemID == "" {
			return decimal.Zero, errorbank.BadRequest("menu item id is required", errorbank.WithDetail("index", i))
		}
		if item.Quantity < 1 {
			return decimal.Zero, errorbank.BadRequest("quantity must be at least 1", errorbank.WithDetail("index", i))
		}
		if item.Price.IsNegative() {
			return decimal.Zero, errorbank.BadRequest("price must not be negative", errorbank.WithDetail("index", i))
		}
	}
	sum := entity.SumItems(in.Items)
	if in.TotalAmount.IsZero() {
		return sum, nil
	}
	if !in.TotalAmount.Equal(sum) {
		return decimal.Zero, errorbank.BadRequest("total amount does not match items",
			errorbank.WithDetail("expected", sum.StringFixed(2)),
			errorbank.WithDetail("got", in.TotalAmount.StringFixed(2)),
		)
	}
	return sum, nil
}

// AdvanceStatus moves an order one step along the kitchen flow. Payment is
// not reachable this way. The write only lands while the order still has the
// status the transition was checked against; otherwise a conflict is returned.
func (s *Service) AdvanceStatus(ctx context.Context, id string, next entity.OrderStatus, changedBy string) (*entity.Order, error) {
	if !next.IsValid() {
		return nil, errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", next))
	}
	if next == entity.OrderPaid {
		return nil, errorbank.Unprocessable("orders are marked paid through payment")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.AdvanceStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(next)),
	))
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load order")
	}
	if !order.Status.CanAdvanceTo(next) {
		return nil, errorbank.Unprocessable("invalid status transition",
			errorbank.WithDetail("from", order.Status),
			errorbank.WithDetail("to", next),
		)
	}

	now := time.Now().UTC()
	err = s.db.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		orders := s.repo.WithTx(tx)
		ok, err := orders.UpdateStatus(ctx, id, order.Status, next, now)
		if err != nil {
			return err
		}
		if !ok {
			return errorbank.Conflict("order status changed concurrently",
				errorbank.WithDetail("from", order.Status),
				errorbank.WithDetail("to", next),
			)
		}
		return orders.AppendLog(ctx, &entity.OrderStatusLog{
			OrderID:    id,
			FromStatus: order.Status,
			ToStatus:   next,
			ChangedBy:  changedBy,
			ChangedAt:  now,
		})
	})
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			s.invalidate(ctx, id)
			return nil, appErr
		}
		return nil, s.translate(span, err, "failed to update order")
	}

	order.Status = next
	order.UpdatedAt = now
	s.invalidate(ctx, id)
	s.events.Publish(ctx, event.Envelope{
		Type:    event.OrderStatusChanged,
		ID:      id,
		TableID: order.TableID,
		Status:  string(next),
	})
	s.notify(ctx)
	return order, nil
}

// MarkPaid settles an order and frees its table when the table still points
// at it. Order, log and table are written in one transaction.
func (s *Service) MarkPaid(ctx context.Context, id, paymentRef string) (*entity.Order, error) {
	if paymentRef == "" {
		return nil, errorbank.BadRequest("payment reference is required")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.MarkPaid", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	var (
		order *entity.Order
		freed bool
	)
	now := time.Now().UTC()
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		orders := s.repo.WithTx(tx)

		current, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanBePaid() {
			return errorbank.Conflict("order is already paid")
		}
		ok, err := orders.MarkPaid(ctx, id, paymentRef, now)
		if err != nil {
			return err
		}
		if !ok {
			return errorbank.Conflict("order is already paid")
		}
		if err := orders.AppendLog(ctx, &entity.OrderStatusLog{
			OrderID:    id,
			FromStatus: current.Status,
			ToStatus:   entity.OrderPaid,
			ChangedBy:  "payment",
			ChangedAt:  now,
		}); err != nil {
			return err
		}
		freed, err = s.tables.WithTx(tx).FreeIfOrder(ctx, current.TableID, id)
		if err != nil {
			return err
		}

		current.Status = entity.OrderPaid
		current.PaymentStatus = entity.PaymentPaid
		current.PaymentID = &paymentRef
		current.UpdatedAt = now
		order = current
		return nil
	})
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, s.translate(span, err, "failed to settle order")
	}

	s.ordersPaid.Add(ctx, 1)
	s.invalidate(ctx, id)
	s.events.Publish(ctx, event.Envelope{
		Type:    event.OrderPaid,
		ID:      id,
		TableID: order.TableID,
		Status:  string(entity.OrderPaid),
	})
	if freed {
		s.registry.Changed(ctx, order.TableID, entity.TableAvailable)
	} else {
		s.logger.Info("paid order no longer held its table",
			zap.String("order_id", id),
			zap.String("table_id", order.TableID),
		)
	}
	s.notify(ctx)
	return order, nil
}

// ClaimPayment reserves an unpaid order for one checkout and returns it as
// stored. A second claim on the same order fails with a conflict until the
// first is settled or released.
func (s *Service) ClaimPayment(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ClaimPayment", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	ok, err := s.repo.ClaimPayment(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, s.translate(span, err, "failed to claim order for payment")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load order")
	}
	s.invalidate(ctx, id)
	if !ok {
		if order.Status == entity.OrderPaid || order.PaymentStatus == entity.PaymentPaid {
			return nil, errorbank.Conflict("order is already paid")
		}
		return nil, errorbank.Conflict("payment already in progress", errorbank.WithDetail("payment_status", order.PaymentStatus))
	}
	return order, nil
}

// ReleasePayment drops a processing claim after a failed capture.
func (s *Service) ReleasePayment(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ReleasePayment", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := s.repo.ReleasePayment(ctx, id, time.Now().UTC()); err != nil {
		return s.translate(span, err, "failed to release payment claim")
	}
	s.invalidate(ctx, id)
	return nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.fromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load order")
	}
	s.store(ctx, order)
	return order, nil
}

// ListActive returns every order still holding a table, newest first.
func (s *Service) ListActive(ctx context.Context) ([]entity.Order, error) {
	return s.list(ctx, entity.ActiveOrderStatuses...)
}

// ListByStatus returns orders in any of statuses, newest first.
func (s *Service) ListByStatus(ctx context.Context, statuses ...entity.OrderStatus) ([]entity.Order, error) {
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", st))
		}
	}
	return s.list(ctx, statuses...)
}

func (s *Service) list(ctx context.Context, statuses ...entity.OrderStatus) ([]entity.Order, error) {
	if len(statuses) == 0 {
		return []entity.Order{}, nil
	}
	orders, err := s.repo.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// KitchenBoard groups open tickets by kitchen column.
func (s *Service) KitchenBoard(ctx context.Context) (map[entity.OrderStatus][]entity.Order, error) {
	orders, err := s.list(ctx, entity.KitchenStatuses...)
	if err != nil {
		return nil, err
	}
	board := make(map[entity.OrderStatus][]entity.Order, len(entity.KitchenStatuses))
	for _, st := range entity.KitchenStatuses {
		board[st] = []entity.Order{}
	}
	// Oldest ticket first within a column.
	for i := len(orders) - 1; i >= 0; i-- {
		board[orders[i].Status] = append(board[orders[i].Status], orders[i])
	}
	return board, nil
}

// ListRecent returns the newest orders regardless of status.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	orders, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListSince returns orders created at or after since.
func (s *Service) ListSince(ctx context.Context, since time.Time) ([]entity.Order, error) {
	orders, err := s.repo.ListSince(ctx, since.UTC())
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// History returns the status log of an order, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]entity.OrderStatusLog, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	entries, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, errorbank.Internal("failed to load order history", errorbank.WithCause(err))
	}
	return entries, nil
}

func (s *Service) notify(ctx context.Context) {
	if s.hub != nil {
		s.hub.Notify(ctx, realtime.Orders)
	}
}

func (s *Service) translate(span trace.Span, err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("order not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal(msg, errorbank.WithCause(err))
}

func (s *Service) cacheKey(id string) string {
	return "orders:" + id
}

func (s *Service) fromCache(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	if err := cache.GetJSON(ctx, s.cache, s.cacheKey(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) store(ctx context.Context, order *entity.Order) {
	if order == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, s.cacheKey(order.ID), order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache delete failed", zap.String("id", id), zap.Error(err))
	}
}
