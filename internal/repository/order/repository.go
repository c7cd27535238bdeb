package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/tableside/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// WithTx returns a copy whose reads and writes run inside tx.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.id", order.ID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an order from one status to another. It reports false
// when the order is no longer in from, so a bump never overwrites a
// concurrent payment.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus, at time.Time) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(to)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimPayment marks an unpaid order as processing. Only one caller can hold
// the claim; the others get false.
func (r *Repository) ClaimPayment(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ClaimPayment", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("payment_status = ?", entity.PaymentProcessing).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status <> ?", entity.OrderPaid).
		Where("payment_status = ?", entity.PaymentUnpaid).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleasePayment hands a processing claim back so the order can be paid again.
func (r *Repository) ReleasePayment(ctx context.Context, id string, at time.Time) error {
	_, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("payment_status = ?", entity.PaymentUnpaid).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("payment_status = ?", entity.PaymentProcessing).
		Exec(ctx)
	return err
}

// MarkPaid settles an unpaid order. It reports false when the order was
// already paid by a concurrent writer.
func (r *Repository) MarkPaid(ctx context.Context, id, paymentID string, at time.Time) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.MarkPaid", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", entity.OrderPaid).
		Set("payment_status = ?", entity.PaymentPaid).
		Set("payment_id = ?", paymentID).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status <> ?", entity.OrderPaid).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByStatuses returns orders in any of statuses, newest first.
func (r *Repository) ListByStatuses(ctx context.Context, statuses []entity.OrderStatus) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Where("status IN (?)", bun.In(statuses)).
		Order("created_at DESC").
		Scan(ctx)
	return orders, err
}

// ListRecent returns the newest orders regardless of status.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).Order("created_at DESC").Limit(limit).Scan(ctx)
	return orders, err
}

// ListSince returns orders created at or after since.
func (r *Repository) ListSince(ctx context.Context, since time.Time) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Scan(ctx)
	return orders, err
}

// AppendLog records a status transition.
func (r *Repository) AppendLog(ctx context.Context, entry *entity.OrderStatusLog) error {
	_, err := r.writer.NewInsert().Model(entry).Exec(ctx)
	return err
}

// History returns the status transitions of an order, oldest first.
func (r *Repository) History(ctx context.Context, orderID string) ([]entity.OrderStatusLog, error) {
	var entries []entity.OrderStatusLog
	err := r.reader.NewSelect().Model(&entries).
		Where("order_id = ?", orderID).
		Order("changed_at ASC", "id ASC").
		Scan(ctx)
	return entries, err
}
