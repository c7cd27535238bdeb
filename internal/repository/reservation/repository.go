package reservation

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

var repoTracer = otel.Tracer("github.com/Additional-Code/tableside/repository/reservation")

// ErrNotFound is returned when a reservation is missing.
var ErrNotFound = errors.New("reservation not found")

// Repository encapsulates read/write access for reservations.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create persists a new reservation.
func (r *Repository) Create(ctx context.Context, res *entity.Reservation) error {
	if res == nil {
		return errors.New("nil reservation")
	}
	ctx, span := repoTracer.Start(ctx, "ReservationRepository.Create", trace.WithAttributes(attribute.String("table.id", res.TableID)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(res).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches a reservation by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	res := new(entity.Reservation)
	err := r.reader.NewSelect().Model(res).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Update overwrites the mutable columns of a reservation.
func (r *Repository) Update(ctx context.Context, res *entity.Reservation) error {
	ctx, span := repoTracer.Start(ctx, "ReservationRepository.Update", trace.WithAttributes(attribute.String("reservation.id", res.ID)))
	defer span.End()

	result, err := r.writer.NewUpdate().Model(res).
		Column("customer_name", "customer_phone", "party_size", "reservation_time", "status", "notes", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus changes only the status column.
func (r *Repository) SetStatus(ctx context.Context, id string, status entity.ReservationStatus) error {
	result, err := r.writer.NewUpdate().Model((*entity.Reservation)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every reservation by reservation time.
func (r *Repository) List(ctx context.Context) ([]entity.Reservation, error) {
	var out []entity.Reservation
	err := r.reader.NewSelect().Model(&out).Order("reservation_time ASC").Scan(ctx)
	return out, err
}

// ListConfirmedForTable returns confirmed reservations of one table.
func (r *Repository) ListConfirmedForTable(ctx context.Context, tableID string) ([]entity.Reservation, error) {
	var out []entity.Reservation
	err := r.reader.NewSelect().Model(&out).
		Where("table_id = ?", tableID).
		Where("status = ?", entity.ReservationConfirmed).
		Order("reservation_time ASC").
		Scan(ctx)
	return out, err
}

// CountConfirmedForTable counts confirmed reservations of one table.
func (r *Repository) CountConfirmedForTable(ctx context.Context, tableID string) (int, error) {
	return r.reader.NewSelect().Model((*entity.Reservation)(nil)).
		Where("table_id = ?", tableID).
		Where("status = ?", entity.ReservationConfirmed).
		Count(ctx)
}

// ListUpcoming returns confirmed reservations at or after now.
func (r *Repository) ListUpcoming(ctx context.Context, now time.Time) ([]entity.Reservation, error) {
	var out []entity.Reservation
	err := r.reader.NewSelect().Model(&out).
		Where("status = ?", entity.ReservationConfirmed).
		Where("reservation_time >= ?", now).
		Order("reservation_time ASC").
		Scan(ctx)
	return out, err
}
