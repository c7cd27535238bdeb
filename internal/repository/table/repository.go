package table

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

var repoTracer = otel.Tracer("github.com/Additional-Code/tableside/repository/table")

// ErrNotFound is returned when a table is missing.
var ErrNotFound = errors.New("table not found")

// Repository encapsulates read/write access for restaurant tables.
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

// Create persists a new table.
func (r *Repository) Create(ctx context.Context, table *entity.Table) error {
	if table == nil {
		return errors.New("nil table")
	}
	ctx, span := repoTracer.Start(ctx, "TableRepository.Create", trace.WithAttributes(attribute.Int("table.number", table.Number)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(table).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a table by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.GetByID", trace.WithAttributes(attribute.String("table.id", id)))
	defer span.End()

	table := new(entity.Table)
	err := r.reader.NewSelect().Model(table).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return table, nil
}

// List returns the floor plan ordered by table number.
func (r *Repository) List(ctx context.Context) ([]entity.Table, error) {
	var tables []entity.Table
	err := r.reader.NewSelect().Model(&tables).Order("number ASC").Scan(ctx)
	return tables, err
}

// ListByStatus returns tables in the given status ordered by number.
func (r *Repository) ListByStatus(ctx context.Context, status entity.TableStatus) ([]entity.Table, error) {
	var tables []entity.Table
	err := r.reader.NewSelect().Model(&tables).Where("status = ?", status).Order("number ASC").Scan(ctx)
	return tables, err
}

// CountByStatus counts tables in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status entity.TableStatus) (int, error) {
	return r.reader.NewSelect().Model((*entity.Table)(nil)).Where("status = ?", status).Count(ctx)
}

// SetStatus writes status and current order unconditionally.
func (r *Repository) SetStatus(ctx context.Context, id string, status entity.TableStatus, orderID *string) error {
	ctx, span := repoTracer.Start(ctx, "TableRepository.SetStatus", trace.WithAttributes(
		attribute.String("table.id", id),
		attribute.String("table.status", string(status)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Table)(nil)).
		Set("status = ?", status).
		Set("current_order_id = ?", orderID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// FreeIfOrder frees the table only while it still points at orderID.
func (r *Repository) FreeIfOrder(ctx context.Context, id, orderID string) (bool, error) {
	res, err := r.writer.NewUpdate().Model((*entity.Table)(nil)).
		Set("status = ?", entity.TableAvailable).
		Set("current_order_id = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("current_order_id = ?", orderID).
		Exec(ctx)
	return affected(res, err)
}

// ReserveIfAvailable moves an available table to reserved.
func (r *Repository) ReserveIfAvailable(ctx context.Context, id string) (bool, error) {
	res, err := r.writer.NewUpdate().Model((*entity.Table)(nil)).
		Set("status = ?", entity.TableReserved).
		Set("current_order_id = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", entity.TableAvailable).
		Exec(ctx)
	return affected(res, err)
}

// ReleaseIfUnreserved frees a reserved table once no confirmed reservation
// references it. The check and the write are one statement.
func (r *Repository) ReleaseIfUnreserved(ctx context.Context, id string) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.ReleaseIfUnreserved", trace.WithAttributes(attribute.String("table.id", id)))
	defer span.End()

	remaining := r.writer.NewSelect().
		Model((*entity.Reservation)(nil)).
		ColumnExpr("1").
		Where("table_id = ?", id).
		Where("status = ?", entity.ReservationConfirmed)

	res, err := r.writer.NewUpdate().Model((*entity.Table)(nil)).
		Set("status = ?", entity.TableAvailable).
		Set("current_order_id = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", entity.TableReserved).
		Where("NOT EXISTS (?)", remaining).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return affected(res, err)
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
