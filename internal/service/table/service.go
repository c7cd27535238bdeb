package table

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/event"
	"github.com/Additional-Code/tableside/internal/realtime"
	repo "github.com/Additional-Code/tableside/internal/repository/table"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/tableside/service/table")

// Service is the table registry. Its writes are unconditional: it does not
// check that an order or reservation still needs the table.
type Service struct {
	repo   *repo.Repository
	events *event.Publisher
	hub    *realtime.Hub
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Events     *event.Publisher
	Hub        *realtime.Hub
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:   p.Repository,
		events: p.Events,
		hub:    p.Hub,
		logger: p.Logger,
	}
}

// CreateInput describes a new table.
type CreateInput struct {
	Number   int
	Capacity int
}

// Create adds a table to the floor plan in the available state.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Table, error) {
	if in.Number < 1 {
		return nil, errorbank.BadRequest("table number must be positive")
	}
	if in.Capacity < 1 {
		return nil, errorbank.BadRequest("capacity must be at least 1")
	}
	now := time.Now().UTC()
	t := &entity.Table{
		ID:        uuid.NewString(),
		Number:    in.Number,
		Capacity:  in.Capacity,
		Status:    entity.TableAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, errorbank.Internal("failed to create table", errorbank.WithCause(err))
	}
	s.changed(ctx, t.ID, t.Status)
	return t, nil
}

// Get loads one table.
func (s *Service) Get(ctx context.Context, id string) (*entity.Table, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load table")
	}
	return t, nil
}

// List returns the floor plan ordered by number.
func (s *Service) List(ctx context.Context) ([]entity.Table, error) {
	tables, err := s.repo.List(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list tables", errorbank.WithCause(err))
	}
	return tables, nil
}

// ListAvailable returns tables that can seat a new party.
func (s *Service) ListAvailable(ctx context.Context) ([]entity.Table, error) {
	tables, err := s.repo.ListByStatus(ctx, entity.TableAvailable)
	if err != nil {
		return nil, errorbank.Internal("failed to list tables", errorbank.WithCause(err))
	}
	return tables, nil
}

// CountAvailable counts free tables.
func (s *Service) CountAvailable(ctx context.Context) (int, error) {
	n, err := s.repo.CountByStatus(ctx, entity.TableAvailable)
	if err != nil {
		return 0, errorbank.Internal("failed to count tables", errorbank.WithCause(err))
	}
	return n, nil
}

// SetStatus overwrites the status. Moving to available or reserved clears the
// current order; moving to occupied keeps whatever order is referenced.
func (s *Service) SetStatus(ctx context.Context, id string, status entity.TableStatus) error {
	if !status.IsValid() {
		return errorbank.BadRequest("unknown table status", errorbank.WithDetail("status", status))
	}
	ctx, span := serviceTracer.Start(ctx, "TableService.SetStatus", trace.WithAttributes(
		attribute.String("table.id", id),
		attribute.String("table.status", string(status)),
	))
	defer span.End()

	var orderID *string
	if status == entity.TableOccupied {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return translate(err, "failed to load table")
		}
		orderID = current.CurrentOrderID
	}
	if err := s.repo.SetStatus(ctx, id, status, orderID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set status failed")
		return translate(err, "failed to update table")
	}
	s.changed(ctx, id, status)
	return nil
}

// Occupy marks the table as serving orderID.
func (s *Service) Occupy(ctx context.Context, id, orderID string) error {
	if orderID == "" {
		return errorbank.BadRequest("order id is required")
	}
	if err := s.repo.SetStatus(ctx, id, entity.TableOccupied, &orderID); err != nil {
		return translate(err, "failed to occupy table")
	}
	s.changed(ctx, id, entity.TableOccupied)
	return nil
}

// Free makes the table available. Freeing an available table succeeds.
func (s *Service) Free(ctx context.Context, id string) error {
	if err := s.repo.SetStatus(ctx, id, entity.TableAvailable, nil); err != nil {
		return translate(err, "failed to free table")
	}
	s.changed(ctx, id, entity.TableAvailable)
	return nil
}

// Reserve marks the table reserved unconditionally.
func (s *Service) Reserve(ctx context.Context, id string) error {
	if err := s.repo.SetStatus(ctx, id, entity.TableReserved, nil); err != nil {
		return translate(err, "failed to reserve table")
	}
	s.changed(ctx, id, entity.TableReserved)
	return nil
}

// ReserveIfAvailable reserves the table only when it is available. Occupied
// and already reserved tables are left alone.
func (s *Service) ReserveIfAvailable(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.ReserveIfAvailable(ctx, id)
	if err != nil {
		return false, errorbank.Internal("failed to reserve table", errorbank.WithCause(err))
	}
	if ok {
		s.changed(ctx, id, entity.TableReserved)
	}
	return ok, nil
}

// ReleaseIfUnreserved frees a reserved table once no confirmed reservation
// remains for it.
func (s *Service) ReleaseIfUnreserved(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.ReleaseIfUnreserved(ctx, id)
	if err != nil {
		return false, errorbank.Internal("failed to release table", errorbank.WithCause(err))
	}
	if ok {
		s.changed(ctx, id, entity.TableAvailable)
	}
	return ok, nil
}

// Changed announces a table write made outside this service, such as the
// occupation committed together with a new order.
func (s *Service) Changed(ctx context.Context, id string, status entity.TableStatus) {
	s.changed(ctx, id, status)
}

func (s *Service) changed(ctx context.Context, id string, status entity.TableStatus) {
	s.events.Publish(ctx, event.Envelope{
		Type:    event.TableStatusChanged,
		ID:      id,
		TableID: id,
		Status:  string(status),
	})
	if s.hub != nil {
		s.hub.Notify(ctx, realtime.Tables)
	}
}

func translate(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("table not found")
	}
	return errorbank.Internal(msg, errorbank.WithCause(err))
}
