package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/event"
	"github.com/Additional-Code/tableside/internal/realtime"
	repo "github.com/Additional-Code/tableside/internal/repository/reservation"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/tableside/service/reservation")
	serviceMeter  = otel.Meter("github.com/Additional-Code/tableside/service/reservation")
)

// Service is the reservation ledger. It does not touch tables.
type Service struct {
	repo   *repo.Repository
	events *event.Publisher
	hub    *realtime.Hub
	logger *zap.Logger

	created   metric.Int64Counter
	cancelled metric.Int64Counter
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
func NewService(p Params) (*Service, error) {
	created, err := serviceMeter.Int64Counter("tableside.reservations.created")
	if err != nil {
		return nil, err
	}
	cancelled, err := serviceMeter.Int64Counter("tableside.reservations.cancelled")
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:      p.Repository,
		events:    p.Events,
		hub:       p.Hub,
		logger:    p.Logger,
		created:   created,
		cancelled: cancelled,
	}, nil
}

// CreateInput describes a booking.
type CreateInput struct {
	TableID       string
	CustomerName  string
	CustomerPhone string
	PartySize     int
	Time          time.Time
	Notes         string
}

// Create stores a confirmed reservation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Reservation, error) {
	name := strings.TrimSpace(in.CustomerName)
	switch {
	case in.TableID == "":
		return nil, errorbank.BadRequest("table id is required")
	case name == "":
		return nil, errorbank.BadRequest("customer name is required")
	case in.PartySize < 1:
		return nil, errorbank.BadRequest("party size must be at least 1")
	case in.Time.IsZero():
		return nil, errorbank.BadRequest("reservation time is required")
	}

	ctx, span := serviceTracer.Start(ctx, "ReservationService.Create", trace.WithAttributes(attribute.String("table.id", in.TableID)))
	defer span.End()

	now := time.Now().UTC()
	res := &entity.Reservation{
		ID:              uuid.NewString(),
		TableID:         in.TableID,
		CustomerName:    name,
		CustomerPhone:   optional(in.CustomerPhone),
		PartySize:       in.PartySize,
		ReservationTime: in.Time.UTC(),
		Status:          entity.ReservationConfirmed,
		Notes:           optional(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, errorbank.Internal("failed to create reservation", errorbank.WithCause(err))
	}

	s.created.Add(ctx, 1)
	s.changed(ctx, event.ReservationCreated, res)
	return res, nil
}

// Patch lists the fields Update may change. Nil fields are left as they are.
type Patch struct {
	CustomerName  *string
	CustomerPhone *string
	PartySize     *int
	Time          *time.Time
	Notes         *string
	Status        *entity.ReservationStatus
}

// Update applies p and returns the reservation with its status before the
// change. Only confirmed reservations can be edited.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*entity.Reservation, entity.ReservationStatus, error) {
	ctx, span := serviceTracer.Start(ctx, "ReservationService.Update", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer span.End()

	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	previous := res.Status
	if previous != entity.ReservationConfirmed {
		return nil, previous, errorbank.Unprocessable("reservation can no longer be changed",
			errorbank.WithDetail("status", previous))
	}

	if p.CustomerName != nil {
		name := strings.TrimSpace(*p.CustomerName)
		if name == "" {
			return nil, previous, errorbank.BadRequest("customer name is required")
		}
		res.CustomerName = name
	}
	if p.CustomerPhone != nil {
		res.CustomerPhone = optional(*p.CustomerPhone)
	}
	if p.PartySize != nil {
		if *p.PartySize < 1 {
			return nil, previous, errorbank.BadRequest("party size must be at least 1")
		}
		res.PartySize = *p.PartySize
	}
	if p.Time != nil {
		if p.Time.IsZero() {
			return nil, previous, errorbank.BadRequest("reservation time is required")
		}
		res.ReservationTime = p.Time.UTC()
	}
	if p.Notes != nil {
		res.Notes = optional(*p.Notes)
	}
	if p.Status != nil && *p.Status != previous {
		if !p.Status.IsValid() {
			return nil, previous, errorbank.BadRequest("unknown reservation status", errorbank.WithDetail("status", *p.Status))
		}
		if !previous.CanTransitionTo(*p.Status) {
			return nil, previous, errorbank.Unprocessable("invalid reservation transition",
				errorbank.WithDetail("from", previous),
				errorbank.WithDetail("to", *p.Status))
		}
		res.Status = *p.Status
	}
	res.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, res); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, previous, errorbank.NotFound("reservation not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, previous, errorbank.Internal("failed to update reservation", errorbank.WithCause(err))
	}

	kind := event.ReservationUpdated
	if res.Status == entity.ReservationCancelled {
		kind = event.ReservationCancelled
		s.cancelled.Add(ctx, 1)
	}
	s.changed(ctx, kind, res)
	return res, previous, nil
}

// Cancel flips a confirmed reservation to cancelled. Cancelling an already
// cancelled reservation is a no-op.
func (s *Service) Cancel(ctx context.Context, id string) (*entity.Reservation, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case entity.ReservationCancelled:
		return res, nil
	case entity.ReservationConfirmed:
	default:
		return nil, errorbank.Unprocessable("only confirmed reservations can be cancelled",
			errorbank.WithDetail("status", res.Status))
	}

	if err := s.repo.SetStatus(ctx, id, entity.ReservationCancelled); err != nil {
		return nil, translate(err, "failed to cancel reservation")
	}
	res.Status = entity.ReservationCancelled
	res.UpdatedAt = time.Now().UTC()

	s.cancelled.Add(ctx, 1)
	s.changed(ctx, event.ReservationCancelled, res)
	return res, nil
}

// Get loads one reservation.
func (s *Service) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load reservation")
	}
	return res, nil
}

// List returns every reservation by time.
func (s *Service) List(ctx context.Context) ([]entity.Reservation, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list reservations", errorbank.WithCause(err))
	}
	return out, nil
}

// ForTable returns the confirmed reservations of a table.
func (s *Service) ForTable(ctx context.Context, tableID string) ([]entity.Reservation, error) {
	out, err := s.repo.ListConfirmedForTable(ctx, tableID)
	if err != nil {
		return nil, errorbank.Internal("failed to list reservations", errorbank.WithCause(err))
	}
	return out, nil
}

// CountConfirmedForTable counts the confirmed reservations of a table.
func (s *Service) CountConfirmedForTable(ctx context.Context, tableID string) (int, error) {
	n, err := s.repo.CountConfirmedForTable(ctx, tableID)
	if err != nil {
		return 0, errorbank.Internal("failed to count reservations", errorbank.WithCause(err))
	}
	return n, nil
}

// Upcoming returns confirmed reservations at or after now.
func (s *Service) Upcoming(ctx context.Context, now time.Time) ([]entity.Reservation, error) {
	out, err := s.repo.ListUpcoming(ctx, now.UTC())
	if err != nil {
		return nil, errorbank.Internal("failed to list reservations", errorbank.WithCause(err))
	}
	return out, nil
}

func (s *Service) changed(ctx context.Context, kind event.Type, res *entity.Reservation) {
	s.events.Publish(ctx, event.Envelope{
		Type:    kind,
		ID:      res.ID,
		TableID: res.TableID,
		Status:  string(res.Status),
	})
	if s.hub != nil {
		s.hub.Notify(ctx, realtime.Reservations)
	}
}

func translate(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("reservation not found")
	}
	return errorbank.Internal(msg, errorbank.WithCause(err))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
