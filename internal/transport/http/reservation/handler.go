package reservation

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	"github.com/Additional-Code/tableside/internal/service/workflow"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/reservation")

// Handler exposes reservation endpoints over HTTP.
type Handler struct {
	reservations *reservationsvc.Service
	workflow     *workflow.Coordinator
	now          func() time.Time
}

// NewHandler constructs a reservation Handler.
func NewHandler(reservations *reservationsvc.Service, wf *workflow.Coordinator) *Handler {
	return &Handler{reservations: reservations, workflow: wf, now: time.Now}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/reservations", auth.RequireAuth())
	g.GET("", h.list)
	g.GET("/upcoming", h.upcoming)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.POST("/:id/cancel", h.cancel)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.list")
	defer span.End()

	list, err := h.reservations.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewReservations(list)).WithCount(len(list)).Build()
}

func (h *Handler) upcoming(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.upcoming")
	defer span.End()

	list, err := h.reservations.Upcoming(ctx, h.now())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewReservations(list)).WithCount(len(list)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.getByID", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer span.End()

	res, err := h.reservations.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewReservation(*res)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.CreateReservationRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.create", trace.WithAttributes(
		attribute.String("table.id", payload.TableID),
		attribute.Int("reservation.party_size", payload.PartySize),
	))
	defer span.End()

	res, err := h.workflow.CreateReservation(ctx, reservationsvc.CreateInput{
		TableID:       payload.TableID,
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
		PartySize:     payload.PartySize,
		Time:          payload.ReservationTime,
		Notes:         payload.Notes,
	})
	return respond(b.WithStatus(http.StatusCreated), res, err)
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.UpdateReservationRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.update", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer span.End()

	patch := reservationsvc.Patch{
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
		PartySize:     payload.PartySize,
		Time:          payload.ReservationTime,
		Notes:         payload.Notes,
	}
	if payload.Status != nil {
		status := entity.ReservationStatus(*payload.Status)
		patch.Status = &status
	}

	res, err := h.workflow.UpdateReservation(ctx, id, patch)
	return respond(b, res, err)
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reservations.cancel", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer span.End()

	res, err := h.workflow.CancelReservation(ctx, id)
	return respond(b, res, err)
}

// respond renders res, keeping it in meta when the workflow stored the
// reservation but failed a later step.
func respond(b *response.Builder, res *entity.Reservation, err error) error {
	if err != nil {
		if res != nil {
			b.WithMeta("reservation", dto.NewReservation(*res))
		}
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewReservation(*res)).Build()
}
