package table

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/internal/service/workflow"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/table")

// Handler exposes table endpoints over HTTP.
type Handler struct {
	tables       *tablesvc.Service
	reservations *reservationsvc.Service
	workflow     *workflow.Coordinator
}

// NewHandler constructs a table Handler.
func NewHandler(tables *tablesvc.Service, reservations *reservationsvc.Service, wf *workflow.Coordinator) *Handler {
	return &Handler{tables: tables, reservations: reservations, workflow: wf}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/tables", auth.RequireAuth())
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/:id/reservations", h.reservationsFor)
	g.POST("", h.create, middleware.RequireRole(entity.RoleAdmin, entity.RoleManager))
	g.PUT("/:id/status", h.setStatus)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "tables.list")
	defer span.End()

	var (
		tables []entity.Table
		err    error
	)
	if c.QueryParam("status") == string(entity.TableAvailable) {
		tables, err = h.tables.ListAvailable(ctx)
	} else {
		tables, err = h.tables.List(ctx)
	}
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTables(tables)).WithCount(len(tables)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.getByID", trace.WithAttributes(attribute.String("table.id", id)))
	defer span.End()

	table, err := h.tables.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTable(*table)).Build()
}

func (h *Handler) reservationsFor(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.reservations", trace.WithAttributes(attribute.String("table.id", id)))
	defer span.End()

	list, err := h.reservations.ForTable(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewReservations(list)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.CreateTableRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.create", trace.WithAttributes(attribute.Int("table.number", payload.Number)))
	defer span.End()

	table, err := h.tables.Create(ctx, tablesvc.CreateInput{Number: payload.Number, Capacity: payload.Capacity})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.NewTable(*table)).Build()
}

func (h *Handler) setStatus(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.TableStatusRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.setStatus", trace.WithAttributes(
		attribute.String("table.id", id),
		attribute.String("table.status", payload.Status),
	))
	defer span.End()

	if err := h.workflow.OverrideTableStatus(ctx, id, entity.TableStatus(payload.Status)); err != nil {
		return b.WithError(err).Build()
	}
	table, err := h.tables.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTable(*table)).Build()
}
