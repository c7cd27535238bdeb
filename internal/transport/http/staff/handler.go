package staff

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	staffsvc "github.com/Additional-Code/tableside/internal/service/staff"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/staff")

// Handler exposes staff management endpoints over HTTP.
type Handler struct {
	svc *staffsvc.Service
}

// NewHandler constructs a staff Handler.
func NewHandler(svc *staffsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/staff", auth.RequireAuth(), middleware.RequireRole(entity.RoleAdmin, entity.RoleManager))
	g.GET("", h.list)
	g.PUT("/:id/role", h.updateRole)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "staff.list")
	defer span.End()

	members, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(members).WithCount(len(members)).Build()
}

func (h *Handler) updateRole(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.RoleRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "staff.updateRole", trace.WithAttributes(
		attribute.String("staff.id", id),
		attribute.String("staff.role", payload.Role),
	))
	defer span.End()

	if err := h.svc.UpdateRole(ctx, id, entity.Role(payload.Role)); err != nil {
		return b.WithError(err).Build()
	}
	member, err := h.svc.Member(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(member).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	if claims := middleware.Claims(c); claims != nil && claims.Subject == id {
		return b.WithError(errorbank.Conflict("cannot remove your own account")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "staff.remove", trace.WithAttributes(attribute.String("staff.id", id)))
	defer span.End()

	if err := h.svc.Remove(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}
