package inventory

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	inventorysvc "github.com/Additional-Code/tableside/internal/service/inventory"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/inventory")

// Handler exposes inventory endpoints over HTTP.
type Handler struct {
	svc *inventorysvc.Service
}

// NewHandler constructs an inventory Handler.
func NewHandler(svc *inventorysvc.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/inventory", auth.RequireAuth())
	write := middleware.RequireRole(entity.RoleAdmin, entity.RoleManager)

	g.GET("", h.list)
	g.GET("/low-stock", h.lowStock)
	g.GET("/:id", h.getByID)
	g.POST("", h.create, write)
	g.PUT("/:id", h.update, write)
	g.DELETE("/:id", h.delete, write)
	g.POST("/:id/restock", h.restock, write)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.list")
	defer span.End()

	items, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewInventoryItems(items)).WithCount(len(items)).Build()
}

func (h *Handler) lowStock(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.lowStock")
	defer span.End()

	items, err := h.svc.LowStock(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewInventoryItems(items)).WithCount(len(items)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.getByID", trace.WithAttributes(attribute.String("inventory.id", id)))
	defer span.End()

	item, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewInventoryItem(*item)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.InventoryItemRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.create")
	defer span.End()

	item, err := h.svc.Create(ctx, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.NewInventoryItem(*item)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.InventoryItemRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.update", trace.WithAttributes(attribute.String("inventory.id", id)))
	defer span.End()

	item, err := h.svc.Update(ctx, id, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewInventoryItem(*item)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.delete", trace.WithAttributes(attribute.String("inventory.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}

func (h *Handler) restock(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.restock", trace.WithAttributes(attribute.String("inventory.id", id)))
	defer span.End()

	item, err := h.svc.Restock(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewInventoryItem(*item)).Build()
}

func toInput(p dto.InventoryItemRequest) inventorysvc.Input {
	return inventorysvc.Input{
		ItemName:       p.ItemName,
		Quantity:       p.Quantity,
		Unit:           p.Unit,
		ThresholdLevel: p.ThresholdLevel,
		Category:       p.Category,
	}
}
