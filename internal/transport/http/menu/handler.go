package menu

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	menusvc "github.com/Additional-Code/tableside/internal/service/menu"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/menu")

// Handler exposes menu endpoints over HTTP.
type Handler struct {
	svc *menusvc.Service
}

// NewHandler constructs a menu Handler.
func NewHandler(svc *menusvc.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/menu", auth.RequireAuth())
	write := middleware.RequireRole(entity.RoleAdmin, entity.RoleManager)

	g.GET("/items", h.listItems)
	g.GET("/items/:id", h.getItem)
	g.POST("/items", h.createItem, write)
	g.PUT("/items/:id", h.updateItem, write)
	g.PUT("/items/:id/availability", h.setAvailability, write)
	g.DELETE("/items/:id", h.deleteItem, write)
	g.GET("/categories", h.listCategories)
	g.POST("/categories", h.createCategory, write)
}

func (h *Handler) listItems(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "menu.listItems")
	defer span.End()

	items, err := h.svc.ListItems(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewMenuItems(items)).WithCount(len(items)).Build()
}

func (h *Handler) getItem(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.getItem", trace.WithAttributes(attribute.String("menu_item.id", id)))
	defer span.End()

	item, err := h.svc.GetItem(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewMenuItem(*item)).Build()
}

func (h *Handler) createItem(c echo.Context) error {
	b := response.New(c)
	var payload dto.MenuItemRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.createItem")
	defer span.End()

	item, err := h.svc.CreateItem(ctx, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.NewMenuItem(*item)).Build()
}

func (h *Handler) updateItem(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.MenuItemRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.updateItem", trace.WithAttributes(attribute.String("menu_item.id", id)))
	defer span.End()

	item, err := h.svc.UpdateItem(ctx, id, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewMenuItem(*item)).Build()
}

func (h *Handler) setAvailability(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.AvailabilityRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.setAvailability", trace.WithAttributes(attribute.String("menu_item.id", id)))
	defer span.End()

	item, err := h.svc.SetAvailability(ctx, id, *payload.Available)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewMenuItem(*item)).Build()
}

func (h *Handler) deleteItem(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.deleteItem", trace.WithAttributes(attribute.String("menu_item.id", id)))
	defer span.End()

	if err := h.svc.DeleteItem(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id}).Build()
}

func (h *Handler) listCategories(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "menu.listCategories")
	defer span.End()

	cats, err := h.svc.ListCategories(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewCategories(cats)).Build()
}

func (h *Handler) createCategory(c echo.Context) error {
	b := response.New(c)
	var payload dto.CategoryRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.createCategory")
	defer span.End()

	cat, err := h.svc.CreateCategory(ctx, payload.Name, payload.SortOrder)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(dto.NewCategories([]entity.MenuCategory{*cat})[0]).Build()
}

func toInput(p dto.MenuItemRequest) menusvc.ItemInput {
	available := true
	if p.IsAvailable != nil {
		available = *p.IsAvailable
	}
	return menusvc.ItemInput{
		Name:        p.Name,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Variants:    p.Variants,
		Addons:      p.Addons,
		IsAvailable: available,
	}
}
