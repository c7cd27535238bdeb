package order

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableside/internal/cart"
	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	menusvc "github.com/Additional-Code/tableside/internal/service/menu"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	"github.com/Additional-Code/tableside/internal/service/workflow"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	orders   *ordersvc.Service
	menu     *menusvc.Service
	workflow *workflow.Coordinator
}

// NewHandler constructs an order Handler.
func NewHandler(orders *ordersvc.Service, menu *menusvc.Service, wf *workflow.Coordinator) *Handler {
	return &Handler{orders: orders, menu: menu, workflow: wf}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/orders", auth.RequireAuth())
	g.GET("", h.listActive)
	g.GET("/:id", h.getByID)
	g.GET("/:id/history", h.history)
	g.POST("", h.create)
	g.PUT("/:id/status", h.advance)
	g.POST("/:id/checkout", h.checkout)

	e.GET("/kitchen/board", h.kitchenBoard, auth.RequireAuth())
}

func (h *Handler) listActive(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listActive")
	defer span.End()

	orders, err := h.orders.ListActive(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrders(orders)).WithCount(len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.orders.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrder(*order)).Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.history", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	entries, err := h.orders.History(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewStatusLog(entries)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	var payload dto.CreateOrderRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.String("table.id", payload.TableID),
		attribute.Bool("order.pay_now", payload.PayNow),
	))
	defer span.End()

	var items []entity.OrderItem
	switch {
	case len(payload.Lines) > 0:
		priced, err := h.menu.SnapshotCart(ctx, cart.New(payload.Lines...))
		if err != nil {
			return b.WithError(err).Build()
		}
		items = priced
	case len(payload.Items) > 0:
		items = make([]entity.OrderItem, 0, len(payload.Items))
		for _, it := range payload.Items {
			items = append(items, it.Entity())
		}
	default:
		return b.WithError(errorbank.BadRequest("order needs at least one item")).Build()
	}

	in := ordersvc.CreateInput{
		TableID:     payload.TableID,
		Items:       items,
		TotalAmount: payload.TotalAmount,
		Notes:       payload.Notes,
	}
	if claims := middleware.Claims(c); claims != nil {
		in.WaiterID = claims.Subject
		in.WaiterName = claims.Name
	}

	if !payload.PayNow {
		order, err := h.workflow.CreateOrder(ctx, in)
		if err != nil {
			return b.WithError(err).Build()
		}
		return b.Created(dto.NewOrder(*order)).Build()
	}

	order, res, err := h.workflow.PlaceAndPay(ctx, in)
	if err != nil {
		if order != nil {
			b.WithMeta("order", dto.NewOrder(*order))
		}
		return b.WithError(err).Build()
	}
	return b.Created(dto.CheckoutResponse{
		Order:   dto.NewOrder(*order),
		Receipt: res.Receipt,
	}).Build()
}

func (h *Handler) advance(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.OrderStatusRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.advance", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.workflow.AdvanceOrder(ctx, id, entity.OrderStatus(payload.Status), middleware.Actor(c))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrder(*order)).Build()
}

func (h *Handler) checkout(c echo.Context) error {
	b := response.New(c)
	id, err := request.Param(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.checkout", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := h.workflow.Checkout(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.CheckoutResponse{Order: dto.NewOrder(*res.Order), Receipt: res.Receipt}).Build()
}

func (h *Handler) kitchenBoard(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.kitchenBoard")
	defer span.End()

	board, err := h.orders.KitchenBoard(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.KitchenBoardResponse{
		Pending:   dto.NewOrders(board[entity.OrderPending]),
		Preparing: dto.NewOrders(board[entity.OrderPreparing]),
		Ready:     dto.NewOrders(board[entity.OrderReady]),
	}).Build()
}
