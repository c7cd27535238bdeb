package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/realtime"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
)

const defaultHeartbeat = 25 * time.Second

// Handler streams live snapshots as server-sent events.
type Handler struct {
	hub          *realtime.Hub
	tables       *tablesvc.Service
	orders       *ordersvc.Service
	reservations *reservationsvc.Service
	heartbeat    time.Duration
	logger       *zap.Logger
}

// NewHandler constructs a stream Handler.
func NewHandler(hub *realtime.Hub, tables *tablesvc.Service, orders *ordersvc.Service, reservations *reservationsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{
		hub:          hub,
		tables:       tables,
		orders:       orders,
		reservations: reservations,
		heartbeat:    defaultHeartbeat,
		logger:       logger,
	}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	g := e.Group("/stream", auth.RequireAuth())
	g.GET("/tables", h.serve(realtime.Query{Collection: realtime.Tables, Fetch: h.fetchTables}))
	g.GET("/orders", h.serve(realtime.Query{Collection: realtime.Orders, Fetch: h.fetchOrders}))
	g.GET("/reservations", h.serve(realtime.Query{Collection: realtime.Reservations, Fetch: h.fetchReservations}))
}

func (h *Handler) fetchTables(ctx context.Context) (any, error) {
	tables, err := h.tables.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTables(tables), nil
}

func (h *Handler) fetchOrders(ctx context.Context) (any, error) {
	orders, err := h.orders.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewOrders(orders), nil
}

func (h *Handler) fetchReservations(ctx context.Context) (any, error) {
	list, err := h.reservations.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewReservations(list), nil
}

func (h *Handler) serve(q realtime.Query) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sub, cancel := h.hub.Subscribe(ctx, q)
		defer cancel()

		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/event-stream")
		res.Header().Set(echo.HeaderCacheControl, "no-cache")
		res.Header().Set(echo.HeaderConnection, "keep-alive")
		res.Header().Set("X-Accel-Buffering", "no")
		res.WriteHeader(http.StatusOK)
		res.Flush()

		h.logger.Debug("stream opened", zap.String("collection", string(q.Collection)))
		defer h.logger.Debug("stream closed", zap.String("collection", string(q.Collection)))

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := fmt.Fprint(res, ": heartbeat\n\n"); err != nil {
					return nil
				}
				res.Flush()
			case snap, ok := <-sub.C:
				if !ok {
					return nil
				}
				if err := writeEvent(res, string(q.Collection), snap); err != nil {
					h.logger.Debug("stream write failed", zap.Error(err))
					return nil
				}
				res.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, snap realtime.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", snap.Seq, name, data)
	return err
}
