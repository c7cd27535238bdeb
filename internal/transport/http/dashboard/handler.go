package dashboard

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	"github.com/Additional-Code/tableside/internal/service/stats"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/dashboard")

// Handler exposes dashboard statistics over HTTP.
type Handler struct {
	stats *stats.Service
	now   func() time.Time
}

// NewHandler constructs a dashboard Handler.
func NewHandler(svc *stats.Service) *Handler {
	return &Handler{stats: svc, now: time.Now}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	e.GET("/dashboard/stats", h.summary, auth.RequireAuth())
}

func (h *Handler) summary(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "dashboard.stats")
	defer span.End()

	d, err := h.stats.Dashboard(ctx, h.now())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewDashboard(d)).Build()
}
