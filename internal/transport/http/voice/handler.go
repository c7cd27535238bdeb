package voice

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/tableside/internal/cart"
	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	menusvc "github.com/Additional-Code/tableside/internal/service/menu"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
	voiceparser "github.com/Additional-Code/tableside/internal/voice"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/voice")

// Handler turns spoken orders into cart lines.
type Handler struct {
	parser *voiceparser.Parser
	menu   *menusvc.Service
}

// NewHandler constructs a voice Handler.
func NewHandler(parser *voiceparser.Parser, menu *menusvc.Service) *Handler {
	return &Handler{parser: parser, menu: menu}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, auth *middleware.Authenticator, h *Handler) {
	e.POST("/voice/parse", h.parse, auth.RequireAuth())
}

func (h *Handler) parse(c echo.Context) error {
	b := response.New(c)
	var payload dto.VoiceRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "voice.parse")
	defer span.End()

	items, err := h.menu.ListItems(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	lines := h.parser.Parse(ctx, payload.Transcript, items)

	basket := cart.New(lines...)
	return b.WithData(basket.Lines()).WithMeta("total", basket.Total()).WithCount(basket.Len()).Build()
}
