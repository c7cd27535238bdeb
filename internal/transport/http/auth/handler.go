package auth

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/tableside/internal/service/auth"
	staffsvc "github.com/Additional-Code/tableside/internal/service/staff"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableside/transport/http/auth")

// Handler exposes sign-in endpoints over HTTP.
type Handler struct {
	auth  *authsvc.Service
	staff *staffsvc.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(auth *authsvc.Service, staff *staffsvc.Service) *Handler {
	return &Handler{auth: auth, staff: staff}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, guard *middleware.Authenticator, h *Handler) {
	g := e.Group("/auth")
	g.POST("/sign-up", h.signUp)
	g.POST("/sign-in", h.signIn)
	g.POST("/sign-out", h.signOut, guard.RequireAuth())
	g.GET("/me", h.me, guard.RequireAuth())
}

func (h *Handler) signUp(c echo.Context) error {
	b := response.New(c)
	var payload dto.SignUpRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.signUp")
	defer span.End()

	member, err := h.auth.SignUp(ctx, payload.Name, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Created(member).Build()
}

func (h *Handler) signIn(c echo.Context) error {
	b := response.New(c)
	var payload dto.SignInRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.signIn")
	defer span.End()

	session, err := h.auth.SignIn(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Member:    session.Member,
	}).Build()
}

func (h *Handler) signOut(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "auth.signOut")
	defer span.End()

	if err := h.auth.SignOut(ctx, middleware.BearerToken(c)); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]bool{"signed_out": true}).Build()
}

func (h *Handler) me(c echo.Context) error {
	b := response.New(c)
	claims := middleware.Claims(c)
	if claims == nil {
		return b.WithError(errorbank.Unauthorized("not signed in")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.me")
	defer span.End()

	member, err := h.staff.Member(ctx, claims.Subject)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(member).Build()
}
