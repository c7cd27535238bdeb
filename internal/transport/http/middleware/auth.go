package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/tableside/internal/service/auth"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

const claimsKey = "auth.claims"

// Authenticator guards routes with staff access tokens.
type Authenticator struct {
	auth *authsvc.Service
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(auth *authsvc.Service) *Authenticator {
	return &Authenticator{auth: auth}
}

// RequireAuth rejects requests without a valid bearer token. The token may
// also be passed as the access_token query parameter, which EventSource
// clients need since they cannot set headers.
func (a *Authenticator) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c)
			if token == "" {
				return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}
			claims, err := a.auth.Verify(c.Request().Context(), token)
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireRole admits only staff holding one of roles. It must run after
// RequireAuth.
func RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return response.New(c).WithError(errorbank.Unauthorized("not signed in")).Build()
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return response.New(c).WithError(errorbank.Forbidden("insufficient role",
				errorbank.WithDetail("role", string(claims.Role)))).Build()
		}
	}
}

// Claims returns the verified claims of the request, or nil.
func Claims(c echo.Context) *authsvc.Claims {
	claims, _ := c.Get(claimsKey).(*authsvc.Claims)
	return claims
}

// Actor names whoever made the request, for audit fields.
func Actor(c echo.Context) string {
	if claims := Claims(c); claims != nil {
		if claims.Name != "" {
			return claims.Name
		}
		return claims.Subject
	}
	return ""
}

// BearerToken extracts the access token from the request.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(c.QueryParam("access_token"))
}
