package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/minicrm/lead-api/internal/api/handler"
	"github.com/minicrm/lead-api/internal/core/domain"
)

// RequireRole lets the request through only when the caller's role is one of
// roles. It reads the claims stored by Auth, so it must be mounted after it.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(handler.ClaimsKey).(*domain.Claims)
			if claims == nil {
				return domain.ErrUnauthorized
			}
			if _, ok := allowed[claims.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
