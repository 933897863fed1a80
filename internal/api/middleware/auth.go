package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minicrm/lead-api/internal/api/handler"
	"github.com/minicrm/lead-api/internal/core/domain"
)

// TokenParser validates a raw bearer token.
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*domain.Claims, error)
}

// Auth validates the bearer token and injects the caller's claims into context.
func Auth(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, invalid authorization header")
			}

			claims, err := parser.ParseToken(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
				}
				return err
			}

			c.Set(handler.ClaimsKey, claims)

			return next(c)
		}
	}
}
