package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minicrm/lead-api/internal/core/domain"
)

// ClaimsKey is the echo context key under which the Auth middleware stores *domain.Claims.
const ClaimsKey = "claims"

// ctxClaims returns the caller identity injected by the Auth middleware.
// A missing identity means the route was mounted without auth; reject with 401.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, _ := c.Get(ClaimsKey).(*domain.Claims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}
	return claims, nil
}
