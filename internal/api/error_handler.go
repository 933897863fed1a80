package api

import (
	"errors"
	"fmt"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/minicrm/lead-api/internal/api/handler"
	"github.com/minicrm/lead-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders them in the standard envelope. Unexpected errors
// are logged and reported to Sentry, and the client only sees a generic message.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.Envelope) {
	// Checked before echo.HTTPError: the binder wraps decode errors, and a
	// ValidationError raised while decoding a field must keep its field detail.
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handler.Fail("Validation failed", ve.Fields...)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.Fail(fmt.Sprintf("%v", he.Message))
	}

	switch {
	case errors.Is(err, domain.ErrLeadNotFound):
		return http.StatusNotFound, handler.Fail("Lead not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, handler.Fail("Not authorized")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.Fail("Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, handler.Fail("Access forbidden")
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, handler.Fail("User not found")
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, handler.Fail("User already exists")
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	return http.StatusInternalServerError, handler.Fail("internal server error")
}
