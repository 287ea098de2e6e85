package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/platform/apperr"
)

// Error maps a service error onto an *echo.HTTPError. Unrecognised errors
// become a 500 that keeps the cause as the internal error.
func Error(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var nf *apperr.NotFoundError
	var dup *apperr.DuplicateError
	var ve *apperr.ValidationError
	var ae *apperr.AuthError
	switch {
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, nf.Error())
	case errors.As(err, &dup):
		return echo.NewHTTPError(http.StatusBadRequest, dup.Error())
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.As(err, &ae):
		if errors.Is(ae.Kind, apperr.ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, ae.Msg)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, ae.Msg)
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, apperr.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, apperr.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail interface{} `json:"detail"`
}

// NewErrorHandler returns an echo.HTTPErrorHandler rendering {"detail": ...}.
// 5xx responses are logged with their internal cause.
func NewErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he := Error(err)

		if he.Code >= http.StatusInternalServerError {
			cause := err
			if he.Internal != nil {
				cause = he.Internal
			}
			logger.Error().Err(cause).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", he.Code).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, ErrorBody{Detail: he.Message})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
