package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/platform/auth"
)

// Recovery turns a handler panic into a 500. The log line names the user and,
// when the route touches one, the patient, so a crash can be traced back to
// the record that triggered it.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					req := c.Request()
					rid, _ := c.Get("request_id").(string)
					event := logger.Error().
						Str("request_id", rid).
						Str("user", auth.ActorFromContext(req.Context())).
						Str("action", httpMethodToAction(req.Method)).
						Str("path", req.URL.Path)
					if pid := extractPatientID(c); pid != "" {
						event = event.Str("patient_id", pid)
					}
					event.
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
