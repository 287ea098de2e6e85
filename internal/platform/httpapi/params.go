package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/civil"
	"github.com/medbase/medbase/pkg/pagination"
)

// PathID parses the UUID path parameter name.
func PathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// QueryUUID parses an optional UUID query parameter.
func QueryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be true or false")
	}
	return &v, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(c echo.Context, name string) (*civil.Date, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+": "+err.Error())
	}
	return &d, nil
}

// QueryDateRange parses date_from and date_to as the inclusive bounds of a
// timestamp column: date_to covers the whole day.
func QueryDateRange(c echo.Context) (from, to *time.Time, err error) {
	df, err := QueryDate(c, "date_from")
	if err != nil {
		return nil, nil, err
	}
	dt, err := QueryDate(c, "date_to")
	if err != nil {
		return nil, nil, err
	}
	if df != nil {
		t := df.Time
		from = &t
	}
	if dt != nil {
		t := dt.Time.Add(24*time.Hour - time.Microsecond)
		to = &t
	}
	return from, to, nil
}

// Order reads sort_by and sort_order.
func Order(c echo.Context) query.Order {
	return query.Order{By: c.QueryParam("sort_by"), Direction: c.QueryParam("sort_order")}
}

// Page reads page and size with the given default size.
func Page(c echo.Context, defaultSize int) (pagination.Params, error) {
	p, err := pagination.FromContext(c, defaultSize)
	if err != nil {
		return p, Error(err)
	}
	return p, nil
}

// Body reads the raw request body for partial updates.
func Body(c echo.Context) ([]byte, error) {
	b, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}
	return b, nil
}

// Bind decodes the request body into v, answering 400 on malformed input.
func Bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
