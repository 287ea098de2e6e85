package pagination

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/apperr"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Params holds the page number (1-based) and page size of a list request.
type Params struct {
	Page int
	Size int
}

// New validates page and size. A size of zero is an error, never "all rows".
func New(page, size int) (Params, error) {
	if page < 1 {
		return Params{}, apperr.Validation("page must be at least 1")
	}
	if size < 1 || size > MaxSize {
		return Params{}, apperr.Validation("size must be between 1 and %d", MaxSize)
	}
	// The offset (page-1)*size must fit in an int.
	if page-1 > math.MaxInt/size {
		return Params{}, apperr.Validation("page is too large")
	}
	return Params{Page: page, Size: size}, nil
}

// FromContext reads the page and size query parameters. Missing values take
// the defaults; present values must be valid integers within bounds.
func FromContext(c echo.Context, defaultSize int) (Params, error) {
	page, err := intParam(c, "page", DefaultPage)
	if err != nil {
		return Params{}, err
	}
	size, err := intParam(c, "size", defaultSize)
	if err != nil {
		return Params{}, err
	}
	return New(page, size)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return v, nil
}

// Offset returns the number of rows skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Limit returns the maximum number of rows on this page.
func (p Params) Limit() int {
	return p.Size
}

// Pages returns the number of pages needed to hold total rows.
func (p Params) Pages(total int) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

// Response wraps a paginated API response.
type Response struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Pages int         `json:"pages"`
}

// NewResponse builds the list envelope. A nil slice is rendered as [].
func NewResponse[T any](items []T, total int, p Params) *Response {
	if items == nil {
		items = []T{}
	}
	return &Response{
		Data:  items,
		Total: total,
		Page:  p.Page,
		Size:  p.Size,
		Pages: p.Pages(total),
	}
}
