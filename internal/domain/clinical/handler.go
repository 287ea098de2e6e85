package clinical

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const defaultRecordPageSize = 10

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/medical-records", auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	g.POST("", h.CreateRecord)
	g.GET("", h.ListRecords)
	g.GET("/number/:number", h.GetRecordByNumber)
	g.GET("/:id", h.GetRecord)
	g.PATCH("/:id", h.UpdateRecord)
	g.DELETE("/:id", h.DeleteRecord)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var f RecordFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.svc.CreateRecord(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) GetRecordByNumber(c echo.Context) error {
	m, err := h.svc.GetRecordByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultRecordPageSize)
	if err != nil {
		return err
	}
	var f RecordFilter
	if f.PatientID, err = httpapi.QueryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DoctorID, err = httpapi.QueryUUID(c, "doctor_id"); err != nil {
		return err
	}
	if f.AppointmentID, err = httpapi.QueryUUID(c, "appointment_id"); err != nil {
		return err
	}
	if f.DateFrom, f.DateTo, err = httpapi.QueryDateRange(c); err != nil {
		return err
	}
	items, total, err := h.svc.ListRecords(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.svc.UpdateRecord(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
