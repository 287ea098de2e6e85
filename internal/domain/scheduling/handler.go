package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const defaultAppointmentPageSize = 10

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments", auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	g.POST("", h.CreateAppointment)
	g.GET("", h.ListAppointments)
	g.GET("/number/:number", h.GetAppointmentByNumber)
	g.GET("/:id", h.GetAppointment)
	g.PATCH("/:id", h.UpdateAppointment)
	g.DELETE("/:id", h.DeleteAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	f := NewAppointmentFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.CreateAppointment(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAppointmentByNumber(c echo.Context) error {
	a, err := h.svc.GetAppointmentByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultAppointmentPageSize)
	if err != nil {
		return err
	}
	f := AppointmentFilter{Status: c.QueryParam("status")}
	if f.PatientID, err = httpapi.QueryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DoctorID, err = httpapi.QueryUUID(c, "doctor_id"); err != nil {
		return err
	}
	if f.Date, err = httpapi.QueryDate(c, "appointment_date"); err != nil {
		return err
	}
	if f.DateFrom, err = httpapi.QueryDate(c, "date_from"); err != nil {
		return err
	}
	if f.DateTo, err = httpapi.QueryDate(c, "date_to"); err != nil {
		return err
	}
	items, total, err := h.svc.ListAppointments(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.UpdateAppointment(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
