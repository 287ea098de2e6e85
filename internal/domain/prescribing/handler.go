package prescribing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const (
	defaultPageSize     = 10
	defaultItemPageSize = 50
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleStaff)

	g := api.Group("/prescriptions", staff)
	g.POST("", h.CreatePrescription)
	g.GET("", h.ListPrescriptions)
	g.GET("/number/:number", h.GetPrescriptionByNumber)
	g.GET("/:id", h.GetPrescription)
	g.PATCH("/:id", h.UpdatePrescription)
	g.DELETE("/:id", h.DeletePrescription)

	g.POST("/:id/items", h.CreateItem)
	g.GET("/:id/items", h.ListItems)
	g.GET("/:id/items/:item_id", h.GetItem)
	g.PATCH("/:id/items/:item_id", h.UpdateItem)
	g.DELETE("/:id/items/:item_id", h.DeleteItem)

	d := api.Group("/prescribed-devices", staff)
	d.POST("", h.PrescribeDevice)
	d.GET("", h.ListPrescribedDevices)
	d.GET("/:id", h.GetPrescribedDevice)
	d.PATCH("/:id", h.UpdatePrescribedDevice)
	d.DELETE("/:id", h.DeletePrescribedDevice)
}

func itemIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	prescriptionID, err := httpapi.PathID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := httpapi.PathID(c, "item_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return prescriptionID, id, nil
}

// -- Prescription Handlers --

func (h *Handler) CreatePrescription(c echo.Context) error {
	f := NewPrescriptionFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.CreatePrescription(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPrescriptionByNumber(c echo.Context) error {
	p, err := h.svc.GetPrescriptionByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := PrescriptionFilter{Status: c.QueryParam("status")}
	if f.PatientID, err = httpapi.QueryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DoctorID, err = httpapi.QueryUUID(c, "doctor_id"); err != nil {
		return err
	}
	if f.DateFrom, f.DateTo, err = httpapi.QueryDateRange(c); err != nil {
		return err
	}
	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdatePrescription(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Item Handlers --

func (h *Handler) CreateItem(c echo.Context) error {
	prescriptionID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	f := NewItemFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.CreateItem(ctx, prescriptionID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) GetItem(c echo.Context) error {
	prescriptionID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	it, err := h.svc.GetItem(c.Request().Context(), prescriptionID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListItems(c echo.Context) error {
	prescriptionID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultItemPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListItems(c.Request().Context(), prescriptionID, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateItem(c echo.Context) error {
	prescriptionID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.UpdateItem(ctx, prescriptionID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	prescriptionID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteItem(c.Request().Context(), prescriptionID, id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Prescribed Device Handlers --

func (h *Handler) PrescribeDevice(c echo.Context) error {
	var f DeviceFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.PrescribeDevice(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetPrescribedDevice(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetPrescribedDevice(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListPrescribedDevices(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	var f DeviceFilter
	if f.PatientID, err = httpapi.QueryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DoctorID, err = httpapi.QueryUUID(c, "doctor_id"); err != nil {
		return err
	}
	if f.DeviceID, err = httpapi.QueryUUID(c, "device_id"); err != nil {
		return err
	}
	if f.IsReturned, err = httpapi.QueryBool(c, "is_returned"); err != nil {
		return err
	}
	items, total, err := h.svc.ListPrescribedDevices(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdatePrescribedDevice(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdatePrescribedDevice(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeletePrescribedDevice(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePrescribedDevice(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
