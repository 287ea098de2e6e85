package donation

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

	d := api.Group("/donors", staff)
	d.POST("", h.CreateDonor)
	d.GET("", h.ListDonors)
	d.GET("/code/:code", h.GetDonorByCode)
	d.GET("/email/:email", h.GetDonorByEmail)
	d.GET("/:id", h.GetDonor)
	d.PATCH("/:id", h.UpdateDonor)
	d.DELETE("/:id", h.DeleteDonor)

	g := api.Group("/donations", staff)
	g.POST("", h.CreateDonation)
	g.GET("", h.ListDonations)
	g.GET("/number/:number", h.GetDonationByNumber)
	g.GET("/:id", h.GetDonation)
	g.PATCH("/:id", h.UpdateDonation)
	g.DELETE("/:id", h.DeleteDonation)

	g.POST("/:id/medicine-items", h.CreateMedicineItem)
	g.GET("/:id/medicine-items", h.ListMedicineItems)
	g.GET("/:id/medicine-items/:item_id", h.GetMedicineItem)
	g.PATCH("/:id/medicine-items/:item_id", h.UpdateMedicineItem)
	g.DELETE("/:id/medicine-items/:item_id", h.DeleteMedicineItem)

	g.POST("/:id/equipment-items", h.CreateEquipmentItem)
	g.GET("/:id/equipment-items", h.ListEquipmentItems)
	g.GET("/:id/equipment-items/:item_id", h.GetEquipmentItem)
	g.PATCH("/:id/equipment-items/:item_id", h.UpdateEquipmentItem)
	g.DELETE("/:id/equipment-items/:item_id", h.DeleteEquipmentItem)

	g.POST("/:id/medical-device-items", h.CreateDeviceItem)
	g.GET("/:id/medical-device-items", h.ListDeviceItems)
	g.GET("/:id/medical-device-items/:item_id", h.GetDeviceItem)
	g.PATCH("/:id/medical-device-items/:item_id", h.UpdateDeviceItem)
	g.DELETE("/:id/medical-device-items/:item_id", h.DeleteDeviceItem)
}

func itemIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := httpapi.PathID(c, "item_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return donationID, id, nil
}

// -- Donor Handlers --

func (h *Handler) CreateDonor(c echo.Context) error {
	f := NewDonorFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.CreateDonor(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDonor(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDonor(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDonorByCode(c echo.Context) error {
	d, err := h.svc.GetDonorByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDonorByEmail(c echo.Context) error {
	d, err := h.svc.GetDonorByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDonors(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := DonorFilter{DonorType: c.QueryParam("donor_type"), Search: c.QueryParam("search")}
	if f.IsActive, err = httpapi.QueryBool(c, "is_active"); err != nil {
		return err
	}
	items, total, err := h.svc.ListDonors(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateDonor(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdateDonor(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDonor(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDonor(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Donation Handlers --

func (h *Handler) CreateDonation(c echo.Context) error {
	var f DonationFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.CreateDonation(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDonation(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDonation(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDonationByNumber(c echo.Context) error {
	d, err := h.svc.GetDonationByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDonations(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := DonationFilter{DonationType: c.QueryParam("donation_type")}
	if f.DonorID, err = httpapi.QueryUUID(c, "donor_id"); err != nil {
		return err
	}
	if f.DateFrom, f.DateTo, err = httpapi.QueryDateRange(c); err != nil {
		return err
	}
	items, total, err := h.svc.ListDonations(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateDonation(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdateDonation(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDonation(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDonation(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medicine Item Handlers --

func (h *Handler) CreateMedicineItem(c echo.Context) error {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	var f MedicineItemFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.CreateMedicineItem(ctx, donationID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) GetMedicineItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	it, err := h.svc.GetMedicineItem(c.Request().Context(), donationID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListMedicineItems(c echo.Context) error {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultItemPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListMedicineItems(c.Request().Context(), donationID, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateMedicineItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.UpdateMedicineItem(ctx, donationID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteMedicineItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteMedicineItem(ctx, donationID, id, auth.ActorFromContext(ctx)); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Equipment Item Handlers --

func (h *Handler) CreateEquipmentItem(c echo.Context) error {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	f := NewEquipmentItemFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.CreateEquipmentItem(ctx, donationID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) GetEquipmentItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	it, err := h.svc.GetEquipmentItem(c.Request().Context(), donationID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListEquipmentItems(c echo.Context) error {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultItemPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListEquipmentItems(c.Request().Context(), donationID, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateEquipmentItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.UpdateEquipmentItem(ctx, donationID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteEquipmentItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteEquipmentItem(ctx, donationID, id, auth.ActorFromContext(ctx)); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medical Device Item Handlers --

func (h *Handler) CreateDeviceItem(c echo.Context) error {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	f := NewDeviceItemFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.CreateDeviceItem(ctx, donationID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) GetDeviceItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	it, err := h.svc.GetDeviceItem(c.Request().Context(), donationID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListDeviceItems(c echo.Context) error {
	donationID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultItemPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListDeviceItems(c.Request().Context(), donationID, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateDeviceItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	it, err := h.svc.UpdateDeviceItem(ctx, donationID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteDeviceItem(c echo.Context) error {
	donationID, id, err := itemIDs(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteDeviceItem(ctx, donationID, id, auth.ActorFromContext(ctx)); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
