package inventory

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const (
	defaultCategoryPageSize = 100
	defaultPageSize         = 10
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleStaff)

	for _, kind := range CategoryKinds {
		g := api.Group(kind.Path, staff)
		g.POST("", h.CreateCategory(kind))
		g.GET("", h.ListCategories(kind))
		g.GET("/:id", h.GetCategory(kind))
		g.PATCH("/:id", h.UpdateCategory(kind))
		g.DELETE("/:id", h.DeleteCategory(kind))
	}

	m := api.Group("/medicines", staff)
	m.POST("", h.CreateMedicine)
	m.GET("", h.ListMedicines)
	m.GET("/code/:code", h.GetMedicineByCode)
	m.GET("/barcode/:barcode", h.GetMedicineByBarcode)
	m.GET("/:id", h.GetMedicine)
	m.PATCH("/:id", h.UpdateMedicine)
	m.DELETE("/:id", h.DeleteMedicine)

	e := api.Group("/equipment", staff)
	e.POST("", h.CreateEquipment)
	e.GET("", h.ListEquipment)
	e.GET("/asset-code/:asset_code", h.GetEquipmentByAssetCode)
	e.GET("/:id", h.GetEquipment)
	e.PATCH("/:id", h.UpdateEquipment)
	e.DELETE("/:id", h.DeleteEquipment)

	d := api.Group("/medical-devices", staff)
	d.POST("", h.CreateDevice)
	d.GET("", h.ListDevices)
	d.GET("/code/:code", h.GetDeviceByCode)
	d.GET("/:id", h.GetDevice)
	d.PATCH("/:id", h.UpdateDevice)
	d.DELETE("/:id", h.DeleteDevice)

	t := api.Group("/inventory-transactions", staff)
	t.POST("", h.CreateTransaction)
	t.GET("", h.ListTransactions)
	t.GET("/:id", h.GetTransaction)
	t.DELETE("/:id", h.DeleteTransaction)
}

// -- Category Handlers --

func (h *Handler) CreateCategory(kind CategoryKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := NewCategoryFields()
		if err := httpapi.Bind(c, &f); err != nil {
			return err
		}
		ctx := c.Request().Context()
		cat, err := h.svc.CreateCategory(ctx, kind, f, auth.ActorFromContext(ctx))
		if err != nil {
			return httpapi.Error(err)
		}
		return c.JSON(http.StatusCreated, cat)
	}
}

func (h *Handler) GetCategory(kind CategoryKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := httpapi.PathID(c, "id")
		if err != nil {
			return err
		}
		cat, err := h.svc.GetCategory(c.Request().Context(), kind, id)
		if err != nil {
			return httpapi.Error(err)
		}
		return c.JSON(http.StatusOK, cat)
	}
}

func (h *Handler) ListCategories(kind CategoryKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		pg, err := httpapi.Page(c, defaultCategoryPageSize)
		if err != nil {
			return err
		}
		f := CategoryFilter{Search: c.QueryParam("search")}
		if f.IsActive, err = httpapi.QueryBool(c, "is_active"); err != nil {
			return err
		}
		items, total, err := h.svc.ListCategories(c.Request().Context(), kind, f, pg, httpapi.Order(c))
		if err != nil {
			return httpapi.Error(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
	}
}

func (h *Handler) UpdateCategory(kind CategoryKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := httpapi.PathID(c, "id")
		if err != nil {
			return err
		}
		raw, err := httpapi.Body(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		cat, err := h.svc.UpdateCategory(ctx, kind, id, raw, auth.ActorFromContext(ctx))
		if err != nil {
			return httpapi.Error(err)
		}
		return c.JSON(http.StatusOK, cat)
	}
}

func (h *Handler) DeleteCategory(kind CategoryKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := httpapi.PathID(c, "id")
		if err != nil {
			return err
		}
		if err := h.svc.DeleteCategory(c.Request().Context(), kind, id); err != nil {
			return httpapi.Error(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// -- Medicine Handlers --

func (h *Handler) CreateMedicine(c echo.Context) error {
	f := NewMedicineFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.svc.CreateMedicine(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedicine(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) GetMedicineByCode(c echo.Context) error {
	m, err := h.svc.GetMedicineByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) GetMedicineByBarcode(c echo.Context) error {
	m, err := h.svc.GetMedicineByBarcode(c.Request().Context(), c.Param("barcode"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := MedicineFilter{Search: c.QueryParam("search"), DosageForm: c.QueryParam("dosage_form")}
	if f.CategoryID, err = httpapi.QueryUUID(c, "category_id"); err != nil {
		return err
	}
	if f.IsActive, err = httpapi.QueryBool(c, "is_active"); err != nil {
		return err
	}
	items, total, err := h.svc.ListMedicines(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.svc.UpdateMedicine(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedicine(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedicine(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Equipment Handlers --

func (h *Handler) CreateEquipment(c echo.Context) error {
	f := NewEquipmentFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	e, err := h.svc.CreateEquipment(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEquipment(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.svc.GetEquipment(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) GetEquipmentByAssetCode(c echo.Context) error {
	e, err := h.svc.GetEquipmentByAssetCode(c.Request().Context(), c.Param("asset_code"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListEquipment(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := EquipmentFilter{Search: c.QueryParam("search"), Condition: c.QueryParam("equipment_condition")}
	if f.CategoryID, err = httpapi.QueryUUID(c, "category_id"); err != nil {
		return err
	}
	if f.IsActive, err = httpapi.QueryBool(c, "is_active"); err != nil {
		return err
	}
	if f.IsDonation, err = httpapi.QueryBool(c, "is_donation"); err != nil {
		return err
	}
	items, total, err := h.svc.ListEquipment(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateEquipment(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	e, err := h.svc.UpdateEquipment(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEquipment(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEquipment(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medical Device Handlers --

func (h *Handler) CreateDevice(c echo.Context) error {
	f := NewDeviceFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.CreateDevice(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDevice(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDevice(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDeviceByCode(c echo.Context) error {
	d, err := h.svc.GetDeviceByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDevices(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := DeviceFilter{Search: c.QueryParam("search")}
	if f.CategoryID, err = httpapi.QueryUUID(c, "category_id"); err != nil {
		return err
	}
	if f.IsActive, err = httpapi.QueryBool(c, "is_active"); err != nil {
		return err
	}
	items, total, err := h.svc.ListDevices(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateDevice(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdateDevice(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDevice(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDevice(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Transaction Handlers --

func (h *Handler) CreateTransaction(c echo.Context) error {
	var t Transaction
	if err := httpapi.Bind(c, &t); err != nil {
		return err
	}
	ctx := c.Request().Context()
	rec, err := h.svc.RecordTransaction(ctx, &t, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetTransaction(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.svc.GetTransaction(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := TransactionFilter{
		TransactionType: c.QueryParam("transaction_type"),
		ReferenceType:   c.QueryParam("reference_type"),
	}
	if f.MedicineInventoryID, err = httpapi.QueryUUID(c, "medicine_inventory_id"); err != nil {
		return err
	}
	if f.MedicalDeviceInventoryID, err = httpapi.QueryUUID(c, "medical_device_inventory_id"); err != nil {
		return err
	}
	if f.EquipmentID, err = httpapi.QueryUUID(c, "equipment_id"); err != nil {
		return err
	}
	if f.DateFrom, f.DateTo, err = httpapi.QueryDateRange(c); err != nil {
		return err
	}
	items, total, err := h.svc.ListTransactions(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) DeleteTransaction(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTransaction(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
