package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const defaultPageSize = 100

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /system-settings. Staff may read; only admins write.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleStaff)
	admin := auth.RequireRole(auth.RoleAdmin)

	g := api.Group("/system-settings", staff)
	g.POST("", h.CreateSetting, admin)
	g.GET("", h.ListSettings)
	g.GET("/key/:key", h.GetSettingByKey)
	g.GET("/:id", h.GetSetting)
	g.PATCH("/:id", h.UpdateSetting, admin)
	g.DELETE("/:id", h.DeleteSetting, admin)
}

func (h *Handler) CreateSetting(c echo.Context) error {
	f := NewSettingFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := h.svc.CreateSetting(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetSetting(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.svc.GetSetting(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetSettingByKey(c echo.Context) error {
	st, err := h.svc.GetSettingByKey(c.Request().Context(), c.Param("key"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListSettings(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPageSize)
	if err != nil {
		return err
	}
	f := SettingFilter{Category: c.QueryParam("category")}
	if f.IsPublic, err = httpapi.QueryBool(c, "is_public"); err != nil {
		return err
	}
	items, total, err := h.svc.ListSettings(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateSetting(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := h.svc.UpdateSetting(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteSetting(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSetting(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
