package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const (
	defaultUserPageSize   = 20
	defaultDoctorPageSize = 20
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)

	// Any authenticated user
	api.GET("/users/me", h.GetMe)
	api.PATCH("/users/me", h.UpdateMe)
	api.POST("/users/me/change-password", h.ChangePassword)

	// Staff read accounts and manage doctors; only admins manage accounts
	staffGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	staffGroup.GET("/users", h.ListUsers)
	staffGroup.GET("/users/:id", h.GetUser)
	staffGroup.GET("/doctors", h.ListDoctors)
	staffGroup.GET("/doctors/:id", h.GetDoctor)
	staffGroup.POST("/doctors", h.CreateDoctor)
	staffGroup.PATCH("/doctors/:id", h.UpdateDoctor)
	staffGroup.DELETE("/doctors/:id", h.DeleteDoctor)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/users", h.CreateUser)
	adminGroup.PATCH("/users/:id", h.UpdateUser)
	adminGroup.DELETE("/users/:id", h.DeleteUser)
}

// -- Auth Handlers --

func (h *Handler) Login(c echo.Context) error {
	var cred Credentials
	if err := httpapi.Bind(c, &cred); err != nil {
		return err
	}
	if cred.Username == "" || cred.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	token, err := h.svc.Login(c.Request().Context(), cred)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, token)
}

// -- User Handlers --

func (h *Handler) GetMe(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.GetUserByUsername(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	u, err := h.svc.UpdateProfile(ctx, auth.UserIDFromContext(ctx), raw)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req PasswordChange
	if err := httpapi.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.ChangePassword(ctx, auth.UserIDFromContext(ctx), req); err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *Handler) CreateUser(c echo.Context) error {
	req := NewUserCreate()
	if err := httpapi.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	u, err := h.svc.CreateUser(ctx, req, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultUserPageSize)
	if err != nil {
		return err
	}
	active, err := httpapi.QueryBool(c, "is_active")
	if err != nil {
		return err
	}
	f := UserFilter{Search: c.QueryParam("search"), Role: c.QueryParam("role"), IsActive: active}
	users, total, err := h.svc.ListUsers(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg))
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	u, err := h.svc.UpdateUser(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteUser(ctx, id, auth.UserIDFromContext(ctx)); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctor Handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var f DoctorFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.CreateDoctor(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultDoctorPageSize)
	if err != nil {
		return err
	}
	f := DoctorFilter{Specialization: c.QueryParam("specialization"), Search: c.QueryParam("search")}
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdateDoctor(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
