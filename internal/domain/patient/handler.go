package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/httpapi"
	"github.com/medbase/medbase/pkg/pagination"
)

const (
	defaultPatientPageSize = 20
	defaultChildPageSize   = 50
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients", auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))

	g.POST("", h.CreatePatient)
	g.GET("", h.ListPatients)
	g.GET("/number/:number", h.GetPatientByNumber)
	g.GET("/national-id/:national_id", h.GetPatientByNationalID)
	g.GET("/:id", h.GetPatient)
	g.PATCH("/:id", h.UpdatePatient)
	g.DELETE("/:id", h.DeletePatient)

	g.POST("/:id/allergies", h.CreateAllergy)
	g.GET("/:id/allergies", h.ListAllergies)
	g.GET("/:id/allergies/:item_id", h.GetAllergy)
	g.PATCH("/:id/allergies/:item_id", h.UpdateAllergy)
	g.DELETE("/:id/allergies/:item_id", h.DeleteAllergy)

	g.POST("/:id/medical-history", h.CreateHistory)
	g.GET("/:id/medical-history", h.ListHistory)
	g.GET("/:id/medical-history/:item_id", h.GetHistory)
	g.PATCH("/:id/medical-history/:item_id", h.UpdateHistory)
	g.DELETE("/:id/medical-history/:item_id", h.DeleteHistory)

	g.POST("/:id/vital-signs", h.CreateVitalSign)
	g.GET("/:id/vital-signs", h.ListVitalSigns)
	g.GET("/:id/vital-signs/:item_id", h.GetVitalSign)
	g.PATCH("/:id/vital-signs/:item_id", h.UpdateVitalSign)
	g.DELETE("/:id/vital-signs/:item_id", h.DeleteVitalSign)

	g.POST("/:id/documents", h.CreateDocument)
	g.GET("/:id/documents", h.ListDocuments)
	g.GET("/:id/documents/:item_id", h.GetDocument)
	g.PATCH("/:id/documents/:item_id", h.UpdateDocument)
	g.DELETE("/:id/documents/:item_id", h.DeleteDocument)
}

// childIDs reads the patient id and the sub-resource id.
func childIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := httpapi.PathID(c, "item_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return patientID, id, nil
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	f := NewPatientFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.CreatePatient(ctx, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientByNumber(c echo.Context) error {
	p, err := h.svc.GetPatientByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientByNationalID(c echo.Context) error {
	p, err := h.svc.GetPatientByNationalID(c.Request().Context(), c.Param("national_id"))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg, err := httpapi.Page(c, defaultPatientPageSize)
	if err != nil {
		return err
	}
	f := PatientFilter{
		Search:    c.QueryParam("search"),
		Gender:    c.QueryParam("gender"),
		BloodType: c.QueryParam("blood_type"),
	}
	patients, total, err := h.svc.ListPatients(c.Request().Context(), f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdatePatient(ctx, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Allergy Handlers --

func (h *Handler) CreateAllergy(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	var f AllergyFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.CreateAllergy(ctx, patientID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAllergy(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAllergy(c.Request().Context(), patientID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAllergies(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultChildPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListAllergies(c.Request().Context(), patientID, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateAllergy(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.UpdateAllergy(ctx, patientID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAllergy(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAllergy(c.Request().Context(), patientID, id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medical History Handlers --

func (h *Handler) CreateHistory(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	f := NewHistoryFields()
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	entry, err := h.svc.CreateHistory(ctx, patientID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetHistory(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	entry, err := h.svc.GetHistory(c.Request().Context(), patientID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListHistory(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultChildPageSize)
	if err != nil {
		return err
	}
	current, err := httpapi.QueryBool(c, "current_only")
	if err != nil {
		return err
	}
	f := HistoryFilter{CurrentOnly: current != nil && *current}
	items, total, err := h.svc.ListHistory(c.Request().Context(), patientID, f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateHistory(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	entry, err := h.svc.UpdateHistory(ctx, patientID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) DeleteHistory(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteHistory(c.Request().Context(), patientID, id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Vital Sign Handlers --

func (h *Handler) CreateVitalSign(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	var f VitalSignFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	v, err := h.svc.CreateVitalSign(ctx, patientID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVitalSign(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetVitalSign(c.Request().Context(), patientID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVitalSigns(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultChildPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListVitalSigns(c.Request().Context(), patientID, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateVitalSign(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	v, err := h.svc.UpdateVitalSign(ctx, patientID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVitalSign(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVitalSign(c.Request().Context(), patientID, id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Document Handlers --

func (h *Handler) CreateDocument(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	var f DocumentFields
	if err := httpapi.Bind(c, &f); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.CreateDocument(ctx, patientID, f, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDocument(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDocument(c.Request().Context(), patientID, id)
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDocuments(c echo.Context) error {
	patientID, err := httpapi.PathID(c, "id")
	if err != nil {
		return err
	}
	pg, err := httpapi.Page(c, defaultChildPageSize)
	if err != nil {
		return err
	}
	f := DocumentFilter{DocumentType: c.QueryParam("document_type")}
	items, total, err := h.svc.ListDocuments(c.Request().Context(), patientID, f, pg, httpapi.Order(c))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateDocument(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	raw, err := httpapi.Body(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdateDocument(ctx, patientID, id, raw, auth.ActorFromContext(ctx))
	if err != nil {
		return httpapi.Error(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDocument(c echo.Context) error {
	patientID, id, err := childIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDocument(c.Request().Context(), patientID, id); err != nil {
		return httpapi.Error(err)
	}
	return c.NoContent(http.StatusNoContent)
}
