package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func asUser(req *http.Request, username string, roles ...string) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), username, roles...))
}

func expectHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
	if msg != "" && he.Message != msg {
		t.Errorf("expected message %q, got %v", msg, he.Message)
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Ada","last_name":"Okafor","date_of_birth":"1990-05-17","gender":"female"}`
	req := asUser(jsonRequest(http.MethodPost, "/api/v1/patients", body), "nurse", auth.RoleStaff)
	rec := httptest.NewRecorder()

	if err := h.CreatePatient(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["patient_number"] != "P000001" || got["blood_type"] != "unknown" || got["country"] != "Unknown" {
		t.Errorf("unexpected body: %v", got)
	}
	if got["date_of_birth"] != "1990-05-17" || got["created_by"] != "nurse" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestHandler_CreatePatient_Invalid(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Ada","last_name":"Okafor","date_of_birth":"1990-05-17","gender":"unknown"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/patients", body), httptest.NewRecorder())
	expectHTTPError(t, h.CreatePatient(c), http.StatusBadRequest, "invalid gender: unknown")
}

func TestHandler_GetPatientByNumber(t *testing.T) {
	h, e := newTestHandler()
	createPatient(t, h.svc, "Ada")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients/number/P000001", nil), rec)
	c.SetParamNames("number")
	c.SetParamValues("P000001")
	if err := h.GetPatientByNumber(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"first_name":"Ada"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	expectHTTPError(t, h.GetPatient(c), http.StatusNotFound, "Patient not found")
}

func TestHandler_ListPatients_Envelope(t *testing.T) {
	h, e := newTestHandler()
	for _, name := range []string{"Ada", "Bola", "Chidi"} {
		createPatient(t, h.svc, name)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients?page=2&size=2", nil), rec)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Data  []Patient `json:"data"`
		Total int       `json:"total"`
		Page  int       `json:"page"`
		Size  int       `json:"size"`
		Pages int       `json:"pages"`
	}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got.Data) != 1 || got.Total != 3 || got.Page != 2 || got.Size != 2 || got.Pages != 2 {
		t.Errorf("unexpected envelope: %+v", got)
	}
}

func TestHandler_CreateAllergy_MissingPatient(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"allergen":"Penicillin"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	expectHTTPError(t, h.CreateAllergy(c), http.StatusNotFound, "Patient not found")
}

func TestHandler_CreateVitalSign(t *testing.T) {
	h, e := newTestHandler()
	p := createPatient(t, h.svc, "Ada")

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"weight_kg":70,"height_cm":175,"pain_level":2}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	if err := h.CreateVitalSign(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"bmi":"22.86"`) {
		t.Errorf("expected derived bmi, got %s", rec.Body.String())
	}
}

func TestHandler_ListHistory_CurrentOnly(t *testing.T) {
	h, e := newTestHandler()
	p := createPatient(t, h.svc, "Ada")
	for _, body := range []string{`{"condition_name":"Diabetes"}`, `{"condition_name":"Measles","is_current":false}`} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/", body), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(p.ID.String())
		if err := h.CreateHistory(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?current_only=true", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	if err := h.ListHistory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) || !strings.Contains(rec.Body.String(), "Diabetes") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_DeleteDocument(t *testing.T) {
	h, e := newTestHandler()
	p := createPatient(t, h.svc, "Ada")
	d, err := h.svc.CreateDocument(context.Background(), p.ID, DocumentFields{DocumentType: "referral", Title: "Referral", FilePath: "/r.pdf"}, "nurse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newCtx := func(rec *httptest.ResponseRecorder) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
		c.SetParamNames("id", "item_id")
		c.SetParamValues(p.ID.String(), d.ID.String())
		return c
	}

	rec := httptest.NewRecorder()
	if err := h.DeleteDocument(newCtx(rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	expectHTTPError(t, h.DeleteDocument(newCtx(httptest.NewRecorder())), http.StatusNotFound, "Document not found")
}

func TestHandler_SubResource_InvalidItemID(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id", "item_id")
	c.SetParamValues(uuid.NewString(), "nope")
	expectHTTPError(t, h.GetAllergy(c), http.StatusBadRequest, "")
}
