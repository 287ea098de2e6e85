package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
)

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

func TestHandler_ListAppointments_SecondPage(t *testing.T) {
	fx := newFixture()
	for i := 0; i < 12; i++ {
		fx.book(t)
	}
	h := NewHandler(fx.svc)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/appointments?page=2&size=5", nil), rec)
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Data  []Appointment `json:"data"`
		Total int           `json:"total"`
		Page  int           `json:"page"`
		Pages int           `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Data) != 5 || got.Total != 12 || got.Page != 2 || got.Pages != 3 {
		t.Errorf("expected 5 of 12 on page 2 of 3, got %d of %d (page %d of %d)", len(got.Data), got.Total, got.Page, got.Pages)
	}
	if got.Data[0].AppointmentNumber != "APT-2026-000006" {
		t.Errorf("expected page to start at the sixth booking, got %s", got.Data[0].AppointmentNumber)
	}
}

func TestHandler_ListAppointments_BadFilter(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?doctor_id=abc", nil), httptest.NewRecorder())
	expectHTTPError(t, h.ListAppointments(c), http.StatusBadRequest, "")
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?date_from=01-02-2026", nil), httptest.NewRecorder())
	expectHTTPError(t, h.ListAppointments(c), http.StatusBadRequest, "")
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?size=0", nil), httptest.NewRecorder())
	expectHTTPError(t, h.ListAppointments(c), http.StatusBadRequest, "")
}

func TestHandler_CreateAppointment(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	e := echo.New()

	body := `{"patient_id":"` + fx.patientID.String() + `","doctor_id":"` + fx.doctorID.String() +
		`","appointment_date":"2026-06-02","start_time":"10:00","chief_complaint":"cough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUser(req.Context(), "reception", auth.RoleStaff))
	rec := httptest.NewRecorder()

	if err := h.CreateAppointment(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["appointment_number"] != "APT-2026-000001" || got["start_time"] != "10:00:00" ||
		got["status"] != "scheduled" || got["created_by"] != "reception" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestHandler_CreateAppointment_UnknownDoctor(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	e := echo.New()

	body := `{"patient_id":"` + fx.patientID.String() + `","doctor_id":"` + uuid.NewString() +
		`","appointment_date":"2026-06-02","start_time":"10:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	expectHTTPError(t, h.CreateAppointment(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest, "Doctor not found")
}

func TestHandler_GetAppointment_NotFound(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	expectHTTPError(t, h.GetAppointment(c), http.StatusNotFound, "Appointment not found")
}
