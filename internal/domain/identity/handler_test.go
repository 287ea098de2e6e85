package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/pkg/pagination"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
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

func TestHandler_CreateUser(t *testing.T) {
	h, e := newTestHandler()

	body := `{"username":"amina","password":"correct-horse","email":"amina@clinic.example.org","first_name":"Amina","last_name":"Yusuf"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = asUser(req, "root", auth.RoleAdmin)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["username"] != "amina" || got["role"] != "staff" || got["created_by"] != "root" {
		t.Errorf("unexpected body: %v", got)
	}
	if _, leaked := got["password_hash"]; leaked {
		t.Error("password hash must not be serialised")
	}
}

func TestHandler_CreateUser_Duplicate(t *testing.T) {
	h, e := newTestHandler()
	createUser(t, h.svc, "amina", "staff")

	body := `{"username":"amina","password":"correct-horse","email":"x@clinic.example.org","first_name":"A","last_name":"B"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	expectHTTPError(t, h.CreateUser(c), http.StatusBadRequest, "Username already registered")
}

func TestHandler_Login_Form(t *testing.T) {
	h, e := newTestHandler()
	createUser(t, h.svc, "amina", "staff")

	form := url.Values{"username": {"amina"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var token auth.Token
	json.Unmarshal(rec.Body.Bytes(), &token)
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Errorf("unexpected token: %+v", token)
	}
}

func TestHandler_Login_BadPassword(t *testing.T) {
	h, e := newTestHandler()
	createUser(t, h.svc, "amina", "staff")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"amina","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	expectHTTPError(t, h.Login(c), http.StatusUnauthorized, "Incorrect username or password")
}

func TestHandler_GetMe(t *testing.T) {
	h, e := newTestHandler()
	createUser(t, h.svc, "amina", "staff")

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), "amina", auth.RoleStaff)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var u User
	json.Unmarshal(rec.Body.Bytes(), &u)
	if u.Username != "amina" {
		t.Errorf("expected amina, got %s", u.Username)
	}
}

func TestHandler_DeleteUser_Self(t *testing.T) {
	h, e := newTestHandler()
	u := createUser(t, h.svc, "root", "admin")

	req := asUser(httptest.NewRequest(http.MethodDelete, "/", nil), "root", auth.RoleAdmin)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())

	expectHTTPError(t, h.DeleteUser(c), http.StatusBadRequest, "Cannot delete your own account")
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("6f1c2f0e-8d5b-4f7e-9a0a-3f1b2c3d4e5f")

	expectHTTPError(t, h.GetDoctor(c), http.StatusNotFound, "Doctor not found")
}

func TestHandler_GetDoctor_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	expectHTTPError(t, h.GetDoctor(c), http.StatusBadRequest, "")
}

func TestHandler_ListDoctors(t *testing.T) {
	h, e := newTestHandler()
	for i := 0; i < 3; i++ {
		h.svc.CreateDoctor(context.Background(), DoctorFields{FirstName: "A", LastName: "B", Specialization: "GP"}, "")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors?page=1&size=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		pagination.Response
		Data []Doctor `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Data) != 2 || resp.Pages != 2 || resp.Size != 2 {
		t.Errorf("unexpected envelope: total=%d len=%d pages=%d size=%d", resp.Total, len(resp.Data), resp.Pages, resp.Size)
	}
}

func TestHandler_ListDoctors_BadSize(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/doctors?size=0", nil), httptest.NewRecorder())
	expectHTTPError(t, h.ListDoctors(c), http.StatusBadRequest, "")
}

func TestHandler_UpdateDoctor(t *testing.T) {
	h, e := newTestHandler()
	d, _ := h.svc.CreateDoctor(context.Background(), DoctorFields{FirstName: "Hodan", LastName: "Ali", Specialization: "GP"}, "")

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"bio":"Twenty years in rural clinics"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.UpdateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Doctor
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Bio == nil || got.FirstName != "Hodan" {
		t.Errorf("unexpected doctor: %+v", got.DoctorFields)
	}
}
