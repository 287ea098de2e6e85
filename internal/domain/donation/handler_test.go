package donation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req.WithContext(auth.WithUser(req.Context(), "clerk", auth.RoleStaff))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return body
}

func TestHandler_RegisterRoutes(t *testing.T) {
	e := echo.New()
	NewHandler(newFixture().svc).RegisterRoutes(e.Group("/api/v1"))

	want := []string{
		"GET /api/v1/donors/code/:code",
		"GET /api/v1/donors/email/:email",
		"GET /api/v1/donations/number/:number",
		"POST /api/v1/donations/:id/medicine-items",
		"PATCH /api/v1/donations/:id/equipment-items/:item_id",
		"DELETE /api/v1/donations/:id/medical-device-items/:item_id",
	}
	seen := map[string]bool{}
	for _, r := range e.Routes() {
		seen[r.Method+" "+r.Path] = true
	}
	for _, route := range want {
		if !seen[route] {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestHandler_DonationLifecycle(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/donors", `{"donor_code":"DNR-7","name":"St. Luke Parish","donor_type":"ngo"}`), rec)
	if err := h.CreateDonor(c); err != nil {
		t.Fatalf("CreateDonor: %v", err)
	}
	donor := decode(t, rec)
	if donor["is_active"] != true || donor["created_by"] != "clerk" {
		t.Errorf("unexpected donor: %v", donor)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/v1/donations",
		`{"donor_id":"`+donor["id"].(string)+`","donation_type":"medicine","total_estimated_value":"1250.00"}`), rec)
	if err := h.CreateDonation(c); err != nil {
		t.Fatalf("CreateDonation: %v", err)
	}
	donation := decode(t, rec)
	if donation["donation_number"] != "DON-2026-000001" || donation["donation_date"] != "2026-03-14" {
		t.Errorf("unexpected donation: %v", donation)
	}
	id := donation["id"].(string)

	var itemIDs []string
	for _, body := range []string{
		`{"medicine_name":"Ibuprofen 200mg","quantity":60,"estimated_unit_value":"0.10"}`,
		`{"medicine_name":"Zinc tablets","quantity":30}`,
	} {
		rec = httptest.NewRecorder()
		c = e.NewContext(jsonRequest(http.MethodPost, "/", body), rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.CreateMedicineItem(c); err != nil {
			t.Fatalf("CreateMedicineItem: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		itemIDs = append(itemIDs, decode(t, rec)["id"].(string))
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodDelete, "/", ""), rec)
	c.SetParamNames("id", "item_id")
	c.SetParamValues(id, itemIDs[0])
	if err := h.DeleteMedicineItem(c); err != nil {
		t.Fatalf("DeleteMedicineItem: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !fx.medicines.rows[0].IsDeleted {
		t.Error("expected the item to be flagged deleted")
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.GetDonation(c); err != nil {
		t.Fatalf("GetDonation: %v", err)
	}
	detail := decode(t, rec)
	items, _ := detail["medicine_items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["id"] != itemIDs[1] {
		t.Errorf("expected exactly the live medicine item, got %v", detail["medicine_items"])
	}
	if detail["donation_number"] != "DON-2026-000001" || detail["total_estimated_value"] == nil {
		t.Errorf("expected donation fields inline, got %v", detail)
	}
	if eq, ok := detail["equipment_items"].([]interface{}); !ok || len(eq) != 0 {
		t.Errorf("expected empty equipment_items array, got %v", detail["equipment_items"])
	}

	c = e.NewContext(jsonRequest(http.MethodPatch, "/", `{"quantity":3}`), httptest.NewRecorder())
	c.SetParamNames("id", "item_id")
	c.SetParamValues(id, itemIDs[0])
	expectHTTPError(t, h.UpdateMedicineItem(c), http.StatusNotFound, "Medicine item not found")
}

func TestHandler_CreateDonor_Duplicate(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	e := echo.New()
	fx.createDonor(t, "DNR-1")

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/donors", `{"donor_code":"DNR-1","name":"Again"}`), httptest.NewRecorder())
	expectHTTPError(t, h.CreateDonor(c), http.StatusBadRequest, "Donor code already registered")
}

func TestHandler_ListDonations_BadFilter(t *testing.T) {
	h := NewHandler(newFixture().svc)
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?donor_id=abc", nil), httptest.NewRecorder())
	expectHTTPError(t, h.ListDonations(c), http.StatusBadRequest, "invalid donor_id")

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?is_active=sometimes", nil), httptest.NewRecorder())
	expectHTTPError(t, h.ListDonors(c), http.StatusBadRequest, "is_active must be true or false")
}
