package prescribing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/domain/clinical"
	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/domain/inventory"
	"github.com/medbase/medbase/internal/domain/patient"
	"github.com/medbase/medbase/internal/domain/scheduling"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/pkg/civil"
	"github.com/medbase/medbase/pkg/pagination"
)

var (
	_ db.HardDeleter = (*prescriptionRepoPG)(nil)
	_ db.HardDeleter = (*deviceRepoPG)(nil)
)

func page[T any](rows []*T, p pagination.Params) ([]*T, int) {
	total := len(rows)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit()
	if end > total {
		end = total
	}
	return rows[start:end], total
}

// -- Mock Repositories --

type mockPrescriptionRepo struct {
	rows []*Prescription
}

func (m *mockPrescriptionRepo) find(match func(*Prescription) bool) (*Prescription, error) {
	for _, p := range m.rows {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("prescription")
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	return m.find(func(p *Prescription) bool { return p.ID == id })
}

func (m *mockPrescriptionRepo) GetByNumber(_ context.Context, number string) (*Prescription, error) {
	return m.find(func(p *Prescription) bool { return p.PrescriptionNumber == number })
}

func (m *mockPrescriptionRepo) Update(_ context.Context, p *Prescription) error {
	for i, existing := range m.rows {
		if existing.ID == p.ID {
			cp := *p
			m.rows[i] = &cp
			return nil
		}
	}
	return apperr.NotFound("prescription")
}

func (m *mockPrescriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, p := range m.rows {
		if p.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("prescription")
}

func (m *mockPrescriptionRepo) List(_ context.Context, f PrescriptionFilter, p pagination.Params, _ query.Order) ([]*Prescription, int, error) {
	var result []*Prescription
	for _, rx := range m.rows {
		if f.Status != "" && rx.Status != f.Status {
			continue
		}
		if f.PatientID != nil && rx.PatientID != *f.PatientID {
			continue
		}
		result = append(result, rx)
	}
	items, total := page(result, p)
	return items, total, nil
}

type mockItemRepo struct {
	rows []*Item
}

func (m *mockItemRepo) index(prescriptionID, id uuid.UUID) int {
	for i, it := range m.rows {
		if it.ID == id && it.PrescriptionID == prescriptionID {
			return i
		}
	}
	return -1
}

func (m *mockItemRepo) Create(_ context.Context, it *Item) error {
	it.ID = uuid.New()
	cp := *it
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *mockItemRepo) Get(_ context.Context, prescriptionID, id uuid.UUID) (*Item, error) {
	i := m.index(prescriptionID, id)
	if i < 0 {
		return nil, apperr.NotFound("prescription item")
	}
	cp := *m.rows[i]
	return &cp, nil
}

func (m *mockItemRepo) Update(_ context.Context, it *Item) error {
	i := m.index(it.PrescriptionID, it.ID)
	if i < 0 {
		return apperr.NotFound("prescription item")
	}
	cp := *it
	m.rows[i] = &cp
	return nil
}

func (m *mockItemRepo) Delete(_ context.Context, prescriptionID, id uuid.UUID) error {
	i := m.index(prescriptionID, id)
	if i < 0 {
		return apperr.NotFound("prescription item")
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return nil
}

func (m *mockItemRepo) List(_ context.Context, prescriptionID uuid.UUID, p pagination.Params, _ query.Order) ([]*Item, int, error) {
	var result []*Item
	for _, it := range m.rows {
		if it.PrescriptionID == prescriptionID {
			result = append(result, it)
		}
	}
	items, total := page(result, p)
	return items, total, nil
}

type mockDeviceRepo struct {
	rows []*PrescribedDevice
}

func (m *mockDeviceRepo) Create(_ context.Context, d *PrescribedDevice) error {
	d.ID = uuid.New()
	cp := *d
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id uuid.UUID) (*PrescribedDevice, error) {
	for _, d := range m.rows {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("prescribed device")
}

func (m *mockDeviceRepo) Update(_ context.Context, d *PrescribedDevice) error {
	for i, existing := range m.rows {
		if existing.ID == d.ID {
			cp := *d
			m.rows[i] = &cp
			return nil
		}
	}
	return apperr.NotFound("prescribed device")
}

func (m *mockDeviceRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, d := range m.rows {
		if d.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("prescribed device")
}

func (m *mockDeviceRepo) List(_ context.Context, f DeviceFilter, p pagination.Params, _ query.Order) ([]*PrescribedDevice, int, error) {
	var result []*PrescribedDevice
	for _, d := range m.rows {
		if f.IsReturned != nil && (d.ReturnDate != nil) != *f.IsReturned {
			continue
		}
		result = append(result, d)
	}
	items, total := page(result, p)
	return items, total, nil
}

// finder answers GetByID from a fixed map.
type finder[T any] struct {
	rows   map[uuid.UUID]*T
	entity string
}

func (f finder[T]) GetByID(_ context.Context, id uuid.UUID) (*T, error) {
	if v, ok := f.rows[id]; ok {
		return v, nil
	}
	return nil, apperr.NotFound(f.entity)
}

// -- Fixture --

var testNow = time.Date(2026, 5, 20, 10, 15, 0, 0, time.UTC)

type fixture struct {
	svc           *Service
	prescriptions *mockPrescriptionRepo
	items         *mockItemRepo
	devices       *mockDeviceRepo
	patientID     uuid.UUID
	otherPatient  uuid.UUID
	doctorID      uuid.UUID
	appointmentID uuid.UUID
	recordID      uuid.UUID
	medicineID    uuid.UUID
	deviceID      uuid.UUID
}

func newFixture() *fixture {
	fx := &fixture{
		prescriptions: &mockPrescriptionRepo{},
		items:         &mockItemRepo{},
		devices:       &mockDeviceRepo{},
		patientID:     uuid.New(),
		otherPatient:  uuid.New(),
		doctorID:      uuid.New(),
		appointmentID: uuid.New(),
		recordID:      uuid.New(),
		medicineID:    uuid.New(),
		deviceID:      uuid.New(),
	}
	refs := Refs{
		Patients: finder[patient.Patient]{entity: "patient", rows: map[uuid.UUID]*patient.Patient{
			fx.patientID: {ID: fx.patientID}, fx.otherPatient: {ID: fx.otherPatient}}},
		Doctors: finder[identity.Doctor]{entity: "doctor", rows: map[uuid.UUID]*identity.Doctor{
			fx.doctorID: {ID: fx.doctorID}}},
		Appointments: finder[scheduling.Appointment]{entity: "appointment", rows: map[uuid.UUID]*scheduling.Appointment{
			fx.appointmentID: {ID: fx.appointmentID, AppointmentFields: scheduling.AppointmentFields{PatientID: fx.otherPatient}}}},
		Records: finder[clinical.MedicalRecord]{entity: "medical record", rows: map[uuid.UUID]*clinical.MedicalRecord{
			fx.recordID: {ID: fx.recordID, RecordFields: clinical.RecordFields{PatientID: fx.patientID}}}},
		Medicines: finder[inventory.Medicine]{entity: "medicine", rows: map[uuid.UUID]*inventory.Medicine{
			fx.medicineID: {ID: fx.medicineID, MedicineFields: inventory.MedicineFields{Name: "Amoxicillin 250mg"}}}},
		Devices: finder[inventory.MedicalDevice]{entity: "medical device", rows: map[uuid.UUID]*inventory.MedicalDevice{
			fx.deviceID: {ID: fx.deviceID}}},
	}
	numbers := sequence.NewGenerator(sequence.NewMemoryCounter(), nil,
		sequence.WithClock(func() time.Time { return testNow }))
	fx.svc = NewService(Repos{Prescriptions: fx.prescriptions, Items: fx.items, Devices: fx.devices}, refs, numbers)
	fx.svc.now = func() time.Time { return testNow }
	return fx
}

func (fx *fixture) fields() PrescriptionFields {
	f := NewPrescriptionFields()
	f.PatientID = fx.patientID
	f.DoctorID = fx.doctorID
	return f
}

func (fx *fixture) createPrescription(t *testing.T) *Prescription {
	t.Helper()
	p, err := fx.svc.CreatePrescription(context.Background(), fx.fields(), "dr.bello")
	if err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	return p
}

func expectMessage(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %q, got nil", msg)
	}
	if err.Error() != msg {
		t.Errorf("expected %q, got %q", msg, err.Error())
	}
}

func date(s string) *civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

// -- Prescriptions --

func TestCreatePrescription_NumberAndDefaults(t *testing.T) {
	fx := newFixture()
	p := fx.createPrescription(t)
	if p.PrescriptionNumber != "RX-2026-000001" {
		t.Errorf("expected RX-2026-000001, got %s", p.PrescriptionNumber)
	}
	if p.Status != "pending" || p.DispensedAt != nil {
		t.Errorf("expected a pending prescription, got status=%s dispensed_at=%v", p.Status, p.DispensedAt)
	}
	if !p.PrescriptionDate.Equal(testNow) {
		t.Errorf("expected prescription_date to default to now, got %s", p.PrescriptionDate)
	}
	if next := fx.createPrescription(t); next.PrescriptionNumber != "RX-2026-000002" {
		t.Errorf("expected RX-2026-000002, got %s", next.PrescriptionNumber)
	}
}

func TestCreatePrescription_References(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	missing := uuid.New()

	tests := []struct {
		name   string
		modify func(*PrescriptionFields)
		want   string
	}{
		{"patient", func(f *PrescriptionFields) { f.PatientID = missing }, "Patient not found"},
		{"doctor", func(f *PrescriptionFields) { f.DoctorID = missing }, "Doctor not found"},
		{"appointment", func(f *PrescriptionFields) { f.AppointmentID = &missing }, "Appointment not found"},
		{"appointment of another patient", func(f *PrescriptionFields) { f.AppointmentID = &fx.appointmentID }, "Appointment belongs to another patient"},
		{"medical record", func(f *PrescriptionFields) { f.MedicalRecordID = &missing }, "Medical record not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fx.fields()
			tt.modify(&f)
			_, err := fx.svc.CreatePrescription(ctx, f, "dr.bello")
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			expectMessage(t, err, tt.want)
		})
	}

	f := fx.fields()
	f.MedicalRecordID = &fx.recordID
	if _, err := fx.svc.CreatePrescription(ctx, f, "dr.bello"); err != nil {
		t.Errorf("expected linked medical record to be accepted: %v", err)
	}
}

func TestCreatePrescription_Validation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f := fx.fields()
	f.Status = "filled"
	_, err := fx.svc.CreatePrescription(ctx, f, "x")
	expectMessage(t, err, "invalid status: filled")

	f = fx.fields()
	f.RefillsRemaining = -1
	_, err = fx.svc.CreatePrescription(ctx, f, "x")
	expectMessage(t, err, "refills_remaining must not be negative")

	f = fx.fields()
	f.ValidUntil = date("2026-05-19")
	_, err = fx.svc.CreatePrescription(ctx, f, "x")
	expectMessage(t, err, "valid_until cannot be before prescription_date")
}

func TestUpdatePrescription_DispensedAt(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	p := fx.createPrescription(t)

	got, err := fx.svc.UpdatePrescription(ctx, p.ID, []byte(`{"pharmacy_notes":"call patient"}`), "pharmacist")
	if err != nil {
		t.Fatalf("UpdatePrescription: %v", err)
	}
	if got.DispensedAt != nil {
		t.Error("dispensed_at must stay empty while pending")
	}

	fx.svc.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	got, err = fx.svc.UpdatePrescription(ctx, p.ID, []byte(`{"status":"dispensed","dispensed_at":"2020-01-01T00:00:00Z"}`), "pharmacist")
	if err != nil {
		t.Fatalf("UpdatePrescription: %v", err)
	}
	want := testNow.Add(2 * time.Hour)
	if got.DispensedAt == nil || !got.DispensedAt.Equal(want) {
		t.Fatalf("expected dispensed_at %s, got %v", want, got.DispensedAt)
	}
	if got.UpdatedBy != "pharmacist" {
		t.Errorf("expected updated_by pharmacist, got %s", got.UpdatedBy)
	}

	// A later edit keeps the first dispensing time.
	fx.svc.now = func() time.Time { return testNow.Add(48 * time.Hour) }
	got, err = fx.svc.UpdatePrescription(ctx, p.ID, []byte(`{"notes":"follow up"}`), "pharmacist")
	if err != nil {
		t.Fatalf("UpdatePrescription: %v", err)
	}
	if !got.DispensedAt.Equal(want) {
		t.Errorf("expected dispensed_at to stay %s, got %s", want, got.DispensedAt)
	}
}

func TestUpdatePrescription_NumberNotEditable(t *testing.T) {
	fx := newFixture()
	p := fx.createPrescription(t)
	got, err := fx.svc.UpdatePrescription(context.Background(), p.ID, []byte(`{"prescription_number":"RX-1999-000001"}`), "x")
	if err != nil {
		t.Fatalf("UpdatePrescription: %v", err)
	}
	if got.PrescriptionNumber != "RX-2026-000001" {
		t.Errorf("expected number to be unchanged, got %s", got.PrescriptionNumber)
	}
}

func TestDeletePrescription(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	p := fx.createPrescription(t)
	if err := fx.svc.DeletePrescription(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrescription: %v", err)
	}
	_, err := fx.svc.GetPrescription(ctx, p.ID)
	expectMessage(t, err, "Prescription not found")
}

// -- Items --

func TestCreateItem(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	p := fx.createPrescription(t)

	f := NewItemFields()
	f.MedicineID = &fx.medicineID
	f.Quantity = 21
	it, err := fx.svc.CreateItem(ctx, p.ID, f, "dr.bello")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if it.MedicineName != "Amoxicillin 250mg" {
		t.Errorf("expected medicine_name from catalogue, got %q", it.MedicineName)
	}
	if !it.IsSubstitutionAllowed || it.IsDispensed || it.QuantityDispensed != 0 {
		t.Errorf("unexpected defaults: %+v", it.ItemFields)
	}

	_, err = fx.svc.CreateItem(ctx, uuid.New(), f, "dr.bello")
	expectMessage(t, err, "Prescription not found")
}

func TestCreateItem_Validation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	p := fx.createPrescription(t)
	missing := uuid.New()

	tests := []struct {
		name   string
		modify func(*ItemFields)
		want   string
	}{
		{"name required", func(f *ItemFields) { f.MedicineName = "" }, "medicine_name is required"},
		{"zero quantity", func(f *ItemFields) { f.Quantity = 0 }, "quantity must be greater than 0"},
		{"over dispensed", func(f *ItemFields) { f.QuantityDispensed = 11 }, "quantity_dispensed cannot exceed quantity"},
		{"unknown medicine", func(f *ItemFields) { f.MedicineID = &missing }, "Medicine not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewItemFields()
			f.MedicineName = "ORS sachet"
			f.Quantity = 10
			tt.modify(&f)
			_, err := fx.svc.CreateItem(ctx, p.ID, f, "x")
			expectMessage(t, err, tt.want)
		})
	}
}

func TestItems_ScopedToPrescription(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	first := fx.createPrescription(t)
	second := fx.createPrescription(t)

	f := NewItemFields()
	f.MedicineName = "ORS sachet"
	f.Quantity = 10
	it, _ := fx.svc.CreateItem(ctx, first.ID, f, "x")

	_, err := fx.svc.GetItem(ctx, second.ID, it.ID)
	expectMessage(t, err, "Prescription item not found")
	err = fx.svc.DeleteItem(ctx, second.ID, it.ID)
	expectMessage(t, err, "Prescription item not found")

	got, err := fx.svc.UpdateItem(ctx, first.ID, it.ID, []byte(`{"quantity_dispensed":10,"is_dispensed":true}`), "pharmacist")
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if !got.IsDispensed || got.QuantityDispensed != 10 {
		t.Errorf("unexpected item: %+v", got.ItemFields)
	}

	p, _ := pagination.New(1, 50)
	items, total, err := fx.svc.ListItems(ctx, first.ID, p, query.Order{})
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 item, got %d (%v)", total, err)
	}
	if err := fx.svc.DeleteItem(ctx, first.ID, it.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
}

// -- Prescribed Devices --

func (fx *fixture) deviceFields() DeviceFields {
	return DeviceFields{PatientID: fx.patientID, DoctorID: fx.doctorID, DeviceID: fx.deviceID}
}

func TestPrescribeDevice(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f := fx.deviceFields()
	f.IssueDate = date("2026-05-20")
	f.ExpectedReturnDate = date("2026-06-20")
	good := "good"
	f.ConditionOnIssue = &good
	d, err := fx.svc.PrescribeDevice(ctx, f, "dr.bello")
	if err != nil {
		t.Fatalf("PrescribeDevice: %v", err)
	}
	if !d.PrescriptionDate.Equal(testNow) {
		t.Errorf("expected prescription_date to default to now, got %s", d.PrescriptionDate)
	}

	bad := fx.deviceFields()
	bad.DeviceID = uuid.New()
	_, err = fx.svc.PrescribeDevice(ctx, bad, "dr.bello")
	expectMessage(t, err, "Medical device not found")

	bad = fx.deviceFields()
	bad.IssueDate = date("2026-05-20")
	bad.ExpectedReturnDate = date("2026-05-01")
	_, err = fx.svc.PrescribeDevice(ctx, bad, "dr.bello")
	expectMessage(t, err, "expected_return_date cannot be before issue_date")

	worn := "worn"
	bad = fx.deviceFields()
	bad.ConditionOnReturn = &worn
	_, err = fx.svc.PrescribeDevice(ctx, bad, "dr.bello")
	expectMessage(t, err, "invalid condition_on_return: worn")
}

func TestPrescribedDevice_Return(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	f := fx.deviceFields()
	f.IssueDate = date("2026-05-20")
	open, _ := fx.svc.PrescribeDevice(ctx, f, "dr.bello")
	fx.svc.PrescribeDevice(ctx, fx.deviceFields(), "dr.bello")

	_, err := fx.svc.UpdatePrescribedDevice(ctx, open.ID, []byte(`{"return_date":"2026-05-01"}`), "staff")
	expectMessage(t, err, "return_date cannot be before issue_date")

	got, err := fx.svc.UpdatePrescribedDevice(ctx, open.ID, []byte(`{"return_date":"2026-06-02","condition_on_return":"fair"}`), "staff")
	if err != nil {
		t.Fatalf("UpdatePrescribedDevice: %v", err)
	}
	if got.ReturnDate == nil || got.ReturnDate.String() != "2026-06-02" || *got.ConditionOnReturn != "fair" {
		t.Errorf("unexpected device: %+v", got.DeviceFields)
	}
	if !got.PrescriptionDate.Equal(testNow) {
		t.Errorf("expected prescription_date to be kept, got %s", got.PrescriptionDate)
	}

	returned := true
	p, _ := pagination.New(1, 10)
	items, total, err := fx.svc.ListPrescribedDevices(ctx, DeviceFilter{IsReturned: &returned}, p, query.Order{})
	if err != nil || total != 1 || items[0].ID != open.ID {
		t.Errorf("expected only the returned device, got %d (%v)", total, err)
	}
}
