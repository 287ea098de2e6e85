package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/domain/patient"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/pkg/civil"
	"github.com/medbase/medbase/pkg/pagination"
)

// -- Mock Repositories --

type mockAppointmentRepo struct {
	appointments []*Appointment
}

func (m *mockAppointmentRepo) find(match func(*Appointment) bool) (*Appointment, error) {
	for _, a := range m.appointments {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("appointment")
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appointments = append(m.appointments, &cp)
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	return m.find(func(a *Appointment) bool { return a.ID == id })
}

func (m *mockAppointmentRepo) GetByNumber(_ context.Context, number string) (*Appointment, error) {
	return m.find(func(a *Appointment) bool { return a.AppointmentNumber == number })
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	for i, existing := range m.appointments {
		if existing.ID == a.ID {
			cp := *a
			m.appointments[i] = &cp
			return nil
		}
	}
	return apperr.NotFound("appointment")
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, a := range m.appointments {
		if a.ID == id {
			m.appointments = append(m.appointments[:i], m.appointments[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("appointment")
}

func (m *mockAppointmentRepo) List(_ context.Context, f AppointmentFilter, p pagination.Params, _ query.Order) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.DateFrom != nil && a.AppointmentDate.Before(*f.DateFrom) {
			continue
		}
		result = append(result, a)
	}
	total := len(result)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit()
	if end > total {
		end = total
	}
	return result[start:end], total, nil
}

type mockPatients map[uuid.UUID]*patient.Patient

func (m mockPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("patient")
}

type mockDoctors map[uuid.UUID]*identity.Doctor

func (m mockDoctors) GetByID(_ context.Context, id uuid.UUID) (*identity.Doctor, error) {
	if d, ok := m[id]; ok {
		return d, nil
	}
	return nil, apperr.NotFound("doctor")
}

// -- Helpers --

type fixture struct {
	svc       *Service
	repo      *mockAppointmentRepo
	patientID uuid.UUID
	doctorID  uuid.UUID
	now       time.Time
}

func newFixture() *fixture {
	fx := &fixture{
		repo:      &mockAppointmentRepo{},
		patientID: uuid.New(),
		doctorID:  uuid.New(),
		now:       time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	patients := mockPatients{fx.patientID: {ID: fx.patientID}}
	doctors := mockDoctors{fx.doctorID: {ID: fx.doctorID}}
	numbers := sequence.NewGenerator(sequence.NewMemoryCounter(), nil,
		sequence.WithClock(func() time.Time { return fx.now }))
	fx.svc = NewService(fx.repo, patients, doctors, numbers)
	return fx
}

func (fx *fixture) fields() AppointmentFields {
	f := NewAppointmentFields()
	f.PatientID = fx.patientID
	f.DoctorID = fx.doctorID
	f.AppointmentDate = civil.DateOf(fx.now)
	f.StartTime = civil.Time{Hour: 9}
	return f
}

func (fx *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	a, err := fx.svc.CreateAppointment(context.Background(), fx.fields(), "reception")
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	return a
}

// -- Tests --

func TestAppointmentRepo_IsHardDeleter(t *testing.T) {
	var _ db.HardDeleter = NewAppointmentRepo(nil)
}

func TestCreateAppointment_NumberAndDefaults(t *testing.T) {
	fx := newFixture()
	a := fx.book(t)
	if a.AppointmentNumber != "APT-2026-000001" {
		t.Errorf("expected APT-2026-000001, got %s", a.AppointmentNumber)
	}
	if a.Status != "scheduled" || a.AppointmentType != "consultation" || a.DurationMinutes != 30 {
		t.Errorf("unexpected defaults: %+v", a.AppointmentFields)
	}
	if a.CreatedBy != "reception" {
		t.Errorf("expected created_by reception, got %s", a.CreatedBy)
	}
}

func TestCreateAppointment_YearRollover(t *testing.T) {
	fx := newFixture()
	fx.now = time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)
	first := fx.book(t)
	second := fx.book(t)
	fx.now = time.Date(2027, 1, 1, 0, 5, 0, 0, time.UTC)
	third := fx.book(t)

	got := []string{first.AppointmentNumber, second.AppointmentNumber, third.AppointmentNumber}
	want := []string{"APT-2026-000001", "APT-2026-000002", "APT-2027-000001"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("appointment %d: expected %s, got %s", i+1, want[i], got[i])
		}
	}
}

func TestCreateAppointment_MissingReferences(t *testing.T) {
	fx := newFixture()

	f := fx.fields()
	f.PatientID = uuid.New()
	_, err := fx.svc.CreateAppointment(context.Background(), f, "reception")
	if !apperr.IsValidation(err) || err.Error() != "Patient not found" {
		t.Errorf("expected Patient not found validation, got %v", err)
	}

	f = fx.fields()
	f.DoctorID = uuid.New()
	_, err = fx.svc.CreateAppointment(context.Background(), f, "reception")
	if !apperr.IsValidation(err) || err.Error() != "Doctor not found" {
		t.Errorf("expected Doctor not found validation, got %v", err)
	}

	f = fx.fields()
	missing := uuid.New()
	f.PreviousAppointmentID = &missing
	_, err = fx.svc.CreateAppointment(context.Background(), f, "reception")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for previous appointment, got %v", err)
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	fx := newFixture()
	early := civil.Time{Hour: 8, Minute: 30}
	same := civil.Time{Hour: 9}
	tests := []struct {
		name   string
		mutate func(*AppointmentFields)
	}{
		{"end before start", func(f *AppointmentFields) { f.EndTime = &early }},
		{"end equals start", func(f *AppointmentFields) { f.EndTime = &same }},
		{"zero duration", func(f *AppointmentFields) { f.DurationMinutes = 0 }},
		{"bad status", func(f *AppointmentFields) { f.Status = "pending" }},
		{"bad type", func(f *AppointmentFields) { f.AppointmentType = "surgery" }},
		{"missing date", func(f *AppointmentFields) { f.AppointmentDate = civil.Date{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fx.fields()
			tt.mutate(&f)
			_, err := fx.svc.CreateAppointment(context.Background(), f, "reception")
			if !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(fx.repo.appointments) != 0 {
		t.Errorf("expected nothing stored, got %d", len(fx.repo.appointments))
	}
}

func TestUpdateAppointment_StatusAndEndTime(t *testing.T) {
	fx := newFixture()
	a := fx.book(t)

	got, err := fx.svc.UpdateAppointment(context.Background(), a.ID, []byte(`{"status":"completed","end_time":"09:45"}`), "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "completed" || got.EndTime == nil || got.EndTime.String() != "09:45:00" {
		t.Errorf("unexpected appointment: %+v", got.AppointmentFields)
	}
	if got.AppointmentNumber != a.AppointmentNumber || got.UpdatedBy != "doctor" {
		t.Errorf("unexpected number or actor: %s %s", got.AppointmentNumber, got.UpdatedBy)
	}

	_, err = fx.svc.UpdateAppointment(context.Background(), a.ID, []byte(`{"end_time":"08:00"}`), "doctor")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateAppointment_SelfFollowUp(t *testing.T) {
	fx := newFixture()
	a := fx.book(t)
	body := []byte(`{"is_follow_up":true,"previous_appointment_id":"` + a.ID.String() + `"}`)
	_, err := fx.svc.UpdateAppointment(context.Background(), a.ID, body, "doctor")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateAppointment_FollowUp(t *testing.T) {
	fx := newFixture()
	first := fx.book(t)
	second := fx.book(t)
	body := []byte(`{"is_follow_up":true,"previous_appointment_id":"` + first.ID.String() + `"}`)
	got, err := fx.svc.UpdateAppointment(context.Background(), second.ID, body, "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsFollowUp || got.PreviousAppointmentID == nil || *got.PreviousAppointmentID != first.ID {
		t.Errorf("unexpected follow-up fields: %+v", got.AppointmentFields)
	}
}

func TestGetAppointmentByNumber(t *testing.T) {
	fx := newFixture()
	fx.book(t)
	b := fx.book(t)
	got, err := fx.svc.GetAppointmentByNumber(context.Background(), "APT-2026-000002")
	if err != nil || got.ID != b.ID {
		t.Fatalf("expected second appointment, got %v, %v", got, err)
	}
	if _, err := fx.svc.GetAppointmentByNumber(context.Background(), "APT-2026-999999"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteAppointment(t *testing.T) {
	fx := newFixture()
	a := fx.book(t)
	if err := fx.svc.DeleteAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := fx.svc.DeleteAppointment(context.Background(), a.ID)
	if !apperr.IsNotFound(err) || err.Error() != "Appointment not found" {
		t.Errorf("expected Appointment not found, got %v", err)
	}
}
