package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/domain/patient"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/internal/platform/validate"
	"github.com/medbase/medbase/pkg/pagination"
)

// PatientFinder resolves appointment patients.
type PatientFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// DoctorFinder resolves appointment doctors.
type DoctorFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
}

type Service struct {
	appointments AppointmentRepository
	patients     PatientFinder
	doctors      DoctorFinder
	numbers      *sequence.Generator
}

func NewService(appointments AppointmentRepository, patients PatientFinder, doctors DoctorFinder, numbers *sequence.Generator) *Service {
	return &Service{appointments: appointments, patients: patients, doctors: doctors, numbers: numbers}
}

func validateAppointment(f AppointmentFields) error {
	var order error
	if f.EndTime != nil && !f.EndTime.After(f.StartTime) {
		order = apperr.Validation("end_time must be after start_time")
	}
	var date error
	if f.AppointmentDate.IsZero() {
		date = apperr.Validation("appointment_date is required")
	}
	return validate.First(
		date,
		order,
		validate.Positive("duration_minutes", f.DurationMinutes),
		validate.Enum("appointment_type", f.AppointmentType, enum.AppointmentType),
		validate.Enum("status", f.Status, enum.AppointmentStatus),
	)
}

// checkRefs verifies the referenced records of f that differ from prev.
// A nil prev checks all of them.
func (s *Service) checkRefs(ctx context.Context, f AppointmentFields, prev *AppointmentFields) error {
	if prev == nil || prev.PatientID != f.PatientID {
		if _, err := s.patients.GetByID(ctx, f.PatientID); err != nil {
			return apperr.Reference(err, "Patient not found")
		}
	}
	if prev == nil || prev.DoctorID != f.DoctorID {
		if _, err := s.doctors.GetByID(ctx, f.DoctorID); err != nil {
			return apperr.Reference(err, "Doctor not found")
		}
	}
	if f.PreviousAppointmentID != nil {
		if _, err := s.appointments.GetByID(ctx, *f.PreviousAppointmentID); err != nil {
			return apperr.Reference(err, "Previous appointment not found")
		}
	}
	return nil
}

// CreateAppointment books an appointment under the next yearly number.
func (s *Service) CreateAppointment(ctx context.Context, f AppointmentFields, actor string) (*Appointment, error) {
	if err := validateAppointment(f); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, f, nil); err != nil {
		return nil, err
	}

	a := &Appointment{AppointmentFields: f}
	a.StampCreate(actor)
	_, err := s.numbers.Assign(ctx, sequence.Appointment, func(ctx context.Context, number string) error {
		a.AppointmentNumber = number
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("appointment_number", a.AppointmentNumber).
		Str("patient_id", a.PatientID.String()).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) GetAppointmentByNumber(ctx context.Context, number string) (*Appointment, error) {
	return s.appointments.GetByNumber(ctx, number)
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter, p pagination.Params, o query.Order) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, f, p, o)
}

func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := a.AppointmentFields
	if err := patch.Apply(&a.AppointmentFields, raw); err != nil {
		return nil, err
	}
	if a.PreviousAppointmentID != nil && *a.PreviousAppointmentID == a.ID {
		return nil, apperr.Validation("an appointment cannot follow up on itself")
	}
	if err := validateAppointment(a.AppointmentFields); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, a.AppointmentFields, &prev); err != nil {
		return nil, err
	}
	a.StampUpdate(actor)
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	if prev.Status != a.Status {
		zerolog.Ctx(ctx).Info().
			Str("appointment_number", a.AppointmentNumber).
			Str("from", prev.Status).
			Str("to", a.Status).
			Msg("appointment status changed")
	}
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}
