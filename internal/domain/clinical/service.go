package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/domain/patient"
	"github.com/medbase/medbase/internal/domain/scheduling"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/pkg/civil"
	"github.com/medbase/medbase/pkg/pagination"
)

type PatientFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type DoctorFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
}

type AppointmentFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

type Service struct {
	records      RecordRepository
	patients     PatientFinder
	doctors      DoctorFinder
	appointments AppointmentFinder
	numbers      *sequence.Generator
	now          func() time.Time
}

func NewService(records RecordRepository, patients PatientFinder, doctors DoctorFinder, appointments AppointmentFinder, numbers *sequence.Generator) *Service {
	return &Service{
		records:      records,
		patients:     patients,
		doctors:      doctors,
		appointments: appointments,
		numbers:      numbers,
		now:          time.Now,
	}
}

func validateRecord(f RecordFields) error {
	if f.FollowUpDate != nil && f.FollowUpDate.Before(civil.DateOf(f.VisitDate)) {
		return apperr.Validation("follow_up_date cannot be before visit_date")
	}
	return nil
}

func (s *Service) checkRefs(ctx context.Context, f RecordFields, prev *RecordFields) error {
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
	if f.AppointmentID != nil {
		a, err := s.appointments.GetByID(ctx, *f.AppointmentID)
		if err != nil {
			return apperr.Reference(err, "Appointment not found")
		}
		if a.PatientID != f.PatientID {
			return apperr.Validation("Appointment belongs to another patient")
		}
	}
	return nil
}

// CreateRecord stores a visit note under the next yearly record number.
// visit_date defaults to now.
func (s *Service) CreateRecord(ctx context.Context, f RecordFields, actor string) (*MedicalRecord, error) {
	if f.VisitDate.IsZero() {
		f.VisitDate = s.now().UTC()
	}
	f.normalize()
	if err := validateRecord(f); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, f, nil); err != nil {
		return nil, err
	}

	m := &MedicalRecord{RecordFields: f}
	m.StampCreate(actor)
	_, err := s.numbers.Assign(ctx, sequence.MedicalRecord, func(ctx context.Context, number string) error {
		m.RecordNumber = number
		return s.records.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("record_number", m.RecordNumber).
		Str("patient_id", m.PatientID.String()).
		Msg("medical record created")
	return m, nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *Service) GetRecordByNumber(ctx context.Context, number string) (*MedicalRecord, error) {
	return s.records.GetByNumber(ctx, number)
}

func (s *Service) ListRecords(ctx context.Context, f RecordFilter, p pagination.Params, o query.Order) ([]*MedicalRecord, int, error) {
	return s.records.List(ctx, f, p, o)
}

func (s *Service) UpdateRecord(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*MedicalRecord, error) {
	m, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := m.RecordFields
	if err := patch.Apply(&m.RecordFields, raw); err != nil {
		return nil, err
	}
	if m.VisitDate.IsZero() {
		m.VisitDate = prev.VisitDate
	}
	m.normalize()
	if err := validateRecord(m.RecordFields); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, m.RecordFields, &prev); err != nil {
		return nil, err
	}
	m.StampUpdate(actor)
	if err := s.records.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("record_id", id.String()).Msg("medical record deleted")
	return nil
}
