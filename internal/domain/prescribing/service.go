package prescribing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/clinical"
	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/domain/inventory"
	"github.com/medbase/medbase/internal/domain/patient"
	"github.com/medbase/medbase/internal/domain/scheduling"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/internal/platform/validate"
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

type RecordFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*clinical.MedicalRecord, error)
}

type MedicineFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventory.Medicine, error)
}

type DeviceFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventory.MedicalDevice, error)
}

// Repos groups the stores the prescribing service writes to.
type Repos struct {
	Prescriptions PrescriptionRepository
	Items         ItemRepository
	Devices       DeviceRepository
}

// Refs resolves records owned by other modules.
type Refs struct {
	Patients     PatientFinder
	Doctors      DoctorFinder
	Appointments AppointmentFinder
	Records      RecordFinder
	Medicines    MedicineFinder
	Devices      DeviceFinder
}

type Service struct {
	repos   Repos
	refs    Refs
	numbers *sequence.Generator
	now     func() time.Time
}

func NewService(repos Repos, refs Refs, numbers *sequence.Generator) *Service {
	return &Service{repos: repos, refs: refs, numbers: numbers, now: time.Now}
}

func (s *Service) checkPeople(ctx context.Context, patientID, doctorID uuid.UUID) error {
	if _, err := s.refs.Patients.GetByID(ctx, patientID); err != nil {
		return apperr.Reference(err, "Patient not found")
	}
	if _, err := s.refs.Doctors.GetByID(ctx, doctorID); err != nil {
		return apperr.Reference(err, "Doctor not found")
	}
	return nil
}

// -- Prescriptions --

func validatePrescription(f PrescriptionFields) error {
	var until error
	if f.ValidUntil != nil && f.ValidUntil.Before(civil.DateOf(f.PrescriptionDate)) {
		until = apperr.Validation("valid_until cannot be before prescription_date")
	}
	return validate.First(
		validate.Enum("status", f.Status, enum.PrescriptionStatus),
		validate.NonNegative("refills_remaining", f.RefillsRemaining),
		until,
	)
}

func (s *Service) checkPrescription(ctx context.Context, f PrescriptionFields) error {
	if err := s.checkPeople(ctx, f.PatientID, f.DoctorID); err != nil {
		return err
	}
	if f.AppointmentID != nil {
		a, err := s.refs.Appointments.GetByID(ctx, *f.AppointmentID)
		if err != nil {
			return apperr.Reference(err, "Appointment not found")
		}
		if a.PatientID != f.PatientID {
			return apperr.Validation("Appointment belongs to another patient")
		}
	}
	if f.MedicalRecordID != nil {
		m, err := s.refs.Records.GetByID(ctx, *f.MedicalRecordID)
		if err != nil {
			return apperr.Reference(err, "Medical record not found")
		}
		if m.PatientID != f.PatientID {
			return apperr.Validation("Medical record belongs to another patient")
		}
	}
	return nil
}

// stampDispensed sets dispensed_at the first time status is dispensed.
func (s *Service) stampDispensed(p *Prescription) {
	if p.Status == enum.StatusDispensed && p.DispensedAt == nil {
		now := s.now().UTC()
		p.DispensedAt = &now
	}
}

// CreatePrescription stores a prescription under the next yearly number.
// prescription_date defaults to now.
func (s *Service) CreatePrescription(ctx context.Context, f PrescriptionFields, actor string) (*Prescription, error) {
	if f.PrescriptionDate.IsZero() {
		f.PrescriptionDate = s.now().UTC()
	}
	if err := validatePrescription(f); err != nil {
		return nil, err
	}
	if err := s.checkPrescription(ctx, f); err != nil {
		return nil, err
	}

	p := &Prescription{PrescriptionFields: f}
	s.stampDispensed(p)
	p.StampCreate(actor)
	_, err := s.numbers.Assign(ctx, sequence.Prescription, func(ctx context.Context, number string) error {
		p.PrescriptionNumber = number
		return s.repos.Prescriptions.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("prescription_number", p.PrescriptionNumber).
		Str("patient_id", p.PatientID.String()).
		Msg("prescription created")
	return p, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repos.Prescriptions.GetByID(ctx, id)
}

func (s *Service) GetPrescriptionByNumber(ctx context.Context, number string) (*Prescription, error) {
	return s.repos.Prescriptions.GetByNumber(ctx, number)
}

func (s *Service) ListPrescriptions(ctx context.Context, f PrescriptionFilter, p pagination.Params, o query.Order) ([]*Prescription, int, error) {
	return s.repos.Prescriptions.List(ctx, f, p, o)
}

func (s *Service) UpdatePrescription(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Prescription, error) {
	p, err := s.repos.Prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := p.PrescriptionFields
	if err := patch.Apply(&p.PrescriptionFields, raw); err != nil {
		return nil, err
	}
	if p.PrescriptionDate.IsZero() {
		p.PrescriptionDate = prev.PrescriptionDate
	}
	if err := validatePrescription(p.PrescriptionFields); err != nil {
		return nil, err
	}
	if err := s.checkPrescription(ctx, p.PrescriptionFields); err != nil {
		return nil, err
	}
	s.stampDispensed(p)
	p.StampUpdate(actor)
	if err := s.repos.Prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	if p.Status != prev.Status {
		zerolog.Ctx(ctx).Info().
			Str("prescription_number", p.PrescriptionNumber).
			Str("from", prev.Status).
			Str("to", p.Status).
			Msg("prescription status changed")
	}
	return p, nil
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Prescriptions.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("prescription_id", id.String()).Msg("prescription deleted")
	return nil
}

// -- Items --

func validateItem(f ItemFields) error {
	var dispensed error
	if f.QuantityDispensed > f.Quantity {
		dispensed = apperr.Validation("quantity_dispensed cannot exceed quantity")
	}
	return validate.First(
		validate.Required("medicine_name", f.MedicineName),
		validate.Length("medicine_name", f.MedicineName, 1, 200),
		validate.Positive("quantity", f.Quantity),
		validate.NonNegative("quantity_dispensed", f.QuantityDispensed),
		dispensed,
	)
}

// resolveMedicine checks the optional medicine reference and fills a blank
// medicine_name from the catalogue.
func (s *Service) resolveMedicine(ctx context.Context, f *ItemFields) error {
	if f.MedicineID == nil {
		return nil
	}
	m, err := s.refs.Medicines.GetByID(ctx, *f.MedicineID)
	if err != nil {
		return apperr.Reference(err, "Medicine not found")
	}
	if f.MedicineName == "" {
		f.MedicineName = m.Name
	}
	return nil
}

func (s *Service) requirePrescription(ctx context.Context, id uuid.UUID) error {
	_, err := s.repos.Prescriptions.GetByID(ctx, id)
	return err
}

func (s *Service) CreateItem(ctx context.Context, prescriptionID uuid.UUID, f ItemFields, actor string) (*Item, error) {
	if err := s.requirePrescription(ctx, prescriptionID); err != nil {
		return nil, err
	}
	if err := s.resolveMedicine(ctx, &f); err != nil {
		return nil, err
	}
	if err := validateItem(f); err != nil {
		return nil, err
	}
	it := &Item{PrescriptionID: prescriptionID, ItemFields: f}
	it.StampCreate(actor)
	if err := s.repos.Items.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) GetItem(ctx context.Context, prescriptionID, id uuid.UUID) (*Item, error) {
	if err := s.requirePrescription(ctx, prescriptionID); err != nil {
		return nil, err
	}
	return s.repos.Items.Get(ctx, prescriptionID, id)
}

func (s *Service) ListItems(ctx context.Context, prescriptionID uuid.UUID, p pagination.Params, o query.Order) ([]*Item, int, error) {
	if err := s.requirePrescription(ctx, prescriptionID); err != nil {
		return nil, 0, err
	}
	return s.repos.Items.List(ctx, prescriptionID, p, o)
}

func (s *Service) UpdateItem(ctx context.Context, prescriptionID, id uuid.UUID, raw []byte, actor string) (*Item, error) {
	it, err := s.GetItem(ctx, prescriptionID, id)
	if err != nil {
		return nil, err
	}
	prev := it.ItemFields
	if err := patch.Apply(&it.ItemFields, raw); err != nil {
		return nil, err
	}
	if it.MedicineID != nil && (prev.MedicineID == nil || *prev.MedicineID != *it.MedicineID) {
		if err := s.resolveMedicine(ctx, &it.ItemFields); err != nil {
			return nil, err
		}
	}
	if err := validateItem(it.ItemFields); err != nil {
		return nil, err
	}
	it.StampUpdate(actor)
	if err := s.repos.Items.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) DeleteItem(ctx context.Context, prescriptionID, id uuid.UUID) error {
	if err := s.requirePrescription(ctx, prescriptionID); err != nil {
		return err
	}
	return s.repos.Items.Delete(ctx, prescriptionID, id)
}

// -- Prescribed Devices --

func validateDevice(f DeviceFields) error {
	var dates error
	switch {
	case f.IssueDate != nil && f.ExpectedReturnDate != nil && f.ExpectedReturnDate.Before(*f.IssueDate):
		dates = apperr.Validation("expected_return_date cannot be before issue_date")
	case f.IssueDate != nil && f.ReturnDate != nil && f.ReturnDate.Before(*f.IssueDate):
		dates = apperr.Validation("return_date cannot be before issue_date")
	}
	return validate.First(
		validate.OptionalEnum("condition_on_issue", f.ConditionOnIssue, enum.EquipmentCondition),
		validate.OptionalEnum("condition_on_return", f.ConditionOnReturn, enum.EquipmentCondition),
		dates,
	)
}

func (s *Service) checkDevice(ctx context.Context, f DeviceFields) error {
	if err := s.checkPeople(ctx, f.PatientID, f.DoctorID); err != nil {
		return err
	}
	if _, err := s.refs.Devices.GetByID(ctx, f.DeviceID); err != nil {
		return apperr.Reference(err, "Medical device not found")
	}
	return nil
}

// PrescribeDevice records a device issued to a patient. prescription_date
// defaults to now.
func (s *Service) PrescribeDevice(ctx context.Context, f DeviceFields, actor string) (*PrescribedDevice, error) {
	if f.PrescriptionDate.IsZero() {
		f.PrescriptionDate = s.now().UTC()
	}
	if err := validateDevice(f); err != nil {
		return nil, err
	}
	if err := s.checkDevice(ctx, f); err != nil {
		return nil, err
	}
	d := &PrescribedDevice{DeviceFields: f}
	d.StampCreate(actor)
	if err := s.repos.Devices.Create(ctx, d); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("device_id", d.DeviceID.String()).
		Str("patient_id", d.PatientID.String()).
		Msg("device prescribed")
	return d, nil
}

func (s *Service) GetPrescribedDevice(ctx context.Context, id uuid.UUID) (*PrescribedDevice, error) {
	return s.repos.Devices.GetByID(ctx, id)
}

func (s *Service) ListPrescribedDevices(ctx context.Context, f DeviceFilter, p pagination.Params, o query.Order) ([]*PrescribedDevice, int, error) {
	return s.repos.Devices.List(ctx, f, p, o)
}

func (s *Service) UpdatePrescribedDevice(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*PrescribedDevice, error) {
	d, err := s.repos.Devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := d.DeviceFields
	if err := patch.Apply(&d.DeviceFields, raw); err != nil {
		return nil, err
	}
	if d.PrescriptionDate.IsZero() {
		d.PrescriptionDate = prev.PrescriptionDate
	}
	if err := validateDevice(d.DeviceFields); err != nil {
		return nil, err
	}
	if err := s.checkDevice(ctx, d.DeviceFields); err != nil {
		return nil, err
	}
	d.StampUpdate(actor)
	if err := s.repos.Devices.Update(ctx, d); err != nil {
		return nil, err
	}
	if prev.ReturnDate == nil && d.ReturnDate != nil {
		zerolog.Ctx(ctx).Info().Str("prescribed_device_id", d.ID.String()).Msg("device returned")
	}
	return d, nil
}

func (s *Service) DeletePrescribedDevice(ctx context.Context, id uuid.UUID) error {
	return s.repos.Devices.Delete(ctx, id)
}
