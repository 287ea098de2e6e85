package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/internal/platform/validate"
	"github.com/medbase/medbase/pkg/pagination"
)

// Repos groups the stores the patient service writes to.
type Repos struct {
	Patients   PatientRepository
	Allergies  AllergyRepository
	History    HistoryRepository
	VitalSigns VitalSignRepository
	Documents  DocumentRepository
}

type Service struct {
	repos   Repos
	numbers *sequence.Generator
	now     func() time.Time
}

func NewService(repos Repos, numbers *sequence.Generator) *Service {
	return &Service{repos: repos, numbers: numbers, now: time.Now}
}

// -- Patients --

func (s *Service) validatePatient(f PatientFields) error {
	var dob error
	switch {
	case f.DateOfBirth.IsZero():
		dob = apperr.Validation("date_of_birth is required")
	case f.DateOfBirth.After(s.now()):
		dob = apperr.Validation("date_of_birth cannot be in the future")
	}
	return validate.First(
		validate.Required("first_name", f.FirstName),
		validate.Length("first_name", f.FirstName, 1, 100),
		validate.Required("last_name", f.LastName),
		validate.Length("last_name", f.LastName, 1, 100),
		dob,
		validate.Enum("gender", f.Gender, enum.Gender),
		validate.Enum("blood_type", f.BloodType, enum.BloodType),
		validate.OptionalEnum("marital_status", f.MaritalStatus, enum.MaritalStatus),
		validate.OptionalEmail("email", f.Email),
	)
}

func (s *Service) checkNationalID(ctx context.Context, nationalID *string, self uuid.UUID) error {
	if nationalID == nil || *nationalID == "" {
		return nil
	}
	other, err := s.repos.Patients.GetByNationalID(ctx, *nationalID)
	if taken, err := apperr.Exists(err); err != nil {
		return err
	} else if taken && other.ID != self {
		return apperr.Duplicate("national_id")
	}
	return nil
}

// CreatePatient stores a new patient under the next patient number.
func (s *Service) CreatePatient(ctx context.Context, f PatientFields, actor string) (*Patient, error) {
	if err := s.validatePatient(f); err != nil {
		return nil, err
	}
	if err := s.checkNationalID(ctx, f.NationalID, uuid.Nil); err != nil {
		return nil, err
	}

	p := &Patient{PatientFields: f}
	p.StampCreate(actor)
	_, err := s.numbers.Assign(ctx, sequence.Patient, func(ctx context.Context, number string) error {
		p.PatientNumber = number
		return s.repos.Patients.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("patient_number", p.PatientNumber).Msg("patient registered")
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repos.Patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByNumber(ctx context.Context, number string) (*Patient, error) {
	return s.repos.Patients.GetByNumber(ctx, number)
}

func (s *Service) GetPatientByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	return s.repos.Patients.GetByNationalID(ctx, nationalID)
}

func (s *Service) ListPatients(ctx context.Context, f PatientFilter, p pagination.Params, o query.Order) ([]*Patient, int, error) {
	return s.repos.Patients.List(ctx, f, p, o)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Patient, error) {
	p, err := s.repos.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&p.PatientFields, raw); err != nil {
		return nil, err
	}
	if err := s.validatePatient(p.PatientFields); err != nil {
		return nil, err
	}
	if err := s.checkNationalID(ctx, p.NationalID, p.ID); err != nil {
		return nil, err
	}
	p.StampUpdate(actor)
	if err := s.repos.Patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Patients.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("patient_id", id.String()).Msg("patient deleted")
	return nil
}

// requirePatient fails with "Patient not found" unless the parent exists.
func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	_, err := s.repos.Patients.GetByID(ctx, id)
	return err
}

// -- Allergies --

func validateAllergy(f AllergyFields) error {
	return validate.First(
		validate.Required("allergen", f.Allergen),
		validate.Length("allergen", f.Allergen, 1, 200),
		validate.OptionalEnum("severity", f.Severity, enum.Severity),
	)
}

func (s *Service) CreateAllergy(ctx context.Context, patientID uuid.UUID, f AllergyFields, actor string) (*Allergy, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if err := validateAllergy(f); err != nil {
		return nil, err
	}
	a := &Allergy{PatientID: patientID, AllergyFields: f}
	a.StampCreate(actor)
	if err := s.repos.Allergies.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAllergy(ctx context.Context, patientID, id uuid.UUID) (*Allergy, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repos.Allergies.Get(ctx, patientID, id)
}

func (s *Service) ListAllergies(ctx context.Context, patientID uuid.UUID, p pagination.Params, o query.Order) ([]*Allergy, int, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repos.Allergies.List(ctx, patientID, p, o)
}

func (s *Service) UpdateAllergy(ctx context.Context, patientID, id uuid.UUID, raw []byte, actor string) (*Allergy, error) {
	a, err := s.GetAllergy(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&a.AllergyFields, raw); err != nil {
		return nil, err
	}
	if err := validateAllergy(a.AllergyFields); err != nil {
		return nil, err
	}
	a.StampUpdate(actor)
	if err := s.repos.Allergies.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAllergy(ctx context.Context, patientID, id uuid.UUID) error {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return err
	}
	return s.repos.Allergies.Delete(ctx, patientID, id)
}

// -- Medical History --

func validateHistory(f HistoryFields) error {
	var order error
	if f.DiagnosisDate != nil && f.ResolutionDate != nil && f.ResolutionDate.Before(*f.DiagnosisDate) {
		order = apperr.Validation("resolution_date cannot be before diagnosis_date")
	}
	return validate.First(
		validate.Required("condition_name", f.ConditionName),
		validate.Length("condition_name", f.ConditionName, 1, 200),
		validate.OptionalEnum("severity", f.Severity, enum.Severity),
		order,
	)
}

func (s *Service) CreateHistory(ctx context.Context, patientID uuid.UUID, f HistoryFields, actor string) (*HistoryEntry, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if err := validateHistory(f); err != nil {
		return nil, err
	}
	h := &HistoryEntry{PatientID: patientID, HistoryFields: f}
	h.StampCreate(actor)
	if err := s.repos.History.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) GetHistory(ctx context.Context, patientID, id uuid.UUID) (*HistoryEntry, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repos.History.Get(ctx, patientID, id)
}

func (s *Service) ListHistory(ctx context.Context, patientID uuid.UUID, f HistoryFilter, p pagination.Params, o query.Order) ([]*HistoryEntry, int, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repos.History.List(ctx, patientID, f, p, o)
}

func (s *Service) UpdateHistory(ctx context.Context, patientID, id uuid.UUID, raw []byte, actor string) (*HistoryEntry, error) {
	h, err := s.GetHistory(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&h.HistoryFields, raw); err != nil {
		return nil, err
	}
	if err := validateHistory(h.HistoryFields); err != nil {
		return nil, err
	}
	h.StampUpdate(actor)
	if err := s.repos.History.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) DeleteHistory(ctx context.Context, patientID, id uuid.UUID) error {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return err
	}
	return s.repos.History.Delete(ctx, patientID, id)
}

// -- Vital Signs --

func validateVitalSign(f VitalSignFields) error {
	return validate.First(
		validate.DecimalRange("temperature_celsius", f.TemperatureCelsius, 30, 45),
		validate.OptionalIntRange("blood_pressure_systolic", f.BloodPressureSystolic, 50, 300),
		validate.OptionalIntRange("blood_pressure_diastolic", f.BloodPressureDiastolic, 30, 200),
		validate.OptionalIntRange("pulse_rate", f.PulseRate, 20, 300),
		validate.OptionalIntRange("respiratory_rate", f.RespiratoryRate, 5, 60),
		validate.DecimalRange("oxygen_saturation", f.OxygenSaturation, 0, 100),
		validate.DecimalRange("weight_kg", f.WeightKg, 0, 500),
		validate.DecimalRange("height_cm", f.HeightCm, 0, 300),
		validate.DecimalRange("bmi", f.BMI, 5, 100),
		validate.DecimalRange("blood_glucose", f.BloodGlucose, 0, 1000),
		validate.OptionalIntRange("pain_level", f.PainLevel, 0, 10),
	)
}

func (s *Service) CreateVitalSign(ctx context.Context, patientID uuid.UUID, f VitalSignFields, actor string) (*VitalSign, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if f.RecordedAt.IsZero() {
		f.RecordedAt = s.now().UTC()
	}
	f.DeriveBMI()
	if err := validateVitalSign(f); err != nil {
		return nil, err
	}
	v := &VitalSign{PatientID: patientID, VitalSignFields: f}
	v.StampCreate(actor)
	if err := s.repos.VitalSigns.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) GetVitalSign(ctx context.Context, patientID, id uuid.UUID) (*VitalSign, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repos.VitalSigns.Get(ctx, patientID, id)
}

func (s *Service) ListVitalSigns(ctx context.Context, patientID uuid.UUID, p pagination.Params, o query.Order) ([]*VitalSign, int, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repos.VitalSigns.List(ctx, patientID, p, o)
}

// UpdateVitalSign applies raw. A new weight or height without an explicit
// bmi recomputes the stored bmi.
func (s *Service) UpdateVitalSign(ctx context.Context, patientID, id uuid.UUID, raw []byte, actor string) (*VitalSign, error) {
	v, err := s.GetVitalSign(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&v.VitalSignFields, raw); err != nil {
		return nil, err
	}
	if patch.Touches(raw, "weight_kg", "height_cm") && !patch.Touches(raw, "bmi") {
		v.BMI = nil
		v.DeriveBMI()
	}
	if err := validateVitalSign(v.VitalSignFields); err != nil {
		return nil, err
	}
	v.StampUpdate(actor)
	if err := s.repos.VitalSigns.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) DeleteVitalSign(ctx context.Context, patientID, id uuid.UUID) error {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return err
	}
	return s.repos.VitalSigns.Delete(ctx, patientID, id)
}

// -- Documents --

func validateDocument(f DocumentFields) error {
	var hash error
	if f.FileHash != nil {
		hash = validate.Length("file_hash", *f.FileHash, 0, 128)
	}
	return validate.First(
		validate.Enum("document_type", f.DocumentType, enum.DocumentType),
		validate.Required("title", f.Title),
		validate.Length("title", f.Title, 1, 200),
		validate.Required("file_path", f.FilePath),
		validate.Length("file_path", f.FilePath, 1, 500),
		hash,
	)
}

func (s *Service) CreateDocument(ctx context.Context, patientID uuid.UUID, f DocumentFields, actor string) (*Document, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if err := validateDocument(f); err != nil {
		return nil, err
	}
	d := &Document{PatientID: patientID, DocumentFields: f}
	d.StampCreate(actor)
	if err := s.repos.Documents.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDocument(ctx context.Context, patientID, id uuid.UUID) (*Document, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repos.Documents.Get(ctx, patientID, id)
}

func (s *Service) ListDocuments(ctx context.Context, patientID uuid.UUID, f DocumentFilter, p pagination.Params, o query.Order) ([]*Document, int, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repos.Documents.List(ctx, patientID, f, p, o)
}

func (s *Service) UpdateDocument(ctx context.Context, patientID, id uuid.UUID, raw []byte, actor string) (*Document, error) {
	d, err := s.GetDocument(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&d.DocumentFields, raw); err != nil {
		return nil, err
	}
	if err := validateDocument(d.DocumentFields); err != nil {
		return nil, err
	}
	d.StampUpdate(actor)
	if err := s.repos.Documents.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDocument(ctx context.Context, patientID, id uuid.UUID) error {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return err
	}
	return s.repos.Documents.Delete(ctx, patientID, id)
}
