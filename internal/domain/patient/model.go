package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/civil"
)

// PatientFields is the editable part of a patient.
type PatientFields struct {
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	DateOfBirth      civil.Date `json:"date_of_birth"`
	Gender           string     `json:"gender"`
	BloodType        string     `json:"blood_type"`
	NationalID       *string    `json:"national_id"`
	PassportNumber   *string    `json:"passport_number"`
	Phone            *string    `json:"phone"`
	AlternativePhone *string    `json:"alternative_phone"`
	Email            *string    `json:"email"`
	Address          *string    `json:"address"`
	City             *string    `json:"city"`
	Region           *string    `json:"region"`
	Country          string     `json:"country"`
	Occupation       *string    `json:"occupation"`
	MaritalStatus    *string    `json:"marital_status"`
	Notes            *string    `json:"notes"`
}

// NewPatientFields returns fields carrying the column defaults.
func NewPatientFields() PatientFields {
	return PatientFields{BloodType: enum.DefaultBloodType, Country: enum.DefaultCountry}
}

// Patient maps to the patients table. PatientNumber is assigned on create
// and never changes.
type Patient struct {
	ID            uuid.UUID `json:"id"`
	PatientNumber string    `json:"patient_number"`
	PatientFields
	db.Audit
}

type PatientFilter struct {
	Search    string
	Gender    string
	BloodType string
}

// -- Allergies --

type AllergyFields struct {
	Allergen string  `json:"allergen"`
	Reaction *string `json:"reaction"`
	Severity *string `json:"severity"`
	Notes    *string `json:"notes"`
}

type Allergy struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	AllergyFields
	db.Audit
}

// -- Medical History --

type HistoryFields struct {
	ConditionName  string      `json:"condition_name"`
	ICDCode        *string     `json:"icd_code"`
	DiagnosisDate  *civil.Date `json:"diagnosis_date"`
	ResolutionDate *civil.Date `json:"resolution_date"`
	IsChronic      bool        `json:"is_chronic"`
	IsCurrent      bool        `json:"is_current"`
	Severity       *string     `json:"severity"`
	Notes          *string     `json:"notes"`
}

func NewHistoryFields() HistoryFields {
	return HistoryFields{IsCurrent: true}
}

type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	HistoryFields
	db.Audit
}

type HistoryFilter struct {
	CurrentOnly bool
}

// -- Vital Signs --

type VitalSignFields struct {
	AppointmentID          *uuid.UUID       `json:"appointment_id"`
	RecordedAt             time.Time        `json:"recorded_at"`
	TemperatureCelsius     *decimal.Decimal `json:"temperature_celsius"`
	BloodPressureSystolic  *int             `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int             `json:"blood_pressure_diastolic"`
	PulseRate              *int             `json:"pulse_rate"`
	RespiratoryRate        *int             `json:"respiratory_rate"`
	OxygenSaturation       *decimal.Decimal `json:"oxygen_saturation"`
	WeightKg               *decimal.Decimal `json:"weight_kg"`
	HeightCm               *decimal.Decimal `json:"height_cm"`
	BMI                    *decimal.Decimal `json:"bmi"`
	BloodGlucose           *decimal.Decimal `json:"blood_glucose"`
	PainLevel              *int             `json:"pain_level"`
	Notes                  *string          `json:"notes"`
}

type VitalSign struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	VitalSignFields
	db.Audit
}

var hundred = decimal.NewFromInt(100)

// DeriveBMI fills BMI from weight and height when it is unset and both
// measurements are present.
func (v *VitalSignFields) DeriveBMI() {
	if v.BMI != nil || v.WeightKg == nil || v.HeightCm == nil || !v.HeightCm.IsPositive() {
		return
	}
	m := v.HeightCm.Div(hundred)
	bmi := v.WeightKg.Div(m.Mul(m)).Round(2)
	v.BMI = &bmi
}

// -- Documents --

type DocumentFields struct {
	DocumentType    string      `json:"document_type"`
	Title           string      `json:"title"`
	Description     *string     `json:"description"`
	FilePath        string      `json:"file_path"`
	FileHash        *string     `json:"file_hash"`
	DocumentDate    *civil.Date `json:"document_date"`
	ExpiryDate      *civil.Date `json:"expiry_date"`
	MedicalRecordID *uuid.UUID  `json:"medical_record_id"`
	AppointmentID   *uuid.UUID  `json:"appointment_id"`
	Notes           *string     `json:"notes"`
}

type Document struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	UploadDate time.Time `json:"upload_date"`
	DocumentFields
	db.Audit
}

type DocumentFilter struct {
	DocumentType string
}
