package prescribing

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/civil"
)

const defaultStatus = "pending"

// -- Prescriptions --

type PrescriptionFields struct {
	PatientID        uuid.UUID   `json:"patient_id"`
	DoctorID         uuid.UUID   `json:"doctor_id"`
	AppointmentID    *uuid.UUID  `json:"appointment_id"`
	MedicalRecordID  *uuid.UUID  `json:"medical_record_id"`
	PrescriptionDate time.Time   `json:"prescription_date"`
	Diagnosis        *string     `json:"diagnosis"`
	Notes            *string     `json:"notes"`
	PharmacyNotes    *string     `json:"pharmacy_notes"`
	Status           string      `json:"status"`
	IsRefillable     bool        `json:"is_refillable"`
	RefillsRemaining int         `json:"refills_remaining"`
	ValidUntil       *civil.Date `json:"valid_until"`
}

func NewPrescriptionFields() PrescriptionFields {
	return PrescriptionFields{Status: defaultStatus}
}

// Prescription is a doctor's order for medicines. DispensedAt is stamped by
// the service the first time the status becomes dispensed.
type Prescription struct {
	ID                 uuid.UUID `json:"id"`
	PrescriptionNumber string    `json:"prescription_number"`
	PrescriptionFields
	DispensedAt *time.Time `json:"dispensed_at"`
	db.Audit
}

type PrescriptionFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// -- Items --

type ItemFields struct {
	MedicineID            *uuid.UUID `json:"medicine_id"`
	MedicineName          string     `json:"medicine_name"`
	Dosage                *string    `json:"dosage"`
	Frequency             *string    `json:"frequency"`
	Duration              *string    `json:"duration"`
	Quantity              int        `json:"quantity"`
	QuantityDispensed     int        `json:"quantity_dispensed"`
	RouteOfAdministration *string    `json:"route_of_administration"`
	Instructions          *string    `json:"instructions"`
	IsSubstitutionAllowed bool       `json:"is_substitution_allowed"`
	IsDispensed           bool       `json:"is_dispensed"`
	Notes                 *string    `json:"notes"`
}

func NewItemFields() ItemFields {
	return ItemFields{IsSubstitutionAllowed: true}
}

type Item struct {
	ID             uuid.UUID `json:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	ItemFields
	db.Audit
}

// -- Prescribed Devices --

type DeviceFields struct {
	PatientID          uuid.UUID   `json:"patient_id"`
	DoctorID           uuid.UUID   `json:"doctor_id"`
	DeviceID           uuid.UUID   `json:"device_id"`
	PrescriptionDate   time.Time   `json:"prescription_date"`
	IssueDate          *civil.Date `json:"issue_date"`
	ExpectedReturnDate *civil.Date `json:"expected_return_date"`
	ReturnDate         *civil.Date `json:"return_date"`
	IsPermanent        bool        `json:"is_permanent"`
	ConditionOnIssue   *string     `json:"condition_on_issue"`
	ConditionOnReturn  *string     `json:"condition_on_return"`
	Notes              *string     `json:"notes"`
}

type PrescribedDevice struct {
	ID uuid.UUID `json:"id"`
	DeviceFields
	db.Audit
}

type DeviceFilter struct {
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	DeviceID   *uuid.UUID
	IsReturned *bool
}
