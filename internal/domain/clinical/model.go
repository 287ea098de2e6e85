package clinical

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/civil"
)

// RecordFields is the editable part of a medical record.
type RecordFields struct {
	PatientID               uuid.UUID   `json:"patient_id"`
	DoctorID                uuid.UUID   `json:"doctor_id"`
	AppointmentID           *uuid.UUID  `json:"appointment_id"`
	VisitDate               time.Time   `json:"visit_date"`
	ChiefComplaint          *string     `json:"chief_complaint"`
	HistoryOfPresentIllness *string     `json:"history_of_present_illness"`
	PhysicalExamination     *string     `json:"physical_examination"`
	Assessment              *string     `json:"assessment"`
	Diagnosis               []string    `json:"diagnosis"`
	ICDCodes                []string    `json:"icd_codes"`
	TreatmentPlan           *string     `json:"treatment_plan"`
	ProceduresPerformed     *string     `json:"procedures_performed"`
	FollowUpInstructions    *string     `json:"follow_up_instructions"`
	FollowUpDate            *civil.Date `json:"follow_up_date"`
	Notes                   *string     `json:"notes"`
}

// MedicalRecord is one visit note. RecordNumber is assigned on create.
type MedicalRecord struct {
	ID           uuid.UUID `json:"id"`
	RecordNumber string    `json:"record_number"`
	RecordFields
	db.Audit
}

type RecordFilter struct {
	PatientID     *uuid.UUID
	DoctorID      *uuid.UUID
	AppointmentID *uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
}

// normalize replaces nil lists with empty ones; the array columns are NOT NULL.
func (f *RecordFields) normalize() {
	if f.Diagnosis == nil {
		f.Diagnosis = []string{}
	}
	if f.ICDCodes == nil {
		f.ICDCodes = []string{}
	}
}
