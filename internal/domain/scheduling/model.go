package scheduling

import (
	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/civil"
)

const defaultDurationMinutes = 30

// AppointmentFields is the editable part of an appointment.
type AppointmentFields struct {
	PatientID             uuid.UUID   `json:"patient_id"`
	DoctorID              uuid.UUID   `json:"doctor_id"`
	AppointmentDate       civil.Date  `json:"appointment_date"`
	StartTime             civil.Time  `json:"start_time"`
	EndTime               *civil.Time `json:"end_time"`
	DurationMinutes       int         `json:"duration_minutes"`
	AppointmentType       string      `json:"appointment_type"`
	Status                string      `json:"status"`
	ChiefComplaint        *string     `json:"chief_complaint"`
	Notes                 *string     `json:"notes"`
	IsFollowUp            bool        `json:"is_follow_up"`
	PreviousAppointmentID *uuid.UUID  `json:"previous_appointment_id"`
}

// NewAppointmentFields returns fields carrying the column defaults.
func NewAppointmentFields() AppointmentFields {
	return AppointmentFields{
		DurationMinutes: defaultDurationMinutes,
		AppointmentType: "consultation",
		Status:          "scheduled",
	}
}

type Appointment struct {
	ID                uuid.UUID `json:"id"`
	AppointmentNumber string    `json:"appointment_number"`
	AppointmentFields
	db.Audit
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	Date      *civil.Date
	DateFrom  *civil.Date
	DateTo    *civil.Date
}
