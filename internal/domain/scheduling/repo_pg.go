package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type appointmentRepoPG struct {
	pool db.Querier
}

func NewAppointmentRepo(pool db.Querier) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const appointmentCols = `id, appointment_number, patient_id, doctor_id, appointment_date, start_time,
	end_time, duration_minutes, appointment_type, status, chief_complaint, notes, is_follow_up,
	previous_appointment_id, ` + db.AuditCols

var appointmentConstraints = db.Constraints{
	"appointments_appointment_number_key": "appointment_number",
}

var appointmentSort = query.Sort{
	Columns: map[string]string{
		"appointment_date": "appointment_date, start_time",
		"start_time":       "start_time",
		"status":           "status",
		"appointment_type": "appointment_type",
		"created_at":       "created_at",
	},
	DefaultField: "appointment_date",
	DefaultOrder: query.Desc,
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	dest := []interface{}{&a.ID, &a.AppointmentNumber, &a.PatientID, &a.DoctorID, &a.AppointmentDate,
		&a.StartTime, &a.EndTime, &a.DurationMinutes, &a.AppointmentType, &a.Status, &a.ChiefComplaint,
		&a.Notes, &a.IsFollowUp, &a.PreviousAppointmentID}
	if err := row.Scan(append(dest, a.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "appointment", appointmentConstraints)
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, appointment_number, patient_id, doctor_id, appointment_date,
			start_time, end_time, duration_minutes, appointment_type, status, chief_complaint, notes,
			is_follow_up, previous_appointment_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		a.ID, a.AppointmentNumber, a.PatientID, a.DoctorID, a.AppointmentDate,
		a.StartTime, a.EndTime, a.DurationMinutes, a.AppointmentType, a.Status, a.ChiefComplaint, a.Notes,
		a.IsFollowUp, a.PreviousAppointmentID, a.CreatedBy, a.UpdatedBy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err, "appointment", appointmentConstraints)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) GetByNumber(ctx context.Context, number string) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE appointment_number = $1`, number))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET
			patient_id = $2, doctor_id = $3, appointment_date = $4, start_time = $5, end_time = $6,
			duration_minutes = $7, appointment_type = $8, status = $9, chief_complaint = $10,
			notes = $11, is_follow_up = $12, previous_appointment_id = $13,
			updated_by = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate, a.StartTime, a.EndTime,
		a.DurationMinutes, a.AppointmentType, a.Status, a.ChiefComplaint,
		a.Notes, a.IsFollowUp, a.PreviousAppointmentID, a.UpdatedBy,
	).Scan(&a.UpdatedAt)
	return db.Classify(err, "appointment", appointmentConstraints)
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "appointment", appointmentConstraints)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f AppointmentFilter, p pagination.Params, o query.Order) ([]*Appointment, int, error) {
	b := query.New("appointments", appointmentCols).EqString("status", f.Status)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "doctor_id", f.DoctorID)
	query.Eq(b, "appointment_date", f.Date)
	query.Gte(b, "appointment_date", f.DateFrom)
	query.Lte(b, "appointment_date", f.DateTo)
	appointmentSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanAppointment)
}
