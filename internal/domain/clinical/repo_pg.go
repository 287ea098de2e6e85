package clinical

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type recordRepoPG struct {
	pool db.Querier
}

func NewRecordRepo(pool db.Querier) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const recordCols = `id, record_number, patient_id, doctor_id, appointment_id, visit_date, chief_complaint,
	history_of_present_illness, physical_examination, assessment, diagnosis, icd_codes, treatment_plan,
	procedures_performed, follow_up_instructions, follow_up_date, notes, ` + db.AuditCols

var recordConstraints = db.Constraints{
	"medical_records_record_number_key": "record_number",
}

var recordSort = query.Sort{
	Columns: map[string]string{
		"visit_date":     "visit_date",
		"record_number":  "record_number",
		"follow_up_date": "follow_up_date",
		"created_at":     "created_at",
	},
	DefaultField: "visit_date",
	DefaultOrder: query.Desc,
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	dest := []interface{}{&m.ID, &m.RecordNumber, &m.PatientID, &m.DoctorID, &m.AppointmentID, &m.VisitDate,
		&m.ChiefComplaint, &m.HistoryOfPresentIllness, &m.PhysicalExamination, &m.Assessment,
		&m.Diagnosis, &m.ICDCodes, &m.TreatmentPlan, &m.ProceduresPerformed, &m.FollowUpInstructions,
		&m.FollowUpDate, &m.Notes}
	if err := row.Scan(append(dest, m.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "medical record", recordConstraints)
	}
	return &m, nil
}

func (r *recordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_records (id, record_number, patient_id, doctor_id, appointment_id, visit_date,
			chief_complaint, history_of_present_illness, physical_examination, assessment, diagnosis,
			icd_codes, treatment_plan, procedures_performed, follow_up_instructions, follow_up_date,
			notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at`,
		m.ID, m.RecordNumber, m.PatientID, m.DoctorID, m.AppointmentID, m.VisitDate,
		m.ChiefComplaint, m.HistoryOfPresentIllness, m.PhysicalExamination, m.Assessment, m.Diagnosis,
		m.ICDCodes, m.TreatmentPlan, m.ProceduresPerformed, m.FollowUpInstructions, m.FollowUpDate,
		m.Notes, m.CreatedBy, m.UpdatedBy,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return db.Classify(err, "medical record", recordConstraints)
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
}

func (r *recordRepoPG) GetByNumber(ctx context.Context, number string) (*MedicalRecord, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE record_number = $1`, number))
}

func (r *recordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_records SET
			patient_id = $2, doctor_id = $3, appointment_id = $4, visit_date = $5, chief_complaint = $6,
			history_of_present_illness = $7, physical_examination = $8, assessment = $9,
			diagnosis = $10, icd_codes = $11, treatment_plan = $12, procedures_performed = $13,
			follow_up_instructions = $14, follow_up_date = $15, notes = $16,
			updated_by = $17, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.PatientID, m.DoctorID, m.AppointmentID, m.VisitDate, m.ChiefComplaint,
		m.HistoryOfPresentIllness, m.PhysicalExamination, m.Assessment,
		m.Diagnosis, m.ICDCodes, m.TreatmentPlan, m.ProceduresPerformed,
		m.FollowUpInstructions, m.FollowUpDate, m.Notes, m.UpdatedBy,
	).Scan(&m.UpdatedAt)
	return db.Classify(err, "medical record", recordConstraints)
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "medical record", recordConstraints)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medical record")
	}
	return nil
}

func (r *recordRepoPG) List(ctx context.Context, f RecordFilter, p pagination.Params, o query.Order) ([]*MedicalRecord, int, error) {
	b := query.New("medical_records", recordCols)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "doctor_id", f.DoctorID)
	query.Eq(b, "appointment_id", f.AppointmentID)
	query.Gte(b, "visit_date", f.DateFrom)
	query.Lte(b, "visit_date", f.DateTo)
	recordSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanRecord)
}
