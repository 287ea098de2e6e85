package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool db.Querier
}

func NewPatientRepo(pool db.Querier) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, patient_number, first_name, last_name, date_of_birth, gender, blood_type,
	national_id, passport_number, phone, alternative_phone, email, address, city, region, country,
	occupation, marital_status, notes, ` + db.AuditCols

var patientConstraints = db.Constraints{
	"patients_patient_number_key": "patient_number",
	"patients_national_id_key":    "national_id",
}

var patientSort = query.Sort{
	Columns: map[string]string{
		"patient_number": "patient_number",
		"first_name":     "first_name",
		"last_name":      "last_name, first_name",
		"date_of_birth":  "date_of_birth",
		"created_at":     "created_at",
	},
	DefaultField: "last_name",
	DefaultOrder: query.Asc,
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	dest := []interface{}{&p.ID, &p.PatientNumber, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.Gender, &p.BloodType, &p.NationalID, &p.PassportNumber, &p.Phone, &p.AlternativePhone,
		&p.Email, &p.Address, &p.City, &p.Region, &p.Country, &p.Occupation, &p.MaritalStatus, &p.Notes}
	if err := row.Scan(append(dest, p.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "patient", patientConstraints)
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, patient_number, first_name, last_name, date_of_birth, gender,
			blood_type, national_id, passport_number, phone, alternative_phone, email, address,
			city, region, country, occupation, marital_status, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientNumber, p.FirstName, p.LastName, p.DateOfBirth, p.Gender,
		p.BloodType, p.NationalID, p.PassportNumber, p.Phone, p.AlternativePhone, p.Email, p.Address,
		p.City, p.Region, p.Country, p.Occupation, p.MaritalStatus, p.Notes, p.CreatedBy, p.UpdatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, "patient", patientConstraints)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByNumber(ctx context.Context, number string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_number = $1`, number))
}

func (r *patientRepoPG) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE national_id = $1`, nationalID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET
			first_name = $2, last_name = $3, date_of_birth = $4, gender = $5, blood_type = $6,
			national_id = $7, passport_number = $8, phone = $9, alternative_phone = $10, email = $11,
			address = $12, city = $13, region = $14, country = $15, occupation = $16,
			marital_status = $17, notes = $18, updated_by = $19, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.BloodType,
		p.NationalID, p.PassportNumber, p.Phone, p.AlternativePhone, p.Email,
		p.Address, p.City, p.Region, p.Country, p.Occupation,
		p.MaritalStatus, p.Notes, p.UpdatedBy,
	).Scan(&p.UpdatedAt)
	return db.Classify(err, "patient", patientConstraints)
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "patient", patientConstraints)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, f PatientFilter, p pagination.Params, o query.Order) ([]*Patient, int, error) {
	b := query.New("patients", patientCols).
		Search(f.Search, "patient_number", "first_name", "last_name", "phone", "email").
		EqString("gender", f.Gender).
		EqString("blood_type", f.BloodType)
	patientSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanPatient)
}

// deleteChild removes one row of a patient sub-resource table.
func deleteChild(ctx context.Context, q db.Querier, table, entity string, patientID, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND patient_id = $2`, id, patientID)
	if err != nil {
		return db.Classify(err, entity, nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

// -- Allergy Repository --

type allergyRepoPG struct {
	pool db.Querier
}

func NewAllergyRepo(pool db.Querier) AllergyRepository {
	return &allergyRepoPG{pool: pool}
}

func (r *allergyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const allergyCols = `id, patient_id, allergen, reaction, severity, notes, ` + db.AuditCols

var allergySort = query.Sort{
	Columns: map[string]string{
		"allergen":   "allergen",
		"severity":   "severity",
		"created_at": "created_at",
	},
	DefaultField: "created_at",
	DefaultOrder: query.Desc,
}

func scanAllergy(row pgx.Row) (*Allergy, error) {
	var a Allergy
	dest := []interface{}{&a.ID, &a.PatientID, &a.Allergen, &a.Reaction, &a.Severity, &a.Notes}
	if err := row.Scan(append(dest, a.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "allergy", nil)
	}
	return &a, nil
}

func (r *allergyRepoPG) Create(ctx context.Context, a *Allergy) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_allergies (id, patient_id, allergen, reaction, severity, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.Allergen, a.Reaction, a.Severity, a.Notes, a.CreatedBy, a.UpdatedBy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err, "allergy", nil)
}

func (r *allergyRepoPG) Get(ctx context.Context, patientID, id uuid.UUID) (*Allergy, error) {
	return scanAllergy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allergyCols+` FROM patient_allergies WHERE id = $1 AND patient_id = $2`, id, patientID))
}

func (r *allergyRepoPG) Update(ctx context.Context, a *Allergy) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_allergies SET
			allergen = $3, reaction = $4, severity = $5, notes = $6, updated_by = $7, updated_at = NOW()
		WHERE id = $1 AND patient_id = $2
		RETURNING updated_at`,
		a.ID, a.PatientID, a.Allergen, a.Reaction, a.Severity, a.Notes, a.UpdatedBy,
	).Scan(&a.UpdatedAt)
	return db.Classify(err, "allergy", nil)
}

func (r *allergyRepoPG) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	return deleteChild(ctx, r.conn(ctx), "patient_allergies", "allergy", patientID, id)
}

func (r *allergyRepoPG) List(ctx context.Context, patientID uuid.UUID, p pagination.Params, o query.Order) ([]*Allergy, int, error) {
	b := query.New("patient_allergies", allergyCols).Where("patient_id = $%d", patientID)
	allergySort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanAllergy)
}

// -- Medical History Repository --

type historyRepoPG struct {
	pool db.Querier
}

func NewHistoryRepo(pool db.Querier) HistoryRepository {
	return &historyRepoPG{pool: pool}
}

func (r *historyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const historyCols = `id, patient_id, condition_name, icd_code, diagnosis_date, resolution_date,
	is_chronic, is_current, severity, notes, ` + db.AuditCols

var historySort = query.Sort{
	Columns: map[string]string{
		"condition_name": "condition_name",
		"diagnosis_date": "diagnosis_date",
		"created_at":     "created_at",
	},
	DefaultField: "diagnosis_date",
	DefaultOrder: query.Desc,
}

func scanHistory(row pgx.Row) (*HistoryEntry, error) {
	var h HistoryEntry
	dest := []interface{}{&h.ID, &h.PatientID, &h.ConditionName, &h.ICDCode, &h.DiagnosisDate,
		&h.ResolutionDate, &h.IsChronic, &h.IsCurrent, &h.Severity, &h.Notes}
	if err := row.Scan(append(dest, h.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "medical history entry", nil)
	}
	return &h, nil
}

func (r *historyRepoPG) Create(ctx context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_medical_history (id, patient_id, condition_name, icd_code, diagnosis_date,
			resolution_date, is_chronic, is_current, severity, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		h.ID, h.PatientID, h.ConditionName, h.ICDCode, h.DiagnosisDate,
		h.ResolutionDate, h.IsChronic, h.IsCurrent, h.Severity, h.Notes, h.CreatedBy, h.UpdatedBy,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	return db.Classify(err, "medical history entry", nil)
}

func (r *historyRepoPG) Get(ctx context.Context, patientID, id uuid.UUID) (*HistoryEntry, error) {
	return scanHistory(r.conn(ctx).QueryRow(ctx,
		`SELECT `+historyCols+` FROM patient_medical_history WHERE id = $1 AND patient_id = $2`, id, patientID))
}

func (r *historyRepoPG) Update(ctx context.Context, h *HistoryEntry) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_medical_history SET
			condition_name = $3, icd_code = $4, diagnosis_date = $5, resolution_date = $6,
			is_chronic = $7, is_current = $8, severity = $9, notes = $10,
			updated_by = $11, updated_at = NOW()
		WHERE id = $1 AND patient_id = $2
		RETURNING updated_at`,
		h.ID, h.PatientID, h.ConditionName, h.ICDCode, h.DiagnosisDate, h.ResolutionDate,
		h.IsChronic, h.IsCurrent, h.Severity, h.Notes, h.UpdatedBy,
	).Scan(&h.UpdatedAt)
	return db.Classify(err, "medical history entry", nil)
}

func (r *historyRepoPG) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	return deleteChild(ctx, r.conn(ctx), "patient_medical_history", "medical history entry", patientID, id)
}

func (r *historyRepoPG) List(ctx context.Context, patientID uuid.UUID, f HistoryFilter, p pagination.Params, o query.Order) ([]*HistoryEntry, int, error) {
	b := query.New("patient_medical_history", historyCols).Where("patient_id = $%d", patientID)
	if f.CurrentOnly {
		b.Add("is_current")
	}
	historySort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanHistory)
}

// -- Vital Sign Repository --

type vitalSignRepoPG struct {
	pool db.Querier
}

func NewVitalSignRepo(pool db.Querier) VitalSignRepository {
	return &vitalSignRepoPG{pool: pool}
}

func (r *vitalSignRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const vitalSignCols = `id, patient_id, appointment_id, recorded_at, temperature_celsius,
	blood_pressure_systolic, blood_pressure_diastolic, pulse_rate, respiratory_rate,
	oxygen_saturation, weight_kg, height_cm, bmi, blood_glucose, pain_level, notes, ` + db.AuditCols

var vitalSignSort = query.Sort{
	Columns: map[string]string{
		"recorded_at": "recorded_at",
		"created_at":  "created_at",
	},
	DefaultField: "recorded_at",
	DefaultOrder: query.Desc,
}

func scanVitalSign(row pgx.Row) (*VitalSign, error) {
	var v VitalSign
	dest := []interface{}{&v.ID, &v.PatientID, &v.AppointmentID, &v.RecordedAt, &v.TemperatureCelsius,
		&v.BloodPressureSystolic, &v.BloodPressureDiastolic, &v.PulseRate, &v.RespiratoryRate,
		&v.OxygenSaturation, &v.WeightKg, &v.HeightCm, &v.BMI, &v.BloodGlucose, &v.PainLevel, &v.Notes}
	if err := row.Scan(append(dest, v.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "vital sign", nil)
	}
	return &v, nil
}

func (r *vitalSignRepoPG) Create(ctx context.Context, v *VitalSign) error {
	v.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vital_signs (id, patient_id, appointment_id, recorded_at, temperature_celsius,
			blood_pressure_systolic, blood_pressure_diastolic, pulse_rate, respiratory_rate,
			oxygen_saturation, weight_kg, height_cm, bmi, blood_glucose, pain_level, notes,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`,
		v.ID, v.PatientID, v.AppointmentID, v.RecordedAt, v.TemperatureCelsius,
		v.BloodPressureSystolic, v.BloodPressureDiastolic, v.PulseRate, v.RespiratoryRate,
		v.OxygenSaturation, v.WeightKg, v.HeightCm, v.BMI, v.BloodGlucose, v.PainLevel, v.Notes,
		v.CreatedBy, v.UpdatedBy,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return db.Classify(err, "vital sign", nil)
}

func (r *vitalSignRepoPG) Get(ctx context.Context, patientID, id uuid.UUID) (*VitalSign, error) {
	return scanVitalSign(r.conn(ctx).QueryRow(ctx,
		`SELECT `+vitalSignCols+` FROM vital_signs WHERE id = $1 AND patient_id = $2`, id, patientID))
}

func (r *vitalSignRepoPG) Update(ctx context.Context, v *VitalSign) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE vital_signs SET
			appointment_id = $3, recorded_at = $4, temperature_celsius = $5,
			blood_pressure_systolic = $6, blood_pressure_diastolic = $7, pulse_rate = $8,
			respiratory_rate = $9, oxygen_saturation = $10, weight_kg = $11, height_cm = $12,
			bmi = $13, blood_glucose = $14, pain_level = $15, notes = $16,
			updated_by = $17, updated_at = NOW()
		WHERE id = $1 AND patient_id = $2
		RETURNING updated_at`,
		v.ID, v.PatientID, v.AppointmentID, v.RecordedAt, v.TemperatureCelsius,
		v.BloodPressureSystolic, v.BloodPressureDiastolic, v.PulseRate,
		v.RespiratoryRate, v.OxygenSaturation, v.WeightKg, v.HeightCm,
		v.BMI, v.BloodGlucose, v.PainLevel, v.Notes, v.UpdatedBy,
	).Scan(&v.UpdatedAt)
	return db.Classify(err, "vital sign", nil)
}

func (r *vitalSignRepoPG) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	return deleteChild(ctx, r.conn(ctx), "vital_signs", "vital sign", patientID, id)
}

func (r *vitalSignRepoPG) List(ctx context.Context, patientID uuid.UUID, p pagination.Params, o query.Order) ([]*VitalSign, int, error) {
	b := query.New("vital_signs", vitalSignCols).Where("patient_id = $%d", patientID)
	vitalSignSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanVitalSign)
}

// -- Document Repository --

type documentRepoPG struct {
	pool db.Querier
}

func NewDocumentRepo(pool db.Querier) DocumentRepository {
	return &documentRepoPG{pool: pool}
}

func (r *documentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const documentCols = `id, patient_id, document_type, title, description, file_path, file_hash,
	upload_date, document_date, expiry_date, medical_record_id, appointment_id, notes, ` + db.AuditCols

var documentSort = query.Sort{
	Columns: map[string]string{
		"title":         "title",
		"document_type": "document_type",
		"document_date": "document_date",
		"upload_date":   "upload_date",
		"created_at":    "created_at",
	},
	DefaultField: "upload_date",
	DefaultOrder: query.Desc,
}

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	dest := []interface{}{&d.ID, &d.PatientID, &d.DocumentType, &d.Title, &d.Description, &d.FilePath,
		&d.FileHash, &d.UploadDate, &d.DocumentDate, &d.ExpiryDate, &d.MedicalRecordID,
		&d.AppointmentID, &d.Notes}
	if err := row.Scan(append(dest, d.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "document", nil)
	}
	return &d, nil
}

func (r *documentRepoPG) Create(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_documents (id, patient_id, document_type, title, description, file_path,
			file_hash, document_date, expiry_date, medical_record_id, appointment_id, notes,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING upload_date, created_at, updated_at`,
		d.ID, d.PatientID, d.DocumentType, d.Title, d.Description, d.FilePath,
		d.FileHash, d.DocumentDate, d.ExpiryDate, d.MedicalRecordID, d.AppointmentID, d.Notes,
		d.CreatedBy, d.UpdatedBy,
	).Scan(&d.UploadDate, &d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err, "document", nil)
}

func (r *documentRepoPG) Get(ctx context.Context, patientID, id uuid.UUID) (*Document, error) {
	return scanDocument(r.conn(ctx).QueryRow(ctx,
		`SELECT `+documentCols+` FROM patient_documents WHERE id = $1 AND patient_id = $2`, id, patientID))
}

func (r *documentRepoPG) Update(ctx context.Context, d *Document) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_documents SET
			document_type = $3, title = $4, description = $5, file_path = $6, file_hash = $7,
			document_date = $8, expiry_date = $9, medical_record_id = $10, appointment_id = $11,
			notes = $12, updated_by = $13, updated_at = NOW()
		WHERE id = $1 AND patient_id = $2
		RETURNING updated_at`,
		d.ID, d.PatientID, d.DocumentType, d.Title, d.Description, d.FilePath, d.FileHash,
		d.DocumentDate, d.ExpiryDate, d.MedicalRecordID, d.AppointmentID,
		d.Notes, d.UpdatedBy,
	).Scan(&d.UpdatedAt)
	return db.Classify(err, "document", nil)
}

func (r *documentRepoPG) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	return deleteChild(ctx, r.conn(ctx), "patient_documents", "document", patientID, id)
}

func (r *documentRepoPG) List(ctx context.Context, patientID uuid.UUID, f DocumentFilter, p pagination.Params, o query.Order) ([]*Document, int, error) {
	b := query.New("patient_documents", documentCols).
		Where("patient_id = $%d", patientID).
		EqString("document_type", f.DocumentType)
	documentSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanDocument)
}
