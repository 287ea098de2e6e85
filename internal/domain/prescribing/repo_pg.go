package prescribing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

// -- Prescription Repository --

type prescriptionRepoPG struct {
	pool db.Querier
}

func NewPrescriptionRepo(pool db.Querier) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const prescriptionCols = `id, prescription_number, patient_id, doctor_id, appointment_id, medical_record_id,
	prescription_date, diagnosis, notes, pharmacy_notes, status, dispensed_at, is_refillable,
	refills_remaining, valid_until, ` + db.AuditCols

var prescriptionConstraints = db.Constraints{
	"prescriptions_prescription_number_key": "prescription_number",
}

var prescriptionSort = query.Sort{
	Columns: map[string]string{
		"prescription_number": "prescription_number",
		"prescription_date":   "prescription_date",
		"status":              "status",
		"valid_until":         "valid_until",
		"created_at":          "created_at",
	},
	DefaultField: "prescription_date",
	DefaultOrder: query.Desc,
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	dest := []interface{}{&p.ID, &p.PrescriptionNumber, &p.PatientID, &p.DoctorID, &p.AppointmentID,
		&p.MedicalRecordID, &p.PrescriptionDate, &p.Diagnosis, &p.Notes, &p.PharmacyNotes, &p.Status,
		&p.DispensedAt, &p.IsRefillable, &p.RefillsRemaining, &p.ValidUntil}
	if err := row.Scan(append(dest, p.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "prescription", prescriptionConstraints)
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (id, prescription_number, patient_id, doctor_id, appointment_id,
			medical_record_id, prescription_date, diagnosis, notes, pharmacy_notes, status,
			dispensed_at, is_refillable, refills_remaining, valid_until, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`,
		p.ID, p.PrescriptionNumber, p.PatientID, p.DoctorID, p.AppointmentID,
		p.MedicalRecordID, p.PrescriptionDate, p.Diagnosis, p.Notes, p.PharmacyNotes, p.Status,
		p.DispensedAt, p.IsRefillable, p.RefillsRemaining, p.ValidUntil, p.CreatedBy, p.UpdatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, "prescription", prescriptionConstraints)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) GetByNumber(ctx context.Context, number string) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE prescription_number = $1`, number))
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE prescriptions SET
			patient_id = $2, doctor_id = $3, appointment_id = $4, medical_record_id = $5,
			prescription_date = $6, diagnosis = $7, notes = $8, pharmacy_notes = $9, status = $10,
			dispensed_at = $11, is_refillable = $12, refills_remaining = $13, valid_until = $14,
			updated_by = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.PatientID, p.DoctorID, p.AppointmentID, p.MedicalRecordID,
		p.PrescriptionDate, p.Diagnosis, p.Notes, p.PharmacyNotes, p.Status,
		p.DispensedAt, p.IsRefillable, p.RefillsRemaining, p.ValidUntil,
		p.UpdatedBy,
	).Scan(&p.UpdatedAt)
	return db.Classify(err, "prescription", prescriptionConstraints)
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "prescription", prescriptionConstraints)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription")
	}
	return nil
}

func (r *prescriptionRepoPG) List(ctx context.Context, f PrescriptionFilter, p pagination.Params, o query.Order) ([]*Prescription, int, error) {
	b := query.New("prescriptions", prescriptionCols).EqString("status", f.Status)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "doctor_id", f.DoctorID)
	query.Gte(b, "prescription_date", f.DateFrom)
	query.Lte(b, "prescription_date", f.DateTo)
	prescriptionSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanPrescription)
}

// -- Item Repository --

type itemRepoPG struct {
	pool db.Querier
}

func NewItemRepo(pool db.Querier) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const itemCols = `id, prescription_id, medicine_id, medicine_name, dosage, frequency, duration, quantity,
	quantity_dispensed, route_of_administration, instructions, is_substitution_allowed,
	is_dispensed, notes, ` + db.AuditCols

var itemSort = query.Sort{
	Columns: map[string]string{
		"medicine_name": "medicine_name",
		"quantity":      "quantity",
		"created_at":    "created_at",
	},
	DefaultField: "created_at",
	DefaultOrder: query.Asc,
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	dest := []interface{}{&it.ID, &it.PrescriptionID, &it.MedicineID, &it.MedicineName, &it.Dosage,
		&it.Frequency, &it.Duration, &it.Quantity, &it.QuantityDispensed, &it.RouteOfAdministration,
		&it.Instructions, &it.IsSubstitutionAllowed, &it.IsDispensed, &it.Notes}
	if err := row.Scan(append(dest, it.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "prescription item", nil)
	}
	return &it, nil
}

func (r *itemRepoPG) Create(ctx context.Context, it *Item) error {
	it.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription_items (id, prescription_id, medicine_id, medicine_name, dosage,
			frequency, duration, quantity, quantity_dispensed, route_of_administration, instructions,
			is_substitution_allowed, is_dispensed, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		it.ID, it.PrescriptionID, it.MedicineID, it.MedicineName, it.Dosage,
		it.Frequency, it.Duration, it.Quantity, it.QuantityDispensed, it.RouteOfAdministration, it.Instructions,
		it.IsSubstitutionAllowed, it.IsDispensed, it.Notes, it.CreatedBy, it.UpdatedBy,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	return db.Classify(err, "prescription item", nil)
}

func (r *itemRepoPG) Get(ctx context.Context, prescriptionID, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM prescription_items WHERE id = $1 AND prescription_id = $2`, id, prescriptionID))
}

func (r *itemRepoPG) Update(ctx context.Context, it *Item) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE prescription_items SET
			medicine_id = $3, medicine_name = $4, dosage = $5, frequency = $6, duration = $7,
			quantity = $8, quantity_dispensed = $9, route_of_administration = $10,
			instructions = $11, is_substitution_allowed = $12, is_dispensed = $13, notes = $14,
			updated_by = $15, updated_at = NOW()
		WHERE id = $1 AND prescription_id = $2
		RETURNING updated_at`,
		it.ID, it.PrescriptionID, it.MedicineID, it.MedicineName, it.Dosage, it.Frequency, it.Duration,
		it.Quantity, it.QuantityDispensed, it.RouteOfAdministration,
		it.Instructions, it.IsSubstitutionAllowed, it.IsDispensed, it.Notes,
		it.UpdatedBy,
	).Scan(&it.UpdatedAt)
	return db.Classify(err, "prescription item", nil)
}

func (r *itemRepoPG) Delete(ctx context.Context, prescriptionID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_items WHERE id = $1 AND prescription_id = $2`, id, prescriptionID)
	if err != nil {
		return db.Classify(err, "prescription item", nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription item")
	}
	return nil
}

func (r *itemRepoPG) List(ctx context.Context, prescriptionID uuid.UUID, p pagination.Params, o query.Order) ([]*Item, int, error) {
	b := query.New("prescription_items", itemCols).Where("prescription_id = $%d", prescriptionID)
	itemSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanItem)
}

// -- Prescribed Device Repository --

type deviceRepoPG struct {
	pool db.Querier
}

func NewDeviceRepo(pool db.Querier) DeviceRepository {
	return &deviceRepoPG{pool: pool}
}

func (r *deviceRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const deviceCols = `id, patient_id, doctor_id, device_id, prescription_date, issue_date,
	expected_return_date, return_date, is_permanent, condition_on_issue, condition_on_return,
	notes, ` + db.AuditCols

var deviceSort = query.Sort{
	Columns: map[string]string{
		"prescription_date":    "prescription_date",
		"issue_date":           "issue_date",
		"expected_return_date": "expected_return_date",
		"return_date":          "return_date",
		"created_at":           "created_at",
	},
	DefaultField: "prescription_date",
	DefaultOrder: query.Desc,
}

func scanDevice(row pgx.Row) (*PrescribedDevice, error) {
	var d PrescribedDevice
	dest := []interface{}{&d.ID, &d.PatientID, &d.DoctorID, &d.DeviceID, &d.PrescriptionDate,
		&d.IssueDate, &d.ExpectedReturnDate, &d.ReturnDate, &d.IsPermanent, &d.ConditionOnIssue,
		&d.ConditionOnReturn, &d.Notes}
	if err := row.Scan(append(dest, d.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "prescribed device", nil)
	}
	return &d, nil
}

func (r *deviceRepoPG) Create(ctx context.Context, d *PrescribedDevice) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescribed_devices (id, patient_id, doctor_id, device_id, prescription_date,
			issue_date, expected_return_date, return_date, is_permanent, condition_on_issue,
			condition_on_return, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		d.ID, d.PatientID, d.DoctorID, d.DeviceID, d.PrescriptionDate,
		d.IssueDate, d.ExpectedReturnDate, d.ReturnDate, d.IsPermanent, d.ConditionOnIssue,
		d.ConditionOnReturn, d.Notes, d.CreatedBy, d.UpdatedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err, "prescribed device", nil)
}

func (r *deviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PrescribedDevice, error) {
	return scanDevice(r.conn(ctx).QueryRow(ctx, `SELECT `+deviceCols+` FROM prescribed_devices WHERE id = $1`, id))
}

func (r *deviceRepoPG) Update(ctx context.Context, d *PrescribedDevice) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE prescribed_devices SET
			patient_id = $2, doctor_id = $3, device_id = $4, prescription_date = $5,
			issue_date = $6, expected_return_date = $7, return_date = $8, is_permanent = $9,
			condition_on_issue = $10, condition_on_return = $11, notes = $12,
			updated_by = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.PatientID, d.DoctorID, d.DeviceID, d.PrescriptionDate,
		d.IssueDate, d.ExpectedReturnDate, d.ReturnDate, d.IsPermanent,
		d.ConditionOnIssue, d.ConditionOnReturn, d.Notes,
		d.UpdatedBy,
	).Scan(&d.UpdatedAt)
	return db.Classify(err, "prescribed device", nil)
}

func (r *deviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescribed_devices WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "prescribed device", nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescribed device")
	}
	return nil
}

func (r *deviceRepoPG) List(ctx context.Context, f DeviceFilter, p pagination.Params, o query.Order) ([]*PrescribedDevice, int, error) {
	b := query.New("prescribed_devices", deviceCols).Null("return_date", f.IsReturned)
	query.Eq(b, "patient_id", f.PatientID)
	query.Eq(b, "doctor_id", f.DoctorID)
	query.Eq(b, "device_id", f.DeviceID)
	deviceSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanDevice)
}
