package donation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

// -- Donor Repository --

type donorRepoPG struct {
	pool db.Querier
}

func NewDonorRepo(pool db.Querier) DonorRepository {
	return &donorRepoPG{pool: pool}
}

func (r *donorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const donorCols = `id, donor_code, name, donor_type, contact_person, phone, alternative_phone, email,
	website, address, city, state, country, notes, is_active, ` + db.AuditCols

var donorConstraints = db.Constraints{"donors_donor_code_key": "donor_code"}

var donorSort = query.Sort{
	Columns: map[string]string{
		"donor_code": "donor_code",
		"name":       "name",
		"donor_type": "donor_type",
		"created_at": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: query.Asc,
}

func scanDonor(row pgx.Row) (*Donor, error) {
	var d Donor
	dest := []interface{}{&d.ID, &d.DonorCode, &d.Name, &d.DonorType, &d.ContactPerson, &d.Phone,
		&d.AlternativePhone, &d.Email, &d.Website, &d.Address, &d.City, &d.State, &d.Country,
		&d.Notes, &d.IsActive}
	if err := row.Scan(append(dest, d.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "donor", donorConstraints)
	}
	return &d, nil
}

func (r *donorRepoPG) Create(ctx context.Context, d *Donor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO donors (id, donor_code, name, donor_type, contact_person, phone, alternative_phone,
			email, website, address, city, state, country, notes, is_active, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`,
		d.ID, d.DonorCode, d.Name, d.DonorType, d.ContactPerson, d.Phone, d.AlternativePhone,
		d.Email, d.Website, d.Address, d.City, d.State, d.Country, d.Notes, d.IsActive, d.CreatedBy, d.UpdatedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err, "donor", donorConstraints)
}

func (r *donorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Donor, error) {
	return scanDonor(r.conn(ctx).QueryRow(ctx, `SELECT `+donorCols+` FROM donors WHERE id = $1`, id))
}

func (r *donorRepoPG) GetByCode(ctx context.Context, code string) (*Donor, error) {
	return scanDonor(r.conn(ctx).QueryRow(ctx, `SELECT `+donorCols+` FROM donors WHERE donor_code = $1`, code))
}

func (r *donorRepoPG) GetByEmail(ctx context.Context, email string) (*Donor, error) {
	return scanDonor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+donorCols+` FROM donors WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1`, email))
}

func (r *donorRepoPG) Update(ctx context.Context, d *Donor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE donors SET
			donor_code = $2, name = $3, donor_type = $4, contact_person = $5, phone = $6,
			alternative_phone = $7, email = $8, website = $9, address = $10, city = $11,
			state = $12, country = $13, notes = $14, is_active = $15,
			updated_by = $16, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.DonorCode, d.Name, d.DonorType, d.ContactPerson, d.Phone,
		d.AlternativePhone, d.Email, d.Website, d.Address, d.City,
		d.State, d.Country, d.Notes, d.IsActive, d.UpdatedBy,
	).Scan(&d.UpdatedAt)
	return db.Classify(err, "donor", donorConstraints)
}

func (r *donorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM donors WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "donor", nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("donor")
	}
	return nil
}

func (r *donorRepoPG) List(ctx context.Context, f DonorFilter, p pagination.Params, o query.Order) ([]*Donor, int, error) {
	b := query.New("donors", donorCols).
		Search(f.Search, "name", "donor_code", "contact_person").
		EqString("donor_type", f.DonorType)
	query.Eq(b, "is_active", f.IsActive)
	donorSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanDonor)
}

// -- Donation Repository --

type donationRepoPG struct {
	pool db.Querier
}

func NewDonationRepo(pool db.Querier) DonationRepository {
	return &donationRepoPG{pool: pool}
}

func (r *donationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const donationCols = `id, donation_number, donor_id, donation_type, donation_date, received_date,
	total_estimated_value, total_items_count, notes, ` + db.AuditCols

var donationConstraints = db.Constraints{"donations_donation_number_key": "donation_number"}

var donationSort = query.Sort{
	Columns: map[string]string{
		"donation_number":       "donation_number",
		"donation_date":         "donation_date",
		"received_date":         "received_date",
		"donation_type":         "donation_type",
		"total_estimated_value": "total_estimated_value",
		"created_at":            "created_at",
	},
	DefaultField: "donation_date",
	DefaultOrder: query.Desc,
}

func scanDonation(row pgx.Row) (*Donation, error) {
	var d Donation
	dest := []interface{}{&d.ID, &d.DonationNumber, &d.DonorID, &d.DonationType, &d.DonationDate,
		&d.ReceivedDate, &d.TotalEstimatedValue, &d.TotalItemsCount, &d.Notes}
	if err := row.Scan(append(dest, d.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "donation", donationConstraints)
	}
	return &d, nil
}

func (r *donationRepoPG) Create(ctx context.Context, d *Donation) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO donations (id, donation_number, donor_id, donation_type, donation_date, received_date,
			total_estimated_value, total_items_count, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		d.ID, d.DonationNumber, d.DonorID, d.DonationType, d.DonationDate, d.ReceivedDate,
		d.TotalEstimatedValue, d.TotalItemsCount, d.Notes, d.CreatedBy, d.UpdatedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err, "donation", donationConstraints)
}

func (r *donationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return scanDonation(r.conn(ctx).QueryRow(ctx, `SELECT `+donationCols+` FROM donations WHERE id = $1`, id))
}

func (r *donationRepoPG) GetByNumber(ctx context.Context, number string) (*Donation, error) {
	return scanDonation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+donationCols+` FROM donations WHERE donation_number = $1`, number))
}

func (r *donationRepoPG) Update(ctx context.Context, d *Donation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE donations SET
			donor_id = $2, donation_type = $3, donation_date = $4, received_date = $5,
			total_estimated_value = $6, total_items_count = $7, notes = $8,
			updated_by = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.DonorID, d.DonationType, d.DonationDate, d.ReceivedDate,
		d.TotalEstimatedValue, d.TotalItemsCount, d.Notes,
		d.UpdatedBy,
	).Scan(&d.UpdatedAt)
	return db.Classify(err, "donation", donationConstraints)
}

func (r *donationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM donations WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "donation", nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("donation")
	}
	return nil
}

func (r *donationRepoPG) List(ctx context.Context, f DonationFilter, p pagination.Params, o query.Order) ([]*Donation, int, error) {
	b := query.New("donations", donationCols).EqString("donation_type", f.DonationType)
	query.Eq(b, "donor_id", f.DonorID)
	query.Gte(b, "donation_date", f.DateFrom)
	query.Lte(b, "donation_date", f.DateTo)
	donationSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanDonation)
}

// -- Line Item Repositories --

// itemTable holds what the three line item stores share. Every read filters
// out soft-deleted rows.
type itemTable[T any] struct {
	pool   db.Querier
	table  string
	entity string
	cols   string
	scan   func(pgx.Row) (*T, error)
}

var itemSort = query.Sort{
	Columns: map[string]string{
		"quantity":   "quantity",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	DefaultField: "created_at",
	DefaultOrder: query.Asc,
}

func (t *itemTable[T]) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, t.pool)
}

func (t *itemTable[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.scan(t.conn(ctx).QueryRow(ctx,
		`SELECT `+t.cols+` FROM `+t.table+` WHERE id = $1 AND NOT is_deleted`, id))
}

func (t *itemTable[T]) SoftDelete(ctx context.Context, id uuid.UUID, actor string) error {
	if actor == "" {
		actor = db.SystemActor
	}
	tag, err := t.conn(ctx).Exec(ctx, `
		UPDATE `+t.table+` SET is_deleted = TRUE, updated_by = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, actor)
	if err != nil {
		return db.Classify(err, t.entity, nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(t.entity)
	}
	return nil
}

func (t *itemTable[T]) List(ctx context.Context, donationID uuid.UUID, p pagination.Params, o query.Order) ([]*T, int, error) {
	b := query.New(t.table, t.cols).Where("donation_id = $%d", donationID).Add("NOT is_deleted")
	itemSort.Apply(b, o)
	return query.Run(ctx, t.conn(ctx), b, p, t.scan)
}

func (t *itemTable[T]) ForDonation(ctx context.Context, donationID uuid.UUID) ([]*T, error) {
	rows, err := t.conn(ctx).Query(ctx, `
		SELECT `+t.cols+` FROM `+t.table+`
		WHERE donation_id = $1 AND NOT is_deleted
		ORDER BY created_at, id`, donationID)
	if err != nil {
		return nil, db.Classify(err, t.entity, nil)
	}
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		it, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// -- Medicine Items --

type medicineItemRepoPG struct {
	itemTable[MedicineItem]
}

func NewMedicineItemRepo(pool db.Querier) MedicineItemRepository {
	return &medicineItemRepoPG{itemTable[MedicineItem]{
		pool:   pool,
		table:  "donation_medicine_items",
		entity: "medicine item",
		cols: `id, donation_id, medicine_id, medicine_name, quantity, unit, manufacturing_date,
			expiry_date, estimated_unit_value, total_value, condition_notes, is_deleted, ` + db.AuditCols,
		scan: scanMedicineItem,
	}}
}

func scanMedicineItem(row pgx.Row) (*MedicineItem, error) {
	var it MedicineItem
	dest := []interface{}{&it.ID, &it.DonationID, &it.MedicineID, &it.MedicineName, &it.Quantity,
		&it.Unit, &it.ManufacturingDate, &it.ExpiryDate, &it.EstimatedUnitValue, &it.TotalValue,
		&it.ConditionNotes, &it.IsDeleted}
	if err := row.Scan(append(dest, it.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "medicine item", nil)
	}
	return &it, nil
}

func (r *medicineItemRepoPG) Create(ctx context.Context, it *MedicineItem) error {
	it.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO donation_medicine_items (id, donation_id, medicine_id, medicine_name, quantity, unit,
			manufacturing_date, expiry_date, estimated_unit_value, total_value, condition_notes,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		it.ID, it.DonationID, it.MedicineID, it.MedicineName, it.Quantity, it.Unit,
		it.ManufacturingDate, it.ExpiryDate, it.EstimatedUnitValue, it.TotalValue, it.ConditionNotes,
		it.CreatedBy, it.UpdatedBy,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	return db.Classify(err, r.entity, nil)
}

func (r *medicineItemRepoPG) Update(ctx context.Context, it *MedicineItem) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE donation_medicine_items SET
			medicine_id = $2, medicine_name = $3, quantity = $4, unit = $5, manufacturing_date = $6,
			expiry_date = $7, estimated_unit_value = $8, total_value = $9, condition_notes = $10,
			updated_by = $11, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING updated_at`,
		it.ID, it.MedicineID, it.MedicineName, it.Quantity, it.Unit, it.ManufacturingDate,
		it.ExpiryDate, it.EstimatedUnitValue, it.TotalValue, it.ConditionNotes,
		it.UpdatedBy,
	).Scan(&it.UpdatedAt)
	return db.Classify(err, r.entity, nil)
}

// -- Equipment Items --

type equipmentItemRepoPG struct {
	itemTable[EquipmentItem]
}

func NewEquipmentItemRepo(pool db.Querier) EquipmentItemRepository {
	return &equipmentItemRepoPG{itemTable[EquipmentItem]{
		pool:   pool,
		table:  "donation_equipment_items",
		entity: "equipment item",
		cols: `id, donation_id, equipment_id, equipment_name, model, serial_number, quantity,
			equipment_condition, estimated_value, condition_notes, is_deleted, ` + db.AuditCols,
		scan: scanEquipmentItem,
	}}
}

func scanEquipmentItem(row pgx.Row) (*EquipmentItem, error) {
	var it EquipmentItem
	dest := []interface{}{&it.ID, &it.DonationID, &it.EquipmentID, &it.EquipmentName, &it.Model,
		&it.SerialNumber, &it.Quantity, &it.EquipmentCondition, &it.EstimatedValue, &it.ConditionNotes,
		&it.IsDeleted}
	if err := row.Scan(append(dest, it.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "equipment item", nil)
	}
	return &it, nil
}

func (r *equipmentItemRepoPG) Create(ctx context.Context, it *EquipmentItem) error {
	it.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO donation_equipment_items (id, donation_id, equipment_id, equipment_name, model,
			serial_number, quantity, equipment_condition, estimated_value, condition_notes,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		it.ID, it.DonationID, it.EquipmentID, it.EquipmentName, it.Model,
		it.SerialNumber, it.Quantity, it.EquipmentCondition, it.EstimatedValue, it.ConditionNotes,
		it.CreatedBy, it.UpdatedBy,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	return db.Classify(err, r.entity, nil)
}

func (r *equipmentItemRepoPG) Update(ctx context.Context, it *EquipmentItem) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE donation_equipment_items SET
			equipment_id = $2, equipment_name = $3, model = $4, serial_number = $5, quantity = $6,
			equipment_condition = $7, estimated_value = $8, condition_notes = $9,
			updated_by = $10, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING updated_at`,
		it.ID, it.EquipmentID, it.EquipmentName, it.Model, it.SerialNumber, it.Quantity,
		it.EquipmentCondition, it.EstimatedValue, it.ConditionNotes,
		it.UpdatedBy,
	).Scan(&it.UpdatedAt)
	return db.Classify(err, r.entity, nil)
}

// -- Medical Device Items --

type deviceItemRepoPG struct {
	itemTable[DeviceItem]
}

func NewDeviceItemRepo(pool db.Querier) DeviceItemRepository {
	return &deviceItemRepoPG{itemTable[DeviceItem]{
		pool:   pool,
		table:  "donation_medical_device_items",
		entity: "medical device item",
		cols: `id, donation_id, device_id, device_name, model, serial_number, quantity,
			device_condition, estimated_value, condition_notes, is_deleted, ` + db.AuditCols,
		scan: scanDeviceItem,
	}}
}

func scanDeviceItem(row pgx.Row) (*DeviceItem, error) {
	var it DeviceItem
	dest := []interface{}{&it.ID, &it.DonationID, &it.DeviceID, &it.DeviceName, &it.Model,
		&it.SerialNumber, &it.Quantity, &it.DeviceCondition, &it.EstimatedValue, &it.ConditionNotes,
		&it.IsDeleted}
	if err := row.Scan(append(dest, it.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "medical device item", nil)
	}
	return &it, nil
}

func (r *deviceItemRepoPG) Create(ctx context.Context, it *DeviceItem) error {
	it.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO donation_medical_device_items (id, donation_id, device_id, device_name, model,
			serial_number, quantity, device_condition, estimated_value, condition_notes,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		it.ID, it.DonationID, it.DeviceID, it.DeviceName, it.Model,
		it.SerialNumber, it.Quantity, it.DeviceCondition, it.EstimatedValue, it.ConditionNotes,
		it.CreatedBy, it.UpdatedBy,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	return db.Classify(err, r.entity, nil)
}

func (r *deviceItemRepoPG) Update(ctx context.Context, it *DeviceItem) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE donation_medical_device_items SET
			device_id = $2, device_name = $3, model = $4, serial_number = $5, quantity = $6,
			device_condition = $7, estimated_value = $8, condition_notes = $9,
			updated_by = $10, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING updated_at`,
		it.ID, it.DeviceID, it.DeviceName, it.Model, it.SerialNumber, it.Quantity,
		it.DeviceCondition, it.EstimatedValue, it.ConditionNotes,
		it.UpdatedBy,
	).Scan(&it.UpdatedAt)
	return db.Classify(err, r.entity, nil)
}
