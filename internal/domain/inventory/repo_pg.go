package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

func deleteByID(ctx context.Context, q db.Querier, table, entity string, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, entity, nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

// -- Category Repository --

type categoryRepoPG struct {
	pool        db.Querier
	kind        CategoryKind
	constraints db.Constraints
}

// NewCategoryRepo returns the store for one category table.
func NewCategoryRepo(pool db.Querier, kind CategoryKind) CategoryRepository {
	return &categoryRepoPG{
		pool:        pool,
		kind:        kind,
		constraints: db.Constraints{kind.Table + "_code_key": "code"},
	}
}

func (r *categoryRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const categoryCols = `id, name, code, description, parent_category_id, is_active, ` + db.AuditCols

var categorySort = query.Sort{
	Columns: map[string]string{
		"name":       "name",
		"code":       "code",
		"created_at": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: query.Asc,
}

func (r *categoryRepoPG) scan(row pgx.Row) (*Category, error) {
	var c Category
	dest := []interface{}{&c.ID, &c.Name, &c.Code, &c.Description, &c.ParentCategoryID, &c.IsActive}
	if err := row.Scan(append(dest, c.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, r.kind.Entity, r.constraints)
	}
	return &c, nil
}

func (r *categoryRepoPG) Create(ctx context.Context, c *Category) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO `+r.kind.Table+` (id, name, code, description, parent_category_id, is_active, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Code, c.Description, c.ParentCategoryID, c.IsActive, c.CreatedBy, c.UpdatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.Classify(err, r.kind.Entity, r.constraints)
}

func (r *categoryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+categoryCols+` FROM `+r.kind.Table+` WHERE id = $1`, id))
}

func (r *categoryRepoPG) GetByCode(ctx context.Context, code string) (*Category, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+categoryCols+` FROM `+r.kind.Table+` WHERE code = $1`, code))
}

func (r *categoryRepoPG) Update(ctx context.Context, c *Category) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE `+r.kind.Table+` SET
			name = $2, code = $3, description = $4, parent_category_id = $5, is_active = $6,
			updated_by = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Code, c.Description, c.ParentCategoryID, c.IsActive, c.UpdatedBy,
	).Scan(&c.UpdatedAt)
	return db.Classify(err, r.kind.Entity, r.constraints)
}

func (r *categoryRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.conn(ctx), r.kind.Table, r.kind.Entity, id)
}

func (r *categoryRepoPG) List(ctx context.Context, f CategoryFilter, p pagination.Params, o query.Order) ([]*Category, int, error) {
	b := query.New(r.kind.Table, categoryCols).Search(f.Search, "name", "code")
	query.Eq(b, "is_active", f.IsActive)
	categorySort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, r.scan)
}

// -- Medicine Repository --

type medicineRepoPG struct {
	pool db.Querier
}

func NewMedicineRepo(pool db.Querier) MedicineRepository {
	return &medicineRepoPG{pool: pool}
}

func (r *medicineRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const medicineCols = `id, code, name, generic_name, brand_name, category_id, manufacturer, dosage_form,
	strength, unit, package_size, barcode, purchase_price, description, indications,
	contraindications, side_effects, storage_conditions, requires_prescription,
	is_controlled_substance, is_active, ` + db.AuditCols

var medicineConstraints = db.Constraints{
	"medicines_code_key":    "code",
	"medicines_barcode_key": "barcode",
}

var medicineSort = query.Sort{
	Columns: map[string]string{
		"code":           "code",
		"name":           "name",
		"generic_name":   "generic_name",
		"dosage_form":    "dosage_form",
		"purchase_price": "purchase_price",
		"created_at":     "created_at",
	},
	DefaultField: "name",
	DefaultOrder: query.Asc,
}

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	dest := []interface{}{&m.ID, &m.Code, &m.Name, &m.GenericName, &m.BrandName, &m.CategoryID,
		&m.Manufacturer, &m.DosageForm, &m.Strength, &m.Unit, &m.PackageSize, &m.Barcode,
		&m.PurchasePrice, &m.Description, &m.Indications, &m.Contraindications, &m.SideEffects,
		&m.StorageConditions, &m.RequiresPrescription, &m.IsControlledSubstance, &m.IsActive}
	if err := row.Scan(append(dest, m.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "medicine", medicineConstraints)
	}
	return &m, nil
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicines (id, code, name, generic_name, brand_name, category_id, manufacturer,
			dosage_form, strength, unit, package_size, barcode, purchase_price, description,
			indications, contraindications, side_effects, storage_conditions, requires_prescription,
			is_controlled_substance, is_active, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING created_at, updated_at`,
		m.ID, m.Code, m.Name, m.GenericName, m.BrandName, m.CategoryID, m.Manufacturer,
		m.DosageForm, m.Strength, m.Unit, m.PackageSize, m.Barcode, m.PurchasePrice, m.Description,
		m.Indications, m.Contraindications, m.SideEffects, m.StorageConditions, m.RequiresPrescription,
		m.IsControlledSubstance, m.IsActive, m.CreatedBy, m.UpdatedBy,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return db.Classify(err, "medicine", medicineConstraints)
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

func (r *medicineRepoPG) GetByCode(ctx context.Context, code string) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE code = $1`, code))
}

func (r *medicineRepoPG) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE barcode = $1`, barcode))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medicines SET
			code = $2, name = $3, generic_name = $4, brand_name = $5, category_id = $6,
			manufacturer = $7, dosage_form = $8, strength = $9, unit = $10, package_size = $11,
			barcode = $12, purchase_price = $13, description = $14, indications = $15,
			contraindications = $16, side_effects = $17, storage_conditions = $18,
			requires_prescription = $19, is_controlled_substance = $20, is_active = $21,
			updated_by = $22, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.Code, m.Name, m.GenericName, m.BrandName, m.CategoryID,
		m.Manufacturer, m.DosageForm, m.Strength, m.Unit, m.PackageSize,
		m.Barcode, m.PurchasePrice, m.Description, m.Indications,
		m.Contraindications, m.SideEffects, m.StorageConditions,
		m.RequiresPrescription, m.IsControlledSubstance, m.IsActive, m.UpdatedBy,
	).Scan(&m.UpdatedAt)
	return db.Classify(err, "medicine", medicineConstraints)
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.conn(ctx), "medicines", "medicine", id)
}

func (r *medicineRepoPG) List(ctx context.Context, f MedicineFilter, p pagination.Params, o query.Order) ([]*Medicine, int, error) {
	b := query.New("medicines", medicineCols).
		Search(f.Search, "name", "generic_name", "brand_name").
		EqString("dosage_form", f.DosageForm)
	query.Eq(b, "category_id", f.CategoryID)
	query.Eq(b, "is_active", f.IsActive)
	medicineSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanMedicine)
}

// -- Equipment Repository --

type equipmentRepoPG struct {
	pool db.Querier
}

func NewEquipmentRepo(pool db.Querier) EquipmentRepository {
	return &equipmentRepoPG{pool: pool}
}

func (r *equipmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const equipmentCols = `id, asset_code, name, category_id, model, manufacturer, serial_number, barcode,
	description, purchase_date, purchase_price, is_donation, donor_id, donation_id,
	equipment_condition, is_portable, is_active, ` + db.AuditCols

var equipmentConstraints = db.Constraints{
	"equipment_asset_code_key": "asset_code",
}

var equipmentSort = query.Sort{
	Columns: map[string]string{
		"asset_code":          "asset_code",
		"name":                "name",
		"equipment_condition": "equipment_condition",
		"purchase_date":       "purchase_date",
		"created_at":          "created_at",
	},
	DefaultField: "name",
	DefaultOrder: query.Asc,
}

func scanEquipment(row pgx.Row) (*Equipment, error) {
	var e Equipment
	dest := []interface{}{&e.ID, &e.AssetCode, &e.Name, &e.CategoryID, &e.Model, &e.Manufacturer,
		&e.SerialNumber, &e.Barcode, &e.Description, &e.PurchaseDate, &e.PurchasePrice,
		&e.IsDonation, &e.DonorID, &e.DonationID, &e.EquipmentCondition, &e.IsPortable, &e.IsActive}
	if err := row.Scan(append(dest, e.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "equipment", equipmentConstraints)
	}
	return &e, nil
}

func (r *equipmentRepoPG) Create(ctx context.Context, e *Equipment) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO equipment (id, asset_code, name, category_id, model, manufacturer, serial_number,
			barcode, description, purchase_date, purchase_price, is_donation, donor_id, donation_id,
			equipment_condition, is_portable, is_active, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at`,
		e.ID, e.AssetCode, e.Name, e.CategoryID, e.Model, e.Manufacturer, e.SerialNumber,
		e.Barcode, e.Description, e.PurchaseDate, e.PurchasePrice, e.IsDonation, e.DonorID, e.DonationID,
		e.EquipmentCondition, e.IsPortable, e.IsActive, e.CreatedBy, e.UpdatedBy,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return db.Classify(err, "equipment", equipmentConstraints)
}

func (r *equipmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return scanEquipment(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM equipment WHERE id = $1`, id))
}

func (r *equipmentRepoPG) GetByAssetCode(ctx context.Context, code string) (*Equipment, error) {
	return scanEquipment(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM equipment WHERE asset_code = $1`, code))
}

func (r *equipmentRepoPG) Update(ctx context.Context, e *Equipment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE equipment SET
			asset_code = $2, name = $3, category_id = $4, model = $5, manufacturer = $6,
			serial_number = $7, barcode = $8, description = $9, purchase_date = $10,
			purchase_price = $11, is_donation = $12, donor_id = $13, donation_id = $14,
			equipment_condition = $15, is_portable = $16, is_active = $17,
			updated_by = $18, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.AssetCode, e.Name, e.CategoryID, e.Model, e.Manufacturer,
		e.SerialNumber, e.Barcode, e.Description, e.PurchaseDate,
		e.PurchasePrice, e.IsDonation, e.DonorID, e.DonationID,
		e.EquipmentCondition, e.IsPortable, e.IsActive, e.UpdatedBy,
	).Scan(&e.UpdatedAt)
	return db.Classify(err, "equipment", equipmentConstraints)
}

func (r *equipmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.conn(ctx), "equipment", "equipment", id)
}

func (r *equipmentRepoPG) List(ctx context.Context, f EquipmentFilter, p pagination.Params, o query.Order) ([]*Equipment, int, error) {
	b := query.New("equipment", equipmentCols).
		Search(f.Search, "name", "asset_code", "serial_number").
		EqString("equipment_condition", f.Condition)
	query.Eq(b, "category_id", f.CategoryID)
	query.Eq(b, "is_active", f.IsActive)
	query.Eq(b, "is_donation", f.IsDonation)
	equipmentSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanEquipment)
}

// -- Medical Device Repository --

type deviceRepoPG struct {
	pool db.Querier
}

func NewDeviceRepo(pool db.Querier) DeviceRepository {
	return &deviceRepoPG{pool: pool}
}

func (r *deviceRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const deviceCols = `id, code, name, category_id, manufacturer, model, description, specifications,
	size, is_reusable, requires_fitting, purchase_price, is_active, ` + db.AuditCols

var deviceConstraints = db.Constraints{
	"medical_devices_code_key": "code",
}

var deviceSort = query.Sort{
	Columns: map[string]string{
		"code":       "code",
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultField: "name",
	DefaultOrder: query.Asc,
}

func scanDevice(row pgx.Row) (*MedicalDevice, error) {
	var d MedicalDevice
	dest := []interface{}{&d.ID, &d.Code, &d.Name, &d.CategoryID, &d.Manufacturer, &d.Model,
		&d.Description, &d.Specifications, &d.Size, &d.IsReusable, &d.RequiresFitting,
		&d.PurchasePrice, &d.IsActive}
	if err := row.Scan(append(dest, d.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "medical device", deviceConstraints)
	}
	return &d, nil
}

func (r *deviceRepoPG) Create(ctx context.Context, d *MedicalDevice) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_devices (id, code, name, category_id, manufacturer, model, description,
			specifications, size, is_reusable, requires_fitting, purchase_price, is_active,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		d.ID, d.Code, d.Name, d.CategoryID, d.Manufacturer, d.Model, d.Description,
		d.Specifications, d.Size, d.IsReusable, d.RequiresFitting, d.PurchasePrice, d.IsActive,
		d.CreatedBy, d.UpdatedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err, "medical device", deviceConstraints)
}

func (r *deviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalDevice, error) {
	return scanDevice(r.conn(ctx).QueryRow(ctx, `SELECT `+deviceCols+` FROM medical_devices WHERE id = $1`, id))
}

func (r *deviceRepoPG) GetByCode(ctx context.Context, code string) (*MedicalDevice, error) {
	return scanDevice(r.conn(ctx).QueryRow(ctx, `SELECT `+deviceCols+` FROM medical_devices WHERE code = $1`, code))
}

func (r *deviceRepoPG) Update(ctx context.Context, d *MedicalDevice) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_devices SET
			code = $2, name = $3, category_id = $4, manufacturer = $5, model = $6,
			description = $7, specifications = $8, size = $9, is_reusable = $10,
			requires_fitting = $11, purchase_price = $12, is_active = $13,
			updated_by = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Code, d.Name, d.CategoryID, d.Manufacturer, d.Model,
		d.Description, d.Specifications, d.Size, d.IsReusable,
		d.RequiresFitting, d.PurchasePrice, d.IsActive, d.UpdatedBy,
	).Scan(&d.UpdatedAt)
	return db.Classify(err, "medical device", deviceConstraints)
}

func (r *deviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.conn(ctx), "medical_devices", "medical device", id)
}

func (r *deviceRepoPG) List(ctx context.Context, f DeviceFilter, p pagination.Params, o query.Order) ([]*MedicalDevice, int, error) {
	b := query.New("medical_devices", deviceCols).Search(f.Search, "name", "code", "manufacturer")
	query.Eq(b, "category_id", f.CategoryID)
	query.Eq(b, "is_active", f.IsActive)
	deviceSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanDevice)
}

// -- Transaction Repository --

type transactionRepoPG struct {
	pool db.Querier
}

func NewTransactionRepo(pool db.Querier) TransactionRepository {
	return &transactionRepoPG{pool: pool}
}

func (r *transactionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const transactionCols = `id, medicine_inventory_id, medical_device_inventory_id, equipment_id,
	transaction_type, quantity, previous_quantity, new_quantity, reference_type, reference_id,
	transaction_date, notes, ` + db.AuditCols

var transactionSort = query.Sort{
	Columns: map[string]string{
		"transaction_type": "transaction_type",
		"quantity":         "quantity",
		"transaction_date": "transaction_date",
		"reference_type":   "reference_type",
		"created_at":       "created_at",
	},
	DefaultField: "transaction_date",
	DefaultOrder: query.Desc,
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	dest := []interface{}{&t.ID, &t.MedicineInventoryID, &t.MedicalDeviceInventoryID, &t.EquipmentID,
		&t.TransactionType, &t.Quantity, &t.PreviousQuantity, &t.NewQuantity, &t.ReferenceType,
		&t.ReferenceID, &t.TransactionDate, &t.Notes}
	if err := row.Scan(append(dest, t.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "inventory transaction", nil)
	}
	return &t, nil
}

func (r *transactionRepoPG) Create(ctx context.Context, t *Transaction) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory_transactions (id, medicine_inventory_id, medical_device_inventory_id,
			equipment_id, transaction_type, quantity, previous_quantity, new_quantity, reference_type,
			reference_id, transaction_date, notes, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		t.ID, t.MedicineInventoryID, t.MedicalDeviceInventoryID,
		t.EquipmentID, t.TransactionType, t.Quantity, t.PreviousQuantity, t.NewQuantity, t.ReferenceType,
		t.ReferenceID, t.TransactionDate, t.Notes, t.CreatedBy, t.UpdatedBy,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return db.Classify(err, "inventory transaction", nil)
}

func (r *transactionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return scanTransaction(r.conn(ctx).QueryRow(ctx, `SELECT `+transactionCols+` FROM inventory_transactions WHERE id = $1`, id))
}

func (r *transactionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.conn(ctx), "inventory_transactions", "inventory transaction", id)
}

func (r *transactionRepoPG) List(ctx context.Context, f TransactionFilter, p pagination.Params, o query.Order) ([]*Transaction, int, error) {
	b := query.New("inventory_transactions", transactionCols).
		EqString("transaction_type", f.TransactionType).
		EqString("reference_type", f.ReferenceType)
	query.Eq(b, "medicine_inventory_id", f.MedicineInventoryID)
	query.Eq(b, "medical_device_inventory_id", f.MedicalDeviceInventoryID)
	query.Eq(b, "equipment_id", f.EquipmentID)
	query.Gte(b, "transaction_date", f.DateFrom)
	query.Lte(b, "transaction_date", f.DateTo)
	transactionSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanTransaction)
}
