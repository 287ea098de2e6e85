package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/validate"
	"github.com/medbase/medbase/pkg/pagination"
)

// Repos groups the stores the inventory service writes to. Categories holds
// one store per entry of CategoryKinds.
type Repos struct {
	Categories   map[CategoryKind]CategoryRepository
	Medicines    MedicineRepository
	Equipment    EquipmentRepository
	Devices      DeviceRepository
	Transactions TransactionRepository
}

type Service struct {
	repos Repos
	now   func() time.Time
}

func NewService(repos Repos) *Service {
	return &Service{repos: repos, now: time.Now}
}

// checkCategory verifies an optional category reference against the table of
// the given kind.
func (s *Service) checkCategory(ctx context.Context, kind CategoryKind, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.repos.Categories[kind].GetByID(ctx, *id)
	return apperr.Reference(err, "Category not found")
}

// -- Categories --

func validateCategory(f CategoryFields) error {
	return validate.First(
		validate.Required("name", f.Name),
		validate.Length("name", f.Name, 1, 100),
	)
}

func (s *Service) checkCategoryFields(ctx context.Context, kind CategoryKind, f CategoryFields, self uuid.UUID) error {
	repo := s.repos.Categories[kind]
	if f.Code != nil && *f.Code != "" {
		other, err := repo.GetByCode(ctx, *f.Code)
		if taken, err := apperr.Exists(err); err != nil {
			return err
		} else if taken && other.ID != self {
			return apperr.Duplicate("code")
		}
	}
	if f.ParentCategoryID != nil {
		if *f.ParentCategoryID == self {
			return apperr.Validation("category cannot be its own parent")
		}
		if _, err := repo.GetByID(ctx, *f.ParentCategoryID); err != nil {
			return apperr.Reference(err, "Parent category not found")
		}
	}
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, kind CategoryKind, f CategoryFields, actor string) (*Category, error) {
	if err := validateCategory(f); err != nil {
		return nil, err
	}
	if err := s.checkCategoryFields(ctx, kind, f, uuid.Nil); err != nil {
		return nil, err
	}
	c := &Category{CategoryFields: f}
	c.StampCreate(actor)
	if err := s.repos.Categories[kind].Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, kind CategoryKind, id uuid.UUID) (*Category, error) {
	return s.repos.Categories[kind].GetByID(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context, kind CategoryKind, f CategoryFilter, p pagination.Params, o query.Order) ([]*Category, int, error) {
	return s.repos.Categories[kind].List(ctx, f, p, o)
}

func (s *Service) UpdateCategory(ctx context.Context, kind CategoryKind, id uuid.UUID, raw []byte, actor string) (*Category, error) {
	c, err := s.repos.Categories[kind].GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&c.CategoryFields, raw); err != nil {
		return nil, err
	}
	if err := validateCategory(c.CategoryFields); err != nil {
		return nil, err
	}
	if err := s.checkCategoryFields(ctx, kind, c.CategoryFields, c.ID); err != nil {
		return nil, err
	}
	c.StampUpdate(actor)
	if err := s.repos.Categories[kind].Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, kind CategoryKind, id uuid.UUID) error {
	return s.repos.Categories[kind].Delete(ctx, id)
}

// -- Medicines --

func validateMedicine(f MedicineFields) error {
	return validate.First(
		validate.Required("code", f.Code),
		validate.Length("code", f.Code, 1, 30),
		validate.Required("name", f.Name),
		validate.Length("name", f.Name, 1, 200),
		validate.Enum("dosage_form", f.DosageForm, enum.DosageForm),
		validate.NonNegativeDecimal("purchase_price", f.PurchasePrice),
	)
}

func (s *Service) checkMedicine(ctx context.Context, f MedicineFields, self uuid.UUID) error {
	other, err := s.repos.Medicines.GetByCode(ctx, f.Code)
	if taken, err := apperr.Exists(err); err != nil {
		return err
	} else if taken && other.ID != self {
		return apperr.Duplicate("code")
	}
	if f.Barcode != nil && *f.Barcode != "" {
		other, err := s.repos.Medicines.GetByBarcode(ctx, *f.Barcode)
		if taken, err := apperr.Exists(err); err != nil {
			return err
		} else if taken && other.ID != self {
			return apperr.Duplicate("barcode")
		}
	}
	return s.checkCategory(ctx, MedicineCategories, f.CategoryID)
}

func (s *Service) CreateMedicine(ctx context.Context, f MedicineFields, actor string) (*Medicine, error) {
	if err := validateMedicine(f); err != nil {
		return nil, err
	}
	if err := s.checkMedicine(ctx, f, uuid.Nil); err != nil {
		return nil, err
	}
	m := &Medicine{MedicineFields: f}
	m.StampCreate(actor)
	if err := s.repos.Medicines.Create(ctx, m); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("code", m.Code).Msg("medicine added")
	return m, nil
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.repos.Medicines.GetByID(ctx, id)
}

func (s *Service) GetMedicineByCode(ctx context.Context, code string) (*Medicine, error) {
	return s.repos.Medicines.GetByCode(ctx, code)
}

func (s *Service) GetMedicineByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	return s.repos.Medicines.GetByBarcode(ctx, barcode)
}

func (s *Service) ListMedicines(ctx context.Context, f MedicineFilter, p pagination.Params, o query.Order) ([]*Medicine, int, error) {
	return s.repos.Medicines.List(ctx, f, p, o)
}

func (s *Service) UpdateMedicine(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Medicine, error) {
	m, err := s.repos.Medicines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&m.MedicineFields, raw); err != nil {
		return nil, err
	}
	if err := validateMedicine(m.MedicineFields); err != nil {
		return nil, err
	}
	if err := s.checkMedicine(ctx, m.MedicineFields, m.ID); err != nil {
		return nil, err
	}
	m.StampUpdate(actor)
	if err := s.repos.Medicines.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Medicines.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("medicine_id", id.String()).Msg("medicine deleted")
	return nil
}

// -- Equipment --

func validateEquipment(f EquipmentFields) error {
	return validate.First(
		validate.Required("asset_code", f.AssetCode),
		validate.Length("asset_code", f.AssetCode, 1, 50),
		validate.Required("name", f.Name),
		validate.Length("name", f.Name, 1, 200),
		validate.Enum("equipment_condition", f.EquipmentCondition, enum.EquipmentCondition),
		validate.NonNegativeDecimal("purchase_price", f.PurchasePrice),
	)
}

func (s *Service) checkEquipment(ctx context.Context, f EquipmentFields, self uuid.UUID) error {
	other, err := s.repos.Equipment.GetByAssetCode(ctx, f.AssetCode)
	if taken, err := apperr.Exists(err); err != nil {
		return err
	} else if taken && other.ID != self {
		return apperr.Duplicate("asset_code")
	}
	return s.checkCategory(ctx, EquipmentCategories, f.CategoryID)
}

func (s *Service) CreateEquipment(ctx context.Context, f EquipmentFields, actor string) (*Equipment, error) {
	if err := validateEquipment(f); err != nil {
		return nil, err
	}
	if err := s.checkEquipment(ctx, f, uuid.Nil); err != nil {
		return nil, err
	}
	e := &Equipment{EquipmentFields: f}
	e.StampCreate(actor)
	if err := s.repos.Equipment.Create(ctx, e); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("asset_code", e.AssetCode).Msg("equipment added")
	return e, nil
}

func (s *Service) GetEquipment(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return s.repos.Equipment.GetByID(ctx, id)
}

func (s *Service) GetEquipmentByAssetCode(ctx context.Context, code string) (*Equipment, error) {
	return s.repos.Equipment.GetByAssetCode(ctx, code)
}

func (s *Service) ListEquipment(ctx context.Context, f EquipmentFilter, p pagination.Params, o query.Order) ([]*Equipment, int, error) {
	return s.repos.Equipment.List(ctx, f, p, o)
}

func (s *Service) UpdateEquipment(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Equipment, error) {
	e, err := s.repos.Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&e.EquipmentFields, raw); err != nil {
		return nil, err
	}
	if err := validateEquipment(e.EquipmentFields); err != nil {
		return nil, err
	}
	if err := s.checkEquipment(ctx, e.EquipmentFields, e.ID); err != nil {
		return nil, err
	}
	e.StampUpdate(actor)
	if err := s.repos.Equipment.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) DeleteEquipment(ctx context.Context, id uuid.UUID) error {
	return s.repos.Equipment.Delete(ctx, id)
}

// -- Medical Devices --

func validateDevice(f DeviceFields) error {
	return validate.First(
		validate.Required("code", f.Code),
		validate.Length("code", f.Code, 1, 30),
		validate.Required("name", f.Name),
		validate.Length("name", f.Name, 1, 200),
		validate.NonNegativeDecimal("purchase_price", f.PurchasePrice),
	)
}

func (s *Service) checkDevice(ctx context.Context, f DeviceFields, self uuid.UUID) error {
	other, err := s.repos.Devices.GetByCode(ctx, f.Code)
	if taken, err := apperr.Exists(err); err != nil {
		return err
	} else if taken && other.ID != self {
		return apperr.Duplicate("code")
	}
	return s.checkCategory(ctx, DeviceCategories, f.CategoryID)
}

func (s *Service) CreateDevice(ctx context.Context, f DeviceFields, actor string) (*MedicalDevice, error) {
	if err := validateDevice(f); err != nil {
		return nil, err
	}
	if err := s.checkDevice(ctx, f, uuid.Nil); err != nil {
		return nil, err
	}
	d := &MedicalDevice{DeviceFields: f}
	d.StampCreate(actor)
	if err := s.repos.Devices.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDevice(ctx context.Context, id uuid.UUID) (*MedicalDevice, error) {
	return s.repos.Devices.GetByID(ctx, id)
}

func (s *Service) GetDeviceByCode(ctx context.Context, code string) (*MedicalDevice, error) {
	return s.repos.Devices.GetByCode(ctx, code)
}

func (s *Service) ListDevices(ctx context.Context, f DeviceFilter, p pagination.Params, o query.Order) ([]*MedicalDevice, int, error) {
	return s.repos.Devices.List(ctx, f, p, o)
}

func (s *Service) UpdateDevice(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*MedicalDevice, error) {
	d, err := s.repos.Devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&d.DeviceFields, raw); err != nil {
		return nil, err
	}
	if err := validateDevice(d.DeviceFields); err != nil {
		return nil, err
	}
	if err := s.checkDevice(ctx, d.DeviceFields, d.ID); err != nil {
		return nil, err
	}
	d.StampUpdate(actor)
	if err := s.repos.Devices.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	return s.repos.Devices.Delete(ctx, id)
}

// -- Transactions --

func validateTransaction(t *Transaction) error {
	var subject error
	if t.MedicineInventoryID == nil && t.MedicalDeviceInventoryID == nil && t.EquipmentID == nil {
		subject = apperr.Validation("one of medicine_inventory_id, medical_device_inventory_id or equipment_id is required")
	}
	var prev, next error
	if t.PreviousQuantity != nil {
		prev = validate.NonNegative("previous_quantity", *t.PreviousQuantity)
	}
	if t.NewQuantity != nil {
		next = validate.NonNegative("new_quantity", *t.NewQuantity)
	}
	return validate.First(
		subject,
		validate.Enum("transaction_type", t.TransactionType, enum.TransactionType),
		validate.Positive("quantity", t.Quantity),
		prev,
		next,
		validate.OptionalEnum("reference_type", t.ReferenceType, enum.ReferenceType),
	)
}

// RecordTransaction stores a stock movement. transaction_date defaults to now.
func (s *Service) RecordTransaction(ctx context.Context, t *Transaction, actor string) (*Transaction, error) {
	if err := validateTransaction(t); err != nil {
		return nil, err
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = s.now()
	}
	t.StampCreate(actor)
	if err := s.repos.Transactions.Create(ctx, t); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("transaction_type", t.TransactionType).
		Int("quantity", t.Quantity).
		Msg("inventory transaction recorded")
	return t, nil
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repos.Transactions.GetByID(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter, p pagination.Params, o query.Order) ([]*Transaction, int, error) {
	return s.repos.Transactions.List(ctx, f, p, o)
}

func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.repos.Transactions.Delete(ctx, id)
}
