package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/civil"
)

// -- Categories --

// CategoryKind names one of the category tables. All three share a shape.
type CategoryKind struct {
	Table  string
	Entity string
	Path   string
}

var (
	MedicineCategories  = CategoryKind{Table: "medicine_categories", Entity: "medicine category", Path: "/medicine-categories"}
	EquipmentCategories = CategoryKind{Table: "equipment_categories", Entity: "equipment category", Path: "/equipment-categories"}
	DeviceCategories    = CategoryKind{Table: "medical_device_categories", Entity: "medical device category", Path: "/medical-device-categories"}

	CategoryKinds = []CategoryKind{MedicineCategories, EquipmentCategories, DeviceCategories}
)

type CategoryFields struct {
	Name             string     `json:"name"`
	Code             *string    `json:"code"`
	Description      *string    `json:"description"`
	ParentCategoryID *uuid.UUID `json:"parent_category_id"`
	IsActive         bool       `json:"is_active"`
}

func NewCategoryFields() CategoryFields {
	return CategoryFields{IsActive: true}
}

type Category struct {
	ID uuid.UUID `json:"id"`
	CategoryFields
	db.Audit
}

type CategoryFilter struct {
	IsActive *bool
	Search   string
}

// -- Medicines --

type MedicineFields struct {
	Code                  string           `json:"code"`
	Name                  string           `json:"name"`
	GenericName           *string          `json:"generic_name"`
	BrandName             *string          `json:"brand_name"`
	CategoryID            *uuid.UUID       `json:"category_id"`
	Manufacturer          *string          `json:"manufacturer"`
	DosageForm            string           `json:"dosage_form"`
	Strength              *string          `json:"strength"`
	Unit                  *string          `json:"unit"`
	PackageSize           *string          `json:"package_size"`
	Barcode               *string          `json:"barcode"`
	PurchasePrice         *decimal.Decimal `json:"purchase_price"`
	Description           *string          `json:"description"`
	Indications           *string          `json:"indications"`
	Contraindications     *string          `json:"contraindications"`
	SideEffects           *string          `json:"side_effects"`
	StorageConditions     *string          `json:"storage_conditions"`
	RequiresPrescription  bool             `json:"requires_prescription"`
	IsControlledSubstance bool             `json:"is_controlled_substance"`
	IsActive              bool             `json:"is_active"`
}

func NewMedicineFields() MedicineFields {
	return MedicineFields{RequiresPrescription: true, IsActive: true}
}

type Medicine struct {
	ID uuid.UUID `json:"id"`
	MedicineFields
	db.Audit
}

type MedicineFilter struct {
	CategoryID *uuid.UUID
	IsActive   *bool
	DosageForm string
	Search     string
}

// -- Equipment --

type EquipmentFields struct {
	AssetCode          string           `json:"asset_code"`
	Name               string           `json:"name"`
	CategoryID         *uuid.UUID       `json:"category_id"`
	Model              *string          `json:"model"`
	Manufacturer       *string          `json:"manufacturer"`
	SerialNumber       *string          `json:"serial_number"`
	Barcode            *string          `json:"barcode"`
	Description        *string          `json:"description"`
	PurchaseDate       *civil.Date      `json:"purchase_date"`
	PurchasePrice      *decimal.Decimal `json:"purchase_price"`
	IsDonation         bool             `json:"is_donation"`
	DonorID            *uuid.UUID       `json:"donor_id"`
	DonationID         *uuid.UUID       `json:"donation_id"`
	EquipmentCondition string           `json:"equipment_condition"`
	IsPortable         bool             `json:"is_portable"`
	IsActive           bool             `json:"is_active"`
}

func NewEquipmentFields() EquipmentFields {
	return EquipmentFields{EquipmentCondition: enum.ConditionGood, IsActive: true}
}

type Equipment struct {
	ID uuid.UUID `json:"id"`
	EquipmentFields
	db.Audit
}

type EquipmentFilter struct {
	CategoryID *uuid.UUID
	IsActive   *bool
	IsDonation *bool
	Condition  string
	Search     string
}

// -- Medical Devices --

type DeviceFields struct {
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	CategoryID      *uuid.UUID       `json:"category_id"`
	Manufacturer    *string          `json:"manufacturer"`
	Model           *string          `json:"model"`
	Description     *string          `json:"description"`
	Specifications  *string          `json:"specifications"`
	Size            *string          `json:"size"`
	IsReusable      bool             `json:"is_reusable"`
	RequiresFitting bool             `json:"requires_fitting"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price"`
	IsActive        bool             `json:"is_active"`
}

func NewDeviceFields() DeviceFields {
	return DeviceFields{IsReusable: true, IsActive: true}
}

type MedicalDevice struct {
	ID uuid.UUID `json:"id"`
	DeviceFields
	db.Audit
}

type DeviceFilter struct {
	CategoryID *uuid.UUID
	IsActive   *bool
	Search     string
}

// -- Transactions --

// Transaction records one stock movement. It is immutable once written.
type Transaction struct {
	ID                       uuid.UUID  `json:"id"`
	MedicineInventoryID      *uuid.UUID `json:"medicine_inventory_id"`
	MedicalDeviceInventoryID *uuid.UUID `json:"medical_device_inventory_id"`
	EquipmentID              *uuid.UUID `json:"equipment_id"`
	TransactionType          string     `json:"transaction_type"`
	Quantity                 int        `json:"quantity"`
	PreviousQuantity         *int       `json:"previous_quantity"`
	NewQuantity              *int       `json:"new_quantity"`
	ReferenceType            *string    `json:"reference_type"`
	ReferenceID              *uuid.UUID `json:"reference_id"`
	TransactionDate          time.Time  `json:"transaction_date"`
	Notes                    *string    `json:"notes"`
	db.Audit
}

type TransactionFilter struct {
	TransactionType          string
	ReferenceType            string
	MedicineInventoryID      *uuid.UUID
	MedicalDeviceInventoryID *uuid.UUID
	EquipmentID              *uuid.UUID
	DateFrom                 *time.Time
	DateTo                   *time.Time
}
