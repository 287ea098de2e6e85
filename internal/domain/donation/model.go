package donation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/civil"
)

// -- Donors --

type DonorFields struct {
	DonorCode        string  `json:"donor_code"`
	Name             string  `json:"name"`
	DonorType        string  `json:"donor_type"`
	ContactPerson    *string `json:"contact_person"`
	Phone            *string `json:"phone"`
	AlternativePhone *string `json:"alternative_phone"`
	Email            *string `json:"email"`
	Website          *string `json:"website"`
	Address          *string `json:"address"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	Country          *string `json:"country"`
	Notes            *string `json:"notes"`
	IsActive         bool    `json:"is_active"`
}

func NewDonorFields() DonorFields {
	return DonorFields{DonorType: enum.DefaultDonorType, IsActive: true}
}

type Donor struct {
	ID uuid.UUID `json:"id"`
	DonorFields
	db.Audit
}

type DonorFilter struct {
	DonorType string
	IsActive  *bool
	Search    string
}

// -- Donations --

type DonationFields struct {
	DonorID             uuid.UUID        `json:"donor_id"`
	DonationType        string           `json:"donation_type"`
	DonationDate        civil.Date       `json:"donation_date"`
	ReceivedDate        *civil.Date      `json:"received_date"`
	TotalEstimatedValue *decimal.Decimal `json:"total_estimated_value"`
	TotalItemsCount     int              `json:"total_items_count"`
	Notes               *string          `json:"notes"`
}

type Donation struct {
	ID             uuid.UUID `json:"id"`
	DonationNumber string    `json:"donation_number"`
	DonationFields
	db.Audit
}

// DonationDetail is a donation with its live line items.
type DonationDetail struct {
	*Donation
	MedicineItems  []*MedicineItem  `json:"medicine_items"`
	EquipmentItems []*EquipmentItem `json:"equipment_items"`
	DeviceItems    []*DeviceItem    `json:"medical_device_items"`
}

type DonationFilter struct {
	DonorID      *uuid.UUID
	DonationType string
	DateFrom     *time.Time
	DateTo       *time.Time
}

// -- Line Items --

// ItemKey identifies a line item and the donation it belongs to.
type ItemKey struct {
	ID         uuid.UUID `json:"id"`
	DonationID uuid.UUID `json:"donation_id"`
}

func (k ItemKey) key() ItemKey { return k }

type MedicineItemFields struct {
	MedicineID         *uuid.UUID       `json:"medicine_id"`
	MedicineName       string           `json:"medicine_name"`
	Quantity           int              `json:"quantity"`
	Unit               *string          `json:"unit"`
	ManufacturingDate  *civil.Date      `json:"manufacturing_date"`
	ExpiryDate         *civil.Date      `json:"expiry_date"`
	EstimatedUnitValue *decimal.Decimal `json:"estimated_unit_value"`
	TotalValue         *decimal.Decimal `json:"total_value"`
	ConditionNotes     *string          `json:"condition_notes"`
}

type MedicineItem struct {
	ItemKey
	MedicineItemFields
	IsDeleted bool `json:"is_deleted"`
	db.Audit
}

type EquipmentItemFields struct {
	EquipmentID        *uuid.UUID       `json:"equipment_id"`
	EquipmentName      *string          `json:"equipment_name"`
	Model              *string          `json:"model"`
	SerialNumber       *string          `json:"serial_number"`
	Quantity           int              `json:"quantity"`
	EquipmentCondition string           `json:"equipment_condition"`
	EstimatedValue     *decimal.Decimal `json:"estimated_value"`
	ConditionNotes     *string          `json:"condition_notes"`
}

func NewEquipmentItemFields() EquipmentItemFields {
	return EquipmentItemFields{Quantity: 1, EquipmentCondition: enum.ConditionGood}
}

type EquipmentItem struct {
	ItemKey
	EquipmentItemFields
	IsDeleted bool `json:"is_deleted"`
	db.Audit
}

type DeviceItemFields struct {
	DeviceID        *uuid.UUID       `json:"device_id"`
	DeviceName      *string          `json:"device_name"`
	Model           *string          `json:"model"`
	SerialNumber    *string          `json:"serial_number"`
	Quantity        int              `json:"quantity"`
	DeviceCondition string           `json:"device_condition"`
	EstimatedValue  *decimal.Decimal `json:"estimated_value"`
	ConditionNotes  *string          `json:"condition_notes"`
}

func NewDeviceItemFields() DeviceItemFields {
	return DeviceItemFields{Quantity: 1, DeviceCondition: enum.ConditionGood}
}

type DeviceItem struct {
	ItemKey
	DeviceItemFields
	IsDeleted bool `json:"is_deleted"`
	db.Audit
}
