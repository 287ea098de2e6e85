package donation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/domain/inventory"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/internal/platform/validate"
	"github.com/medbase/medbase/pkg/civil"
	"github.com/medbase/medbase/pkg/pagination"
)

type MedicineFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventory.Medicine, error)
}

type EquipmentFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventory.Equipment, error)
}

type DeviceFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventory.MedicalDevice, error)
}

// Repos groups the stores the donation service writes to.
type Repos struct {
	Donors         DonorRepository
	Donations      DonationRepository
	MedicineItems  MedicineItemRepository
	EquipmentItems EquipmentItemRepository
	DeviceItems    DeviceItemRepository
}

// Refs resolves catalogue entries named by line items.
type Refs struct {
	Medicines MedicineFinder
	Equipment EquipmentFinder
	Devices   DeviceFinder
}

type Service struct {
	repos   Repos
	refs    Refs
	numbers *sequence.Generator
	now     func() time.Time
}

func NewService(repos Repos, refs Refs, numbers *sequence.Generator) *Service {
	return &Service{repos: repos, refs: refs, numbers: numbers, now: time.Now}
}

// -- Donors --

func validateDonor(f DonorFields) error {
	return validate.First(
		validate.Required("donor_code", f.DonorCode),
		validate.Length("donor_code", f.DonorCode, 1, 30),
		validate.Required("name", f.Name),
		validate.Length("name", f.Name, 1, 200),
		validate.Enum("donor_type", f.DonorType, enum.DonorType),
		validate.OptionalEmail("email", f.Email),
	)
}

func (s *Service) checkDonorCode(ctx context.Context, code string, self uuid.UUID) error {
	other, err := s.repos.Donors.GetByCode(ctx, code)
	if taken, err := apperr.Exists(err); err != nil {
		return err
	} else if taken && other.ID != self {
		return apperr.Duplicate("donor_code")
	}
	return nil
}

func (s *Service) CreateDonor(ctx context.Context, f DonorFields, actor string) (*Donor, error) {
	f.DonorCode = strings.TrimSpace(f.DonorCode)
	if err := validateDonor(f); err != nil {
		return nil, err
	}
	if err := s.checkDonorCode(ctx, f.DonorCode, uuid.Nil); err != nil {
		return nil, err
	}
	d := &Donor{DonorFields: f}
	d.StampCreate(actor)
	if err := s.repos.Donors.Create(ctx, d); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("donor_code", d.DonorCode).Msg("donor registered")
	return d, nil
}

func (s *Service) GetDonor(ctx context.Context, id uuid.UUID) (*Donor, error) {
	return s.repos.Donors.GetByID(ctx, id)
}

func (s *Service) GetDonorByCode(ctx context.Context, code string) (*Donor, error) {
	return s.repos.Donors.GetByCode(ctx, code)
}

func (s *Service) GetDonorByEmail(ctx context.Context, email string) (*Donor, error) {
	return s.repos.Donors.GetByEmail(ctx, email)
}

func (s *Service) ListDonors(ctx context.Context, f DonorFilter, p pagination.Params, o query.Order) ([]*Donor, int, error) {
	return s.repos.Donors.List(ctx, f, p, o)
}

func (s *Service) UpdateDonor(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Donor, error) {
	d, err := s.repos.Donors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(&d.DonorFields, raw); err != nil {
		return nil, err
	}
	d.DonorCode = strings.TrimSpace(d.DonorCode)
	if err := validateDonor(d.DonorFields); err != nil {
		return nil, err
	}
	if err := s.checkDonorCode(ctx, d.DonorCode, d.ID); err != nil {
		return nil, err
	}
	d.StampUpdate(actor)
	if err := s.repos.Donors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDonor(ctx context.Context, id uuid.UUID) error {
	return s.repos.Donors.Delete(ctx, id)
}

// -- Donations --

func validateDonation(f DonationFields) error {
	var received error
	if f.ReceivedDate != nil && f.ReceivedDate.Before(f.DonationDate) {
		received = apperr.Validation("received_date cannot be before donation_date")
	}
	return validate.First(
		validate.Enum("donation_type", f.DonationType, enum.DonationType),
		validate.NonNegativeDecimal("total_estimated_value", f.TotalEstimatedValue),
		validate.NonNegative("total_items_count", f.TotalItemsCount),
		received,
	)
}

func (s *Service) checkDonor(ctx context.Context, id uuid.UUID) error {
	_, err := s.repos.Donors.GetByID(ctx, id)
	return apperr.Reference(err, "Donor not found")
}

// CreateDonation stores a donation under the next yearly number.
// donation_date defaults to today.
func (s *Service) CreateDonation(ctx context.Context, f DonationFields, actor string) (*Donation, error) {
	if f.DonationDate.IsZero() {
		f.DonationDate = civil.DateOf(s.now())
	}
	if err := validateDonation(f); err != nil {
		return nil, err
	}
	if err := s.checkDonor(ctx, f.DonorID); err != nil {
		return nil, err
	}

	d := &Donation{DonationFields: f}
	d.StampCreate(actor)
	_, err := s.numbers.Assign(ctx, sequence.Donation, func(ctx context.Context, number string) error {
		d.DonationNumber = number
		return s.repos.Donations.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("donation_number", d.DonationNumber).
		Str("donor_id", d.DonorID.String()).
		Msg("donation recorded")
	return d, nil
}

// GetDonation returns the donation with its live line items.
func (s *Service) GetDonation(ctx context.Context, id uuid.UUID) (*DonationDetail, error) {
	d, err := s.repos.Donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &DonationDetail{Donation: d}
	if detail.MedicineItems, err = s.repos.MedicineItems.ForDonation(ctx, id); err != nil {
		return nil, err
	}
	if detail.EquipmentItems, err = s.repos.EquipmentItems.ForDonation(ctx, id); err != nil {
		return nil, err
	}
	if detail.DeviceItems, err = s.repos.DeviceItems.ForDonation(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) GetDonationByNumber(ctx context.Context, number string) (*Donation, error) {
	return s.repos.Donations.GetByNumber(ctx, number)
}

func (s *Service) ListDonations(ctx context.Context, f DonationFilter, p pagination.Params, o query.Order) ([]*Donation, int, error) {
	return s.repos.Donations.List(ctx, f, p, o)
}

func (s *Service) UpdateDonation(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Donation, error) {
	d, err := s.repos.Donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := d.DonationFields
	if err := patch.Apply(&d.DonationFields, raw); err != nil {
		return nil, err
	}
	if d.DonationDate.IsZero() {
		d.DonationDate = prev.DonationDate
	}
	if err := validateDonation(d.DonationFields); err != nil {
		return nil, err
	}
	if d.DonorID != prev.DonorID {
		if err := s.checkDonor(ctx, d.DonorID); err != nil {
			return nil, err
		}
	}
	d.StampUpdate(actor)
	if err := s.repos.Donations.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDonation removes the donation together with its line items.
func (s *Service) DeleteDonation(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Donations.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("donation_id", id.String()).Msg("donation deleted")
	return nil
}

// -- Line Items --

type lineItem interface {
	key() ItemKey
}

// owned hides items of other donations behind the same 404 a deleted item gets.
func owned(it lineItem, donationID uuid.UUID, entity string) error {
	if it.key().DonationID != donationID {
		return apperr.NotFound(entity)
	}
	return nil
}

func (s *Service) requireDonation(ctx context.Context, id uuid.UUID) error {
	_, err := s.repos.Donations.GetByID(ctx, id)
	return err
}

func validateItemDates(manufactured, expires *civil.Date) error {
	if manufactured != nil && expires != nil && expires.Before(*manufactured) {
		return apperr.Validation("expiry_date cannot be before manufacturing_date")
	}
	return nil
}

// -- Medicine Items --

func validateMedicineItem(f MedicineItemFields) error {
	return validate.First(
		validate.Required("medicine_name", f.MedicineName),
		validate.Length("medicine_name", f.MedicineName, 1, 200),
		validate.Positive("quantity", f.Quantity),
		validate.NonNegativeDecimal("estimated_unit_value", f.EstimatedUnitValue),
		validate.NonNegativeDecimal("total_value", f.TotalValue),
		validateItemDates(f.ManufacturingDate, f.ExpiryDate),
	)
}

// deriveTotal fills an absent total_value from the unit value and quantity.
func deriveTotal(f *MedicineItemFields) {
	if f.TotalValue != nil || f.EstimatedUnitValue == nil {
		return
	}
	total := f.EstimatedUnitValue.Mul(decimal.NewFromInt(int64(f.Quantity)))
	f.TotalValue = &total
}

func (s *Service) resolveMedicine(ctx context.Context, f *MedicineItemFields) error {
	if f.MedicineID == nil {
		return nil
	}
	m, err := s.refs.Medicines.GetByID(ctx, *f.MedicineID)
	if err != nil {
		return apperr.Reference(err, "Medicine not found")
	}
	if strings.TrimSpace(f.MedicineName) == "" {
		f.MedicineName = m.Name
	}
	return nil
}

func (s *Service) CreateMedicineItem(ctx context.Context, donationID uuid.UUID, f MedicineItemFields, actor string) (*MedicineItem, error) {
	if err := s.requireDonation(ctx, donationID); err != nil {
		return nil, err
	}
	if err := s.resolveMedicine(ctx, &f); err != nil {
		return nil, err
	}
	deriveTotal(&f)
	if err := validateMedicineItem(f); err != nil {
		return nil, err
	}
	it := &MedicineItem{ItemKey: ItemKey{DonationID: donationID}, MedicineItemFields: f}
	it.StampCreate(actor)
	if err := s.repos.MedicineItems.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) GetMedicineItem(ctx context.Context, donationID, id uuid.UUID) (*MedicineItem, error) {
	it, err := s.repos.MedicineItems.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(it, donationID, "medicine item"); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) ListMedicineItems(ctx context.Context, donationID uuid.UUID, p pagination.Params, o query.Order) ([]*MedicineItem, int, error) {
	if err := s.requireDonation(ctx, donationID); err != nil {
		return nil, 0, err
	}
	return s.repos.MedicineItems.List(ctx, donationID, p, o)
}

// UpdateMedicineItem applies a partial update. A change to quantity or
// estimated_unit_value recomputes total_value unless the body sets it too.
func (s *Service) UpdateMedicineItem(ctx context.Context, donationID, id uuid.UUID, raw []byte, actor string) (*MedicineItem, error) {
	it, err := s.GetMedicineItem(ctx, donationID, id)
	if err != nil {
		return nil, err
	}
	prev := it.MedicineItemFields
	if err := patch.Apply(&it.MedicineItemFields, raw); err != nil {
		return nil, err
	}
	if patch.Touches(raw, "quantity", "estimated_unit_value") && !patch.Touches(raw, "total_value") {
		it.TotalValue = nil
	}
	if it.MedicineID != nil && (prev.MedicineID == nil || *prev.MedicineID != *it.MedicineID) {
		if err := s.resolveMedicine(ctx, &it.MedicineItemFields); err != nil {
			return nil, err
		}
	}
	deriveTotal(&it.MedicineItemFields)
	if err := validateMedicineItem(it.MedicineItemFields); err != nil {
		return nil, err
	}
	it.StampUpdate(actor)
	if err := s.repos.MedicineItems.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) DeleteMedicineItem(ctx context.Context, donationID, id uuid.UUID, actor string) error {
	if _, err := s.GetMedicineItem(ctx, donationID, id); err != nil {
		return err
	}
	return s.repos.MedicineItems.SoftDelete(ctx, id, actor)
}

// -- Equipment Items --

func validateEquipmentItem(f EquipmentItemFields) error {
	return validate.First(
		validate.Positive("quantity", f.Quantity),
		validate.Enum("equipment_condition", f.EquipmentCondition, enum.EquipmentCondition),
		validate.NonNegativeDecimal("estimated_value", f.EstimatedValue),
	)
}

func (s *Service) resolveEquipment(ctx context.Context, f *EquipmentItemFields) error {
	if f.EquipmentID == nil {
		return nil
	}
	e, err := s.refs.Equipment.GetByID(ctx, *f.EquipmentID)
	if err != nil {
		return apperr.Reference(err, "Equipment not found")
	}
	if f.EquipmentName == nil {
		f.EquipmentName = &e.Name
	}
	return nil
}

func (s *Service) CreateEquipmentItem(ctx context.Context, donationID uuid.UUID, f EquipmentItemFields, actor string) (*EquipmentItem, error) {
	if err := s.requireDonation(ctx, donationID); err != nil {
		return nil, err
	}
	if err := validateEquipmentItem(f); err != nil {
		return nil, err
	}
	if err := s.resolveEquipment(ctx, &f); err != nil {
		return nil, err
	}
	it := &EquipmentItem{ItemKey: ItemKey{DonationID: donationID}, EquipmentItemFields: f}
	it.StampCreate(actor)
	if err := s.repos.EquipmentItems.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) GetEquipmentItem(ctx context.Context, donationID, id uuid.UUID) (*EquipmentItem, error) {
	it, err := s.repos.EquipmentItems.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(it, donationID, "equipment item"); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) ListEquipmentItems(ctx context.Context, donationID uuid.UUID, p pagination.Params, o query.Order) ([]*EquipmentItem, int, error) {
	if err := s.requireDonation(ctx, donationID); err != nil {
		return nil, 0, err
	}
	return s.repos.EquipmentItems.List(ctx, donationID, p, o)
}

func (s *Service) UpdateEquipmentItem(ctx context.Context, donationID, id uuid.UUID, raw []byte, actor string) (*EquipmentItem, error) {
	it, err := s.GetEquipmentItem(ctx, donationID, id)
	if err != nil {
		return nil, err
	}
	prev := it.EquipmentItemFields
	if err := patch.Apply(&it.EquipmentItemFields, raw); err != nil {
		return nil, err
	}
	if err := validateEquipmentItem(it.EquipmentItemFields); err != nil {
		return nil, err
	}
	if it.EquipmentID != nil && (prev.EquipmentID == nil || *prev.EquipmentID != *it.EquipmentID) {
		if err := s.resolveEquipment(ctx, &it.EquipmentItemFields); err != nil {
			return nil, err
		}
	}
	it.StampUpdate(actor)
	if err := s.repos.EquipmentItems.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) DeleteEquipmentItem(ctx context.Context, donationID, id uuid.UUID, actor string) error {
	if _, err := s.GetEquipmentItem(ctx, donationID, id); err != nil {
		return err
	}
	return s.repos.EquipmentItems.SoftDelete(ctx, id, actor)
}

// -- Medical Device Items --

func validateDeviceItem(f DeviceItemFields) error {
	return validate.First(
		validate.Positive("quantity", f.Quantity),
		validate.Enum("device_condition", f.DeviceCondition, enum.EquipmentCondition),
		validate.NonNegativeDecimal("estimated_value", f.EstimatedValue),
	)
}

func (s *Service) resolveDevice(ctx context.Context, f *DeviceItemFields) error {
	if f.DeviceID == nil {
		return nil
	}
	d, err := s.refs.Devices.GetByID(ctx, *f.DeviceID)
	if err != nil {
		return apperr.Reference(err, "Medical device not found")
	}
	if f.DeviceName == nil {
		f.DeviceName = &d.Name
	}
	return nil
}

func (s *Service) CreateDeviceItem(ctx context.Context, donationID uuid.UUID, f DeviceItemFields, actor string) (*DeviceItem, error) {
	if err := s.requireDonation(ctx, donationID); err != nil {
		return nil, err
	}
	if err := validateDeviceItem(f); err != nil {
		return nil, err
	}
	if err := s.resolveDevice(ctx, &f); err != nil {
		return nil, err
	}
	it := &DeviceItem{ItemKey: ItemKey{DonationID: donationID}, DeviceItemFields: f}
	it.StampCreate(actor)
	if err := s.repos.DeviceItems.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) GetDeviceItem(ctx context.Context, donationID, id uuid.UUID) (*DeviceItem, error) {
	it, err := s.repos.DeviceItems.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(it, donationID, "medical device item"); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) ListDeviceItems(ctx context.Context, donationID uuid.UUID, p pagination.Params, o query.Order) ([]*DeviceItem, int, error) {
	if err := s.requireDonation(ctx, donationID); err != nil {
		return nil, 0, err
	}
	return s.repos.DeviceItems.List(ctx, donationID, p, o)
}

func (s *Service) UpdateDeviceItem(ctx context.Context, donationID, id uuid.UUID, raw []byte, actor string) (*DeviceItem, error) {
	it, err := s.GetDeviceItem(ctx, donationID, id)
	if err != nil {
		return nil, err
	}
	prev := it.DeviceItemFields
	if err := patch.Apply(&it.DeviceItemFields, raw); err != nil {
		return nil, err
	}
	if err := validateDeviceItem(it.DeviceItemFields); err != nil {
		return nil, err
	}
	if it.DeviceID != nil && (prev.DeviceID == nil || *prev.DeviceID != *it.DeviceID) {
		if err := s.resolveDevice(ctx, &it.DeviceItemFields); err != nil {
			return nil, err
		}
	}
	it.StampUpdate(actor)
	if err := s.repos.DeviceItems.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) DeleteDeviceItem(ctx context.Context, donationID, id uuid.UUID, actor string) error {
	if _, err := s.GetDeviceItem(ctx, donationID, id); err != nil {
		return err
	}
	return s.repos.DeviceItems.SoftDelete(ctx, id, actor)
}
