package donation

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type DonorRepository interface {
	db.HardDeleter
	Create(ctx context.Context, d *Donor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Donor, error)
	GetByCode(ctx context.Context, code string) (*Donor, error)
	GetByEmail(ctx context.Context, email string) (*Donor, error)
	Update(ctx context.Context, d *Donor) error
	List(ctx context.Context, f DonorFilter, p pagination.Params, o query.Order) ([]*Donor, int, error)
}

type DonationRepository interface {
	db.HardDeleter
	Create(ctx context.Context, d *Donation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Donation, error)
	GetByNumber(ctx context.Context, number string) (*Donation, error)
	Update(ctx context.Context, d *Donation) error
	List(ctx context.Context, f DonationFilter, p pagination.Params, o query.Order) ([]*Donation, int, error)
}

// ItemRepository stores one kind of donation line item. Deleted rows are
// invisible to every read.
type ItemRepository[T any] interface {
	db.SoftDeleter
	Create(ctx context.Context, it *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, it *T) error
	List(ctx context.Context, donationID uuid.UUID, p pagination.Params, o query.Order) ([]*T, int, error)
	ForDonation(ctx context.Context, donationID uuid.UUID) ([]*T, error)
}

type (
	MedicineItemRepository  = ItemRepository[MedicineItem]
	EquipmentItemRepository = ItemRepository[EquipmentItem]
	DeviceItemRepository    = ItemRepository[DeviceItem]
)
