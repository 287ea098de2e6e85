package prescribing

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type PrescriptionRepository interface {
	db.HardDeleter
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByNumber(ctx context.Context, number string) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	List(ctx context.Context, f PrescriptionFilter, p pagination.Params, o query.Order) ([]*Prescription, int, error)
}

// ItemRepository scopes every read and delete by prescription.
type ItemRepository interface {
	Create(ctx context.Context, it *Item) error
	Get(ctx context.Context, prescriptionID, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, prescriptionID, id uuid.UUID) error
	List(ctx context.Context, prescriptionID uuid.UUID, p pagination.Params, o query.Order) ([]*Item, int, error)
}

type DeviceRepository interface {
	db.HardDeleter
	Create(ctx context.Context, d *PrescribedDevice) error
	GetByID(ctx context.Context, id uuid.UUID) (*PrescribedDevice, error)
	Update(ctx context.Context, d *PrescribedDevice) error
	List(ctx context.Context, f DeviceFilter, p pagination.Params, o query.Order) ([]*PrescribedDevice, int, error)
}
