package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type CategoryRepository interface {
	db.HardDeleter
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetByCode(ctx context.Context, code string) (*Category, error)
	Update(ctx context.Context, c *Category) error
	List(ctx context.Context, f CategoryFilter, p pagination.Params, o query.Order) ([]*Category, int, error)
}

type MedicineRepository interface {
	db.HardDeleter
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	GetByCode(ctx context.Context, code string) (*Medicine, error)
	GetByBarcode(ctx context.Context, barcode string) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	List(ctx context.Context, f MedicineFilter, p pagination.Params, o query.Order) ([]*Medicine, int, error)
}

type EquipmentRepository interface {
	db.HardDeleter
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	GetByAssetCode(ctx context.Context, code string) (*Equipment, error)
	Update(ctx context.Context, e *Equipment) error
	List(ctx context.Context, f EquipmentFilter, p pagination.Params, o query.Order) ([]*Equipment, int, error)
}

type DeviceRepository interface {
	db.HardDeleter
	Create(ctx context.Context, d *MedicalDevice) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalDevice, error)
	GetByCode(ctx context.Context, code string) (*MedicalDevice, error)
	Update(ctx context.Context, d *MedicalDevice) error
	List(ctx context.Context, f DeviceFilter, p pagination.Params, o query.Order) ([]*MedicalDevice, int, error)
}

// TransactionRepository has no Update: a stock movement is corrected by
// recording another one.
type TransactionRepository interface {
	db.HardDeleter
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, f TransactionFilter, p pagination.Params, o query.Order) ([]*Transaction, int, error)
}
