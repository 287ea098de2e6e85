package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type RecordRepository interface {
	db.HardDeleter
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	GetByNumber(ctx context.Context, number string) (*MedicalRecord, error)
	Update(ctx context.Context, r *MedicalRecord) error
	List(ctx context.Context, f RecordFilter, p pagination.Params, o query.Order) ([]*MedicalRecord, int, error)
}
