package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type PatientRepository interface {
	db.HardDeleter
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByNumber(ctx context.Context, number string) (*Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, f PatientFilter, p pagination.Params, o query.Order) ([]*Patient, int, error)
}

// The sub-resource repositories scope every read and delete by patient, so
// a record is only reachable under its own patient.

type AllergyRepository interface {
	Create(ctx context.Context, a *Allergy) error
	Get(ctx context.Context, patientID, id uuid.UUID) (*Allergy, error)
	Update(ctx context.Context, a *Allergy) error
	Delete(ctx context.Context, patientID, id uuid.UUID) error
	List(ctx context.Context, patientID uuid.UUID, p pagination.Params, o query.Order) ([]*Allergy, int, error)
}

type HistoryRepository interface {
	Create(ctx context.Context, h *HistoryEntry) error
	Get(ctx context.Context, patientID, id uuid.UUID) (*HistoryEntry, error)
	Update(ctx context.Context, h *HistoryEntry) error
	Delete(ctx context.Context, patientID, id uuid.UUID) error
	List(ctx context.Context, patientID uuid.UUID, f HistoryFilter, p pagination.Params, o query.Order) ([]*HistoryEntry, int, error)
}

type VitalSignRepository interface {
	Create(ctx context.Context, v *VitalSign) error
	Get(ctx context.Context, patientID, id uuid.UUID) (*VitalSign, error)
	Update(ctx context.Context, v *VitalSign) error
	Delete(ctx context.Context, patientID, id uuid.UUID) error
	List(ctx context.Context, patientID uuid.UUID, p pagination.Params, o query.Order) ([]*VitalSign, int, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	Get(ctx context.Context, patientID, id uuid.UUID) (*Document, error)
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, patientID, id uuid.UUID) error
	List(ctx context.Context, patientID uuid.UUID, f DocumentFilter, p pagination.Params, o query.Order) ([]*Document, int, error)
}
