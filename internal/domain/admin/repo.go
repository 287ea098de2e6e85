package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type SettingRepository interface {
	db.HardDeleter
	Create(ctx context.Context, s *Setting) error
	GetByID(ctx context.Context, id uuid.UUID) (*Setting, error)
	GetByKey(ctx context.Context, key string) (*Setting, error)
	Update(ctx context.Context, s *Setting) error
	List(ctx context.Context, f SettingFilter, p pagination.Params, o query.Order) ([]*Setting, int, error)
}
