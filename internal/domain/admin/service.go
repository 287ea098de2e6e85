package admin

import (
	"context"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/validate"
	"github.com/medbase/medbase/pkg/pagination"
)

var errNotEditable = apperr.Validation("Setting is not editable")

type Service struct {
	settings SettingRepository
}

func NewService(settings SettingRepository) *Service {
	return &Service{settings: settings}
}

// checkValue reports whether value parses as settingType. A null value is
// accepted for every type.
func checkValue(settingType string, value *string) error {
	if value == nil {
		return nil
	}
	v := *value
	switch settingType {
	case "integer":
		if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil {
			return apperr.Validation("setting_value must be an integer")
		}
	case "boolean":
		if v != "true" && v != "false" {
			return apperr.Validation("setting_value must be true or false")
		}
	case "json":
		if !json.Valid([]byte(v)) {
			return apperr.Validation("setting_value must be valid JSON")
		}
	}
	return nil
}

func validateSetting(f SettingFields) error {
	if err := validate.First(
		validate.Required("setting_key", f.SettingKey),
		validate.Length("setting_key", f.SettingKey, 1, 100),
		validate.Enum("setting_type", f.SettingType, enum.SettingType),
	); err != nil {
		return err
	}
	if f.Category != nil {
		if err := validate.Length("category", *f.Category, 0, 50); err != nil {
			return err
		}
	}
	return checkValue(f.SettingType, f.SettingValue)
}

func (s *Service) checkKey(ctx context.Context, key string, self uuid.UUID) error {
	other, err := s.settings.GetByKey(ctx, key)
	if taken, err := apperr.Exists(err); err != nil {
		return err
	} else if taken && other.ID != self {
		return apperr.Duplicate("setting_key")
	}
	return nil
}

func (s *Service) CreateSetting(ctx context.Context, f SettingFields, actor string) (*Setting, error) {
	f.SettingKey = strings.TrimSpace(f.SettingKey)
	if err := validateSetting(f); err != nil {
		return nil, err
	}
	if err := s.checkKey(ctx, f.SettingKey, uuid.Nil); err != nil {
		return nil, err
	}
	st := &Setting{SettingFields: f}
	st.StampCreate(actor)
	if err := s.settings.Create(ctx, st); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("setting_key", st.SettingKey).Msg("setting created")
	return st, nil
}

func (s *Service) GetSetting(ctx context.Context, id uuid.UUID) (*Setting, error) {
	return s.settings.GetByID(ctx, id)
}

func (s *Service) GetSettingByKey(ctx context.Context, key string) (*Setting, error) {
	return s.settings.GetByKey(ctx, key)
}

func (s *Service) ListSettings(ctx context.Context, f SettingFilter, p pagination.Params, o query.Order) ([]*Setting, int, error) {
	return s.settings.List(ctx, f, p, o)
}

// UpdateSetting applies a partial update. Settings flagged non-editable are
// rejected before the body is read.
func (s *Service) UpdateSetting(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Setting, error) {
	st, err := s.settings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.IsEditable {
		return nil, errNotEditable
	}
	prev := st.SettingFields
	if err := patch.Apply(&st.SettingFields, raw); err != nil {
		return nil, err
	}
	st.SettingKey = strings.TrimSpace(st.SettingKey)
	if err := validateSetting(st.SettingFields); err != nil {
		return nil, err
	}
	if st.SettingKey != prev.SettingKey {
		if err := s.checkKey(ctx, st.SettingKey, st.ID); err != nil {
			return nil, err
		}
	}
	st.StampUpdate(actor)
	if err := s.settings.Update(ctx, st); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("setting_key", st.SettingKey).Str("updated_by", st.UpdatedBy).Msg("setting updated")
	return st, nil
}

func (s *Service) DeleteSetting(ctx context.Context, id uuid.UUID) error {
	st, err := s.settings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !st.IsEditable {
		return errNotEditable
	}
	return s.settings.Delete(ctx, id)
}
