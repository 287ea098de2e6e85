package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

type settingRepoPG struct {
	pool db.Querier
}

func NewSettingRepo(pool db.Querier) SettingRepository {
	return &settingRepoPG{pool: pool}
}

func (r *settingRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const settingCols = `id, setting_key, setting_value, setting_type, category, description, is_public,
	is_editable, ` + db.AuditCols

var settingConstraints = db.Constraints{"system_settings_setting_key_key": "setting_key"}

var settingSort = query.Sort{
	Columns: map[string]string{
		"category":    "category, setting_key",
		"setting_key": "setting_key",
		"created_at":  "created_at",
		"updated_at":  "updated_at",
	},
	DefaultField: "category",
	DefaultOrder: query.Asc,
}

func scanSetting(row pgx.Row) (*Setting, error) {
	var s Setting
	dest := []interface{}{&s.ID, &s.SettingKey, &s.SettingValue, &s.SettingType, &s.Category,
		&s.Description, &s.IsPublic, &s.IsEditable}
	if err := row.Scan(append(dest, s.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "setting", settingConstraints)
	}
	return &s, nil
}

func (r *settingRepoPG) Create(ctx context.Context, s *Setting) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO system_settings (id, setting_key, setting_value, setting_type, category, description,
			is_public, is_editable, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		s.ID, s.SettingKey, s.SettingValue, s.SettingType, s.Category, s.Description,
		s.IsPublic, s.IsEditable, s.CreatedBy, s.UpdatedBy,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err, "setting", settingConstraints)
}

func (r *settingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Setting, error) {
	return scanSetting(r.conn(ctx).QueryRow(ctx, `SELECT `+settingCols+` FROM system_settings WHERE id = $1`, id))
}

func (r *settingRepoPG) GetByKey(ctx context.Context, key string) (*Setting, error) {
	return scanSetting(r.conn(ctx).QueryRow(ctx,
		`SELECT `+settingCols+` FROM system_settings WHERE setting_key = $1`, key))
}

func (r *settingRepoPG) Update(ctx context.Context, s *Setting) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE system_settings SET
			setting_key = $2, setting_value = $3, setting_type = $4, category = $5,
			description = $6, is_public = $7, is_editable = $8,
			updated_by = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.SettingKey, s.SettingValue, s.SettingType, s.Category,
		s.Description, s.IsPublic, s.IsEditable,
		s.UpdatedBy,
	).Scan(&s.UpdatedAt)
	return db.Classify(err, "setting", settingConstraints)
}

func (r *settingRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM system_settings WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "setting", nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("setting")
	}
	return nil
}

func (r *settingRepoPG) List(ctx context.Context, f SettingFilter, p pagination.Params, o query.Order) ([]*Setting, int, error) {
	b := query.New("system_settings", settingCols).EqString("category", f.Category)
	query.Eq(b, "is_public", f.IsPublic)
	settingSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanSetting)
}
