// Package admin manages runtime system settings.
package admin

import (
	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/db"
)

type SettingFields struct {
	SettingKey   string  `json:"setting_key"`
	SettingValue *string `json:"setting_value"`
	SettingType  string  `json:"setting_type"`
	Category     *string `json:"category"`
	Description  *string `json:"description"`
	IsPublic     bool    `json:"is_public"`
	IsEditable   bool    `json:"is_editable"`
}

func NewSettingFields() SettingFields {
	return SettingFields{SettingType: enum.DefaultSettingType, IsEditable: true}
}

// Setting is one key/value entry. SettingValue is stored as text and must
// parse as SettingType.
type Setting struct {
	ID uuid.UUID `json:"id"`
	SettingFields
	db.Audit
}

type SettingFilter struct {
	Category string
	IsPublic *bool
}
