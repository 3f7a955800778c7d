package models

import (
	"tix/src/types"

	"github.com/google/uuid"
)

// Setting replaces the legacy client-side storage for per-user application
// preferences (theme, notification prefs and similar).
type Setting struct {
	ID           uuid.UUID   `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       uint        `gorm:"uniqueIndex:user_key" json:"user_id,omitempty"`
	SettingKey   string      `gorm:"uniqueIndex:user_key" json:"setting_key"`
	SettingValue types.JSONB `gorm:"type:jsonb" json:"setting_value"`
	Group        string      `json:"group,omitempty"`

	types.Timestamps
}
