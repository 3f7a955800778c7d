package models

import (
	"tix/src/types"
)

// PaymentConfig stores one provider's credentials for one environment.
// Rows are managed by admins; gateway initialization reads the active row
// for the running environment and falls back to env vars when absent.
type PaymentConfig struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Provider    string `gorm:"uniqueIndex:provider_env" json:"provider"`
	Environment string `gorm:"uniqueIndex:provider_env" json:"environment"`
	AppID       string `json:"app_id,omitempty"`
	LocationID  string `json:"location_id,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	Secret      string `json:"-"`
	AccessToken string `json:"-"`
	Active      bool   `gorm:"default:false" json:"active"`

	types.Timestamps
}
