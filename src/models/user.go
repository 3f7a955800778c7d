package models

import (
	"time"
	"tix/src/types"
)

type User struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `json:"name,omitempty"`
	Email         string          `gorm:"uniqueIndex" json:"email,omitempty"`
	Role          string          `gorm:"default:'attendee'" json:"role,omitempty"`
	UID           string          `json:"uid,omitempty"`
	EmailVerified bool            `json:"email_verified,omitempty"`
	VerifiedAt    time.Time       `json:"verified_at,omitempty"`
	Metadata      *types.Metadata `gorm:"type:jsonb"`

	Events       []Event       `gorm:"foreignKey:owner_id" json:"events,omitempty"`
	Orders       []Order       `gorm:"foreignKey:buyer_id" json:"orders,omitempty"`
	VenueLayouts []VenueLayout `gorm:"foreignKey:owner_id" json:"venue_layouts,omitempty"`

	types.Timestamps
}
