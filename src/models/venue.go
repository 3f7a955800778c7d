package models

import (
	"tix/src/types"
)

// VenueLayout is owned by a user and shared across premium events by
// reference, never exclusively by one event.
type VenueLayout struct {
	ID              uint             `gorm:"primarykey" json:"id"`
	Name            string           `json:"name,omitempty"`
	Description     string           `json:"description,omitempty"`
	Capacity        uint             `json:"capacity,omitempty"`
	PriceCategories types.JSONBArray `gorm:"type:jsonb" json:"price_categories,omitempty"`
	OwnerID         uint             `json:"owner_id,omitempty"`

	Owner User   `gorm:"foreignKey:owner_id" json:"-"`
	Seats []Seat `gorm:"foreignKey:venue_layout_id" json:"seats,omitempty"`

	types.Timestamps
}

type Seat struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	VenueLayoutID uint    `json:"venue_layout_id,omitempty"`
	Row           string  `json:"row,omitempty"`
	Number        uint    `json:"number,omitempty"`
	X             float32 `json:"x,omitempty"`
	Y             float32 `json:"y,omitempty"`
	Category      string  `json:"category,omitempty"`

	types.Timestamps
}
