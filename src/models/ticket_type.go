package models

import (
	"time"
	"tix/src/types"
)

type TicketType struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	EventID         uint       `json:"event_id,omitempty"`
	Name            string     `json:"name,omitempty"`
	Description     string     `json:"description,omitempty"`
	Price           float32    `json:"price"`
	EarlyBirdPrice  *float32   `json:"early_bird_price,omitempty"`
	EarlyBirdCutoff *time.Time `json:"early_bird_cutoff,omitempty"`
	Quantity        uint       `json:"quantity"`
	MaxPerPerson    uint       `json:"max_per_person,omitempty"`

	Event Event `json:"-"`

	Stats *TicketTypeStats `gorm:"-" json:"stats,omitempty"`

	types.Timestamps
}

type TicketTypeStats struct {
	TicketTypeID uint `json:"ticket_type_id,omitempty"`
	Sold         uint `json:"sold"`
	Remaining    uint `json:"remaining"`
}

// EffectivePrice applies the early-bird price while the cutoff has not passed.
func (t *TicketType) EffectivePrice(now time.Time) float32 {
	if t.EarlyBirdPrice != nil && t.EarlyBirdCutoff != nil && now.Before(*t.EarlyBirdCutoff) {
		return *t.EarlyBirdPrice
	}
	return t.Price
}
