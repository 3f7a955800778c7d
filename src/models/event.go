package models

import (
	"log"
	"time"
	"tix/src/lib"
	"tix/src/types"
)

type Event struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	Title         string            `json:"title,omitempty"`
	Description   *string           `json:"description,omitempty"`
	Organization  string            `json:"organization,omitempty"`
	Slug          string            `gorm:"index" json:"slug,omitempty"`
	StartsAt      time.Time         `json:"starts_at,omitempty"`
	EndsAt        *time.Time        `json:"ends_at,omitempty"`
	Address       string            `json:"address,omitempty"`
	Categories    types.JSONBArray  `gorm:"type:jsonb" json:"categories,omitempty"`
	Tags          types.JSONBArray  `gorm:"type:jsonb" json:"tags,omitempty"`
	Type          types.EventType   `gorm:"default:'simple'" json:"type,omitempty"`
	Status        types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`
	IsPublic      bool              `gorm:"default:false" json:"is_public"`
	MaxAttendees  uint              `json:"max_attendees,omitempty"`
	DisplayPrice  *float32          `json:"display_price,omitempty"`
	BannerImage   *string           `json:"banner_image,omitempty"`
	Postcard      *string           `json:"postcard_image,omitempty"`
	OwnerID       uint              `json:"owner_id,omitempty"`
	VenueLayoutID *uint             `json:"venue_layout_id,omitempty"`

	Owner       User         `gorm:"foreignKey:owner_id" json:"-"`
	VenueLayout *VenueLayout `gorm:"foreignKey:venue_layout_id" json:"venue_layout,omitempty"`
	TicketTypes []TicketType `gorm:"foreignKey:event_id" json:"ticket_types,omitempty"`
	Orders      []Order      `gorm:"foreignKey:event_id" json:"-"`

	types.Timestamps
}

func EventPublishedProducer(id uint, payload map[string]any) error {
	err := lib.KafkaProduceMessage("events_published_producer", "events-published", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}

func EventCompletedProducer(id uint, payload map[string]any) error {
	err := lib.KafkaProduceMessage("events_completed_producer", "events-completed", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}
