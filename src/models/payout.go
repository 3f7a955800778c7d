package models

import (
	"tix/src/types"

	"github.com/google/uuid"
)

type SellerPayout struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	SellerID uint               `json:"seller_id,omitempty"`
	OrderID  uuid.UUID          `gorm:"type:uuid" json:"order_id,omitempty"`
	EventID  uint               `json:"event_id,omitempty"`
	Currency string             `json:"currency,omitempty"`
	Amount   float64            `json:"amount"`
	Rate     float32            `json:"rate"`
	Status   types.PayoutStatus `gorm:"default:'accrued'" json:"status,omitempty"`

	Seller User  `gorm:"foreignKey:seller_id" json:"-"`
	Order  Order `gorm:"foreignKey:order_id" json:"-"`

	types.Timestamps
}
