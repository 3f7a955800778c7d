package models

import (
	"tix/src/types"

	"github.com/google/uuid"
)

type Order struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	BuyerID        uint              `json:"buyer_id,omitempty"`
	EventID        uint              `json:"event_id,omitempty"`
	SellerID       *uint             `json:"seller_id,omitempty"`
	Currency       string            `json:"currency,omitempty"`
	Subtotal       float64           `json:"subtotal"`
	Status         types.OrderStatus `gorm:"default:'pending'" json:"status,omitempty"`
	Gateway        *string           `json:"gateway,omitempty"`
	TransactionRef *string           `json:"transaction_ref,omitempty"`
	FailureReason  *string           `json:"failure_reason,omitempty"`
	CustomerEmail  string            `json:"customer_email,omitempty"`
	Metadata       types.JSONB       `gorm:"type:jsonb" json:"metadata,omitempty"`

	Buyer  User           `gorm:"foreignKey:buyer_id" json:"-"`
	Event  Event          `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Items  []OrderItem    `gorm:"foreignKey:order_id" json:"items,omitempty"`
	Issued []IssuedTicket `gorm:"foreignKey:order_id" json:"issued_tickets,omitempty"`

	types.Timestamps
}

type OrderItem struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	OrderID      uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	TicketTypeID uint      `json:"ticket_type_id,omitempty"`
	Qty          uint      `json:"qty,omitempty"`
	UnitPrice    float32   `json:"unit_price,omitempty"`
	Subtotal     float32   `json:"subtotal,omitempty"`

	TicketType TicketType `json:"ticket_type,omitempty"`

	types.Timestamps
}

// IssuedTicket is a single admissible ticket minted when an order is paid.
type IssuedTicket struct {
	ID           uuid.UUID                `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	OrderID      uuid.UUID                `gorm:"type:uuid" json:"order_id,omitempty"`
	TicketTypeID uint                     `json:"ticket_type_id,omitempty"`
	Code         string                   `gorm:"uniqueIndex" json:"code,omitempty"`
	Status       types.IssuedTicketStatus `gorm:"default:'valid'" json:"status,omitempty"`

	TicketType TicketType `json:"ticket_type,omitempty"`

	types.Timestamps
}
