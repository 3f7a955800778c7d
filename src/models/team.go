package models

import (
	"tix/src/types"
)

// TeamMember links a seller or manager to an organizer's team.
// CommissionRate is the fraction of an attributed order accrued as payout.
type TeamMember struct {
	ID             uint                   `gorm:"primarykey" json:"id"`
	OwnerID        uint                   `gorm:"uniqueIndex:owner_user" json:"owner_id,omitempty"`
	UserID         uint                   `gorm:"uniqueIndex:owner_user" json:"member_id,omitempty"`
	Role           string                 `gorm:"default:'seller'" json:"role,omitempty"`
	CommissionRate float32                `gorm:"default:0" json:"commission_rate"`
	SellerCode     string                 `gorm:"uniqueIndex" json:"seller_code,omitempty"`
	Status         types.TeamMemberStatus `gorm:"default:'invited'" json:"status,omitempty"`

	Owner User `gorm:"foreignKey:owner_id" json:"-"`
	User  User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
