package common

import (
	"log"
	"tix/src/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionAmount computes a seller's cut of an order using exact decimal
// arithmetic, banker's rounded to cents.
func CommissionAmount(subtotal float64, rate float32) decimal.Decimal {
	return decimal.NewFromFloat(subtotal).
		Mul(decimal.NewFromFloat32(rate)).
		RoundBank(2)
}

// AccruePayout records the seller commission for a paid, attributed order.
// Orders without a seller accrue nothing.
func AccruePayout(tx *gorm.DB, order *models.Order) error {
	if order.SellerID == nil {
		return nil
	}
	var member models.TeamMember
	if err := tx.Where(&models.TeamMember{UserID: *order.SellerID}).First(&member).Error; err != nil {
		return err
	}
	if member.CommissionRate <= 0 {
		return nil
	}
	amount := CommissionAmount(order.Subtotal, member.CommissionRate)
	payout := models.SellerPayout{
		SellerID: *order.SellerID,
		OrderID:  order.ID,
		EventID:  order.EventID,
		Currency: order.Currency,
		Amount:   amount.InexactFloat64(),
		Rate:     member.CommissionRate,
	}
	if err := tx.Create(&payout).Error; err != nil {
		return err
	}
	log.Printf("Accrued payout of %s %s for seller %d on order %s\n", amount.StringFixed(2), order.Currency, *order.SellerID, order.ID)
	return nil
}

// VoidPayoutsForOrder reverses accruals when a paid order is cancelled.
func VoidPayoutsForOrder(tx *gorm.DB, orderID string) error {
	return tx.Model(&models.SellerPayout{}).
		Where("order_id = ? AND status = ?", orderID, "accrued").
		Update("status", "void").Error
}
