package main

import (
	"errors"
	"net/http"
	"tix/src/common"
	"tix/src/db"
	"tix/src/models"
	"tix/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func orderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/orders", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var orders []models.Order
			db := db.GetDb()
			err := db.
				Where(&models.Order{BuyerID: userId}).
				Preload("Event").
				Preload("Items").
				Order("created_at desc").
				Find(&orders).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders, "count": len(orders)})
		}).
		GET("/orders/:id", func(ctx *gin.Context) {
			orderId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
				return
			}
			userId := ctx.GetUint("id")
			var order models.Order
			db := db.GetDb()
			err = db.
				Where(&models.Order{ID: orderId, BuyerID: userId}).
				Preload("Event").
				Preload("Items").
				Preload("Items.TicketType").
				Preload("Issued").
				First(&order).Error
			if err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order})
		}).
		PATCH("/orders/:id/cancel", func(ctx *gin.Context) {
			orderId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				var order models.Order
				if err := tx.Where(&models.Order{ID: orderId, BuyerID: userId}).First(&order).Error; err != nil {
					return err
				}
				if order.Status != types.ORDER_PENDING && order.Status != types.ORDER_PAID {
					return errors.New("order cannot be cancelled")
				}
				if err := tx.Model(&order).Update("status", types.ORDER_CANCELLED).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.IssuedTicket{}).
					Where("order_id = ?", order.ID).
					Update("status", types.ISSUED_TICKET_VOID).Error; err != nil {
					return err
				}
				return common.VoidPayoutsForOrder(tx, order.ID.String())
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
