package main

import (
	"net/http"
	"time"
	"tix/src/db"
	"tix/src/models"
	"tix/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func dashboardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/dashboard/organizer", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			conn := db.GetDb()

			var eventCounts []struct {
				Status types.EventStatus `json:"status"`
				Count  int64             `json:"count"`
			}
			if err := conn.Model(&models.Event{}).
				Where("owner_id = ?", userId).
				Select("status, count(*) as count").
				Group("status").
				Scan(&eventCounts).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var sales struct {
				Orders  int64   `json:"orders"`
				Tickets int64   `json:"tickets"`
				Revenue float64 `json:"revenue"`
			}
			err := conn.Model(&models.Order{}).
				Joins("JOIN events ON events.id = orders.event_id").
				Where("events.owner_id = ? AND orders.status = ?", userId, types.ORDER_PAID).
				Select("count(distinct orders.id) as orders, coalesce(sum(orders.subtotal), 0) as revenue").
				Scan(&sales).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			err = conn.Model(&models.IssuedTicket{}).
				Joins("JOIN orders ON orders.id = issued_tickets.order_id").
				Joins("JOIN events ON events.id = orders.event_id").
				Where("events.owner_id = ? AND issued_tickets.status <> ?", userId, types.ISSUED_TICKET_VOID).
				Count(&sales.Tickets).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var upcoming []models.Event
			if err := conn.
				Where("owner_id = ? AND status = ? AND starts_at > ?", userId, types.EVENT_PUBLISHED, time.Now()).
				Order("starts_at asc").
				Limit(5).
				Find(&upcoming).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"events_by_status": eventCounts,
				"sales":            sales,
				"upcoming":         upcoming,
			}})
		}).
		GET("/dashboard/seller", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			conn := db.GetDb()

			var memberships []models.TeamMember
			if err := conn.
				Where(&models.TeamMember{UserID: userId}).
				Preload("Owner").
				Find(&memberships).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var totals struct {
				Accrued float64 `json:"accrued"`
				Paid    float64 `json:"paid"`
				Orders  int64   `json:"orders"`
			}
			err := conn.Model(&models.SellerPayout{}).
				Where("seller_id = ?", userId).
				Select(
					"coalesce(sum(amount) filter (where status = 'accrued'), 0) as accrued, "+
						"coalesce(sum(amount) filter (where status = 'paid'), 0) as paid, "+
						"count(*) as orders").
				Scan(&totals).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var recent []models.SellerPayout
			if err := conn.
				Where(&models.SellerPayout{SellerID: userId}).
				Order("created_at desc").
				Limit(10).
				Find(&recent).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"teams":   memberships,
				"totals":  totals,
				"payouts": recent,
			}})
		})
	return g
}

func adminDashboardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/admin/dashboard", func(ctx *gin.Context) {
			conn := db.GetDb()
			var stats struct {
				Users   int64   `json:"users"`
				Events  int64   `json:"events"`
				Orders  int64   `json:"orders"`
				Revenue float64 `json:"revenue"`
			}
			if err := conn.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := conn.Model(&models.Event{}).Count(&stats.Events).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			err := conn.Model(&models.Order{}).
				Where("status = ?", types.ORDER_PAID).
				Select("count(*) as orders, coalesce(sum(subtotal), 0) as revenue").
				Scan(&stats).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": stats})
		}).
		POST("/admin/cleanup/orders", func(ctx *gin.Context) {
			// pending orders older than an hour gave up on payment long ago
			conn := db.GetDb()
			var affected int64
			err := conn.Transaction(func(tx *gorm.DB) error {
				result := tx.Model(&models.Order{}).
					Where("status = ? AND created_at < ?", types.ORDER_PENDING, time.Now().Add(-1*time.Hour)).
					Update("status", types.ORDER_CANCELLED)
				affected = result.RowsAffected
				return result.Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": affected}})
		}).
		POST("/admin/cleanup/ticket-types", func(ctx *gin.Context) {
			conn := db.GetDb()
			var affected int64
			err := conn.Transaction(func(tx *gorm.DB) error {
				result := tx.
					Where("event_id NOT IN (?)", tx.Model(&models.Event{}).Select("id")).
					Delete(&models.TicketType{})
				affected = result.RowsAffected
				return result.Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": affected}})
		}).
		POST("/admin/cleanup/events", func(ctx *gin.Context) {
			// drafts untouched for 90 days are abandoned
			conn := db.GetDb()
			var affected int64
			err := conn.Transaction(func(tx *gorm.DB) error {
				cutoff := time.Now().AddDate(0, 0, -90)
				var stale []models.Event
				if err := tx.
					Where("status = ? AND updated_at < ?", types.EVENT_DRAFT, cutoff).
					Find(&stale).Error; err != nil {
					return err
				}
				for _, event := range stale {
					if err := tx.Where(&models.TicketType{EventID: event.ID}).Delete(&models.TicketType{}).Error; err != nil {
						return err
					}
					if err := tx.Delete(&event).Error; err != nil {
						return err
					}
					affected++
				}
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": affected}})
		})
	return g
}
