package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"
	"tix/src/db"
	"tix/src/lib"
	"tix/src/lib/aws"
	"tix/src/models"
	"tix/src/types"
	"tix/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/orders/:id/tickets", func(ctx *gin.Context) {
			orderId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
				return
			}
			userId := ctx.GetUint("id")
			var order models.Order
			conn := db.GetDb()
			err = conn.
				Preload("Issued").
				Preload("Issued.TicketType").
				Where(&models.Order{ID: orderId, BuyerID: userId}).
				First(&order).Error
			if err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order.Issued, "count": len(order.Issued)})
		}).
		GET("/orders/:id/tickets/:ticketId/download", func(ctx *gin.Context) {
			var params types.TicketDownloadURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			orderId, err := uuid.Parse(params.OrderID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
				return
			}
			ticketId, err := uuid.Parse(params.TicketID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
				return
			}
			userId := ctx.GetUint("id")
			conn := db.GetDb()
			var order models.Order
			if err := conn.Where(&models.Order{ID: orderId, BuyerID: userId}).First(&order).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			var ticket models.IssuedTicket
			if err := conn.Where(&models.IssuedTicket{ID: ticketId, OrderID: orderId}).First(&ticket).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if ticket.Status == types.ISSUED_TICKET_VOID {
				ctx.JSON(http.StatusGone, gin.H{"error": "ticket is void"})
				return
			}

			// presigned URLs are cached until just before they expire
			cacheKey := fmt.Sprintf("eticket:%s", ticket.ID)
			rdb := lib.GetRedisClient()
			if cached, err := rdb.Get(ctx.Request.Context(), cacheKey).Result(); err == nil && cached != "" {
				ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"url": cached}})
				return
			}

			url, err := generateETicket(&ticket)
			if err != nil {
				log.Printf("Could not generate eticket for %s: %s\n", ticket.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate ticket"})
				return
			}
			if err := rdb.Set(ctx.Request.Context(), cacheKey, *url, 55*time.Minute).Err(); err != nil {
				log.Printf("Could not cache eticket url: %s\n", err.Error())
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"url": *url}})
		}).
		POST("/tickets/admit", func(ctx *gin.Context) {
			// scanned at the door by the event organizer
			var body struct {
				Code string `json:"code" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, err := utils.DecryptMessage(body.Code); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "code is not a valid ticket"})
				return
			}
			userId := ctx.GetUint("id")
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				var ticket models.IssuedTicket
				if err := tx.
					Joins("JOIN orders ON orders.id = issued_tickets.order_id").
					Joins("JOIN events ON events.id = orders.event_id").
					Where("issued_tickets.code = ? AND events.owner_id = ?", body.Code, userId).
					First(&ticket).Error; err != nil {
					return err
				}
				if ticket.Status != types.ISSUED_TICKET_VALID {
					return fmt.Errorf("ticket is %s", ticket.Status)
				}
				return tx.Model(&ticket).Update("status", types.ISSUED_TICKET_ADMITTED).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"admitted": true}})
		})
	return g
}

// generateETicket renders the admission code as a QR image, uploads it and
// returns a presigned URL.
func generateETicket(ticket *models.IssuedTicket) (*string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	tempdir := os.Getenv("TEMP_DIR")
	filename := fmt.Sprintf("%s.jpeg", ticket.ID)
	filepath := path.Join(wd, tempdir, filename)
	qrc, err := qrcode.New(ticket.Code)
	if err != nil {
		return nil, err
	}
	if err := qrc.Save(filepath); err != nil {
		return nil, err
	}
	defer os.Remove(filepath)
	key := fmt.Sprintf("etickets/%s", filename)
	return aws.S3UploadAsset(key, filepath, "image/jpeg")
}
