package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"
	"tix/src/common"
	"tix/src/config"
	"tix/src/db"
	"tix/src/lib/aws"
	"tix/src/models"
	"tix/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func publicEventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			var filters types.EventsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			pageSize := filters.PageSize
			if pageSize < 1 || pageSize > 100 {
				pageSize = 20
			}
			var events []models.Event
			var total int64
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				q := tx.
					Model(&models.Event{}).
					Where("is_public = ?", true).
					Where("status = ?", types.EVENT_PUBLISHED)
				if filters.Query != "" {
					pattern := "%" + filters.Query + "%"
					q = q.Where("title ILIKE ? OR description ILIKE ? OR organization ILIKE ?", pattern, pattern, pattern)
				}
				if filters.Category != "" {
					q = q.Where("categories @> ?", `["`+filters.Category+`"]`)
				}
				if filters.EventType != "" {
					q = q.Where("type = ?", filters.EventType)
				}
				if filters.From != "" {
					from, err := time.Parse(config.TIME_PARSE_FORMAT, filters.From)
					if err != nil {
						return errors.New("invalid from date")
					}
					q = q.Where("starts_at >= ?", from)
				}
				if filters.To != "" {
					to, err := time.Parse(config.TIME_PARSE_FORMAT, filters.To)
					if err != nil {
						return errors.New("invalid to date")
					}
					q = q.Where("starts_at <= ?", to)
				}
				if err := q.Count(&total).Error; err != nil {
					return err
				}
				return q.
					Order("starts_at asc").
					Offset((page - 1) * pageSize).
					Limit(pageSize).
					Find(&events).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "count": total, "page": page, "page_size": pageSize})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			id := ctx.Params.ByName("id")
			atoi, err := strconv.Atoi(id)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			eventId := uint(atoi)
			var event models.Event
			db := db.GetDb()
			err = db.
				Model(&models.Event{}).
				Where(&models.Event{ID: eventId}).
				Where("is_public = ?", true).
				Preload("TicketTypes").
				Preload("VenueLayout").
				First(&event).Error
			if err != nil {
				err := errors.New("Event does not exist")
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			attachTicketStats(db, event.TicketTypes)
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		GET("/events/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var ticketTypes []models.TicketType
			conn := db.GetDb()
			err := conn.
				Where(&models.TicketType{EventID: params.ID}).
				Find(&ticketTypes).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			attachTicketStats(conn, ticketTypes)
			ctx.JSON(http.StatusOK, gin.H{"data": ticketTypes})
		})
	return g
}

func attachTicketStats(conn *gorm.DB, ticketTypes []models.TicketType) {
	for i := range ticketTypes {
		tt := &ticketTypes[i]
		var sold int64
		err := conn.Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.ticket_type_id = ? AND orders.status IN ?", tt.ID, []types.OrderStatus{types.ORDER_PENDING, types.ORDER_PAID}).
			Select("COALESCE(SUM(order_items.qty), 0)").
			Scan(&sold).Error
		if err != nil {
			log.Printf("Could not compute stats for ticket type %d: %s\n", tt.ID, err.Error())
			continue
		}
		remaining := uint(0)
		if sold < int64(tt.Quantity) {
			remaining = tt.Quantity - uint(sold)
		}
		tt.Stats = &models.TicketTypeStats{
			TicketTypeID: tt.ID,
			Sold:         uint(sold),
			Remaining:    remaining,
		}
	}
}

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/my/events", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var events []models.Event
			db := db.GetDb()
			err := db.
				Where(&models.Event{OwnerID: userId}).
				Preload("TicketTypes").
				Order("created_at desc").
				Find(&events).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "count": len(events)})
		}).
		PATCH("/events/:id/publish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			event, err := common.PublishEvent(params.ID, userId)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				if errors.Is(err, common.ErrSeatsNotReconciled) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error publishing event %d: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		PATCH("/events/:id/unpublish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			event, err := common.UnpublishEvent(params.ID, userId)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		PATCH("/events/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			event, err := common.CancelEvent(params.ID, userId)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		GET("/events/:id/reconcile", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			conn := db.GetDb()
			var event models.Event
			err := conn.
				Preload("TicketTypes").
				Where(&models.Event{ID: params.ID, OwnerID: userId}).
				First(&event).Error
			if err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if event.Type != types.EVENT_TYPE_PREMIUM {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "reconciliation only applies to premium events"})
				return
			}
			outcome, err := common.ReconcileEvent(conn, &event)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": outcome})
		}).
		POST("/events/:id/images", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			kind := ctx.PostForm("kind")
			if kind != "banner" && kind != "postcard" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "kind must be banner or postcard"})
				return
			}
			file, err := ctx.FormFile("image")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
				return
			}
			userId := ctx.GetUint("id")
			conn := db.GetDb()
			var event models.Event
			if err := conn.Where(&models.Event{ID: params.ID, OwnerID: userId}).First(&event).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			wd, _ := os.Getwd()
			tempdir := os.Getenv("TEMP_DIR")
			filename := fmt.Sprintf("%d-%s%s", event.ID, kind, path.Ext(file.Filename))
			filepath := path.Join(wd, tempdir, filename)
			if err := ctx.SaveUploadedFile(file, filepath); err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			defer os.Remove(filepath)
			contentType := file.Header.Get("Content-Type")
			key := fmt.Sprintf("events/%d/%s", event.ID, filename)
			url, err := aws.S3UploadAsset(key, filepath, contentType)
			if err != nil {
				log.Printf("Could not upload %s image for event %d: %s\n", kind, event.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
				return
			}
			column := "banner_image"
			if kind == "postcard" {
				column = "postcard"
			}
			if err := conn.Model(&event).Update(column, key).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"key": key, "url": *url}})
		}).
		DELETE("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.Where(&models.Event{ID: params.ID, OwnerID: userId}).First(&event).Error; err != nil {
					return err
				}
				if event.Status != types.EVENT_DRAFT {
					return errors.New("only draft events can be deleted")
				}
				if err := tx.Where(&models.TicketType{EventID: event.ID}).Delete(&models.TicketType{}).Error; err != nil {
					return err
				}
				return tx.Delete(&event).Error
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
