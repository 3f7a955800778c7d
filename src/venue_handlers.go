package main

import (
	"errors"
	"net/http"
	"tix/src/db"
	"tix/src/models"
	"tix/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func venueHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/venues", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var layouts []models.VenueLayout
			db := db.GetDb()
			err := db.
				Where(&models.VenueLayout{OwnerID: userId}).
				Preload("Seats").
				Find(&layouts).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": layouts, "count": len(layouts)})
		}).
		GET("/venues/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var layout models.VenueLayout
			db := db.GetDb()
			err := db.
				Where(&models.VenueLayout{ID: params.ID, OwnerID: userId}).
				Preload("Seats").
				First(&layout).Error
			if err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": layout})
		}).
		POST("/venues", func(ctx *gin.Context) {
			var body types.CreateVenueLayoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			layout := models.VenueLayout{
				Name:        body.Name,
				Description: body.Description,
				Capacity:    body.Capacity,
				OwnerID:     userId,
			}
			for _, c := range body.PriceCategories {
				layout.PriceCategories = append(layout.PriceCategories, c)
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&layout).Error; err != nil {
					return err
				}
				if len(body.Seats) == 0 {
					return nil
				}
				seats := make([]models.Seat, 0, len(body.Seats))
				for _, s := range body.Seats {
					seats = append(seats, models.Seat{
						VenueLayoutID: layout.ID,
						Row:           s.Row,
						Number:        s.Number,
						X:             s.X,
						Y:             s.Y,
						Category:      s.Category,
					})
				}
				return tx.Create(&seats).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": layout})
		}).
		PUT("/venues/:id/seats", func(ctx *gin.Context) {
			// replaces the seat map wholesale, same as ticket types on save
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body struct {
				Seats []types.SeatRequestBody `json:"seats" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var layout models.VenueLayout
				if err := tx.Where(&models.VenueLayout{ID: params.ID, OwnerID: userId}).First(&layout).Error; err != nil {
					return err
				}
				if err := tx.Where(&models.Seat{VenueLayoutID: layout.ID}).Delete(&models.Seat{}).Error; err != nil {
					return err
				}
				if len(body.Seats) == 0 {
					return nil
				}
				seats := make([]models.Seat, 0, len(body.Seats))
				for _, s := range body.Seats {
					seats = append(seats, models.Seat{
						VenueLayoutID: layout.ID,
						Row:           s.Row,
						Number:        s.Number,
						X:             s.X,
						Y:             s.Y,
						Category:      s.Category,
					})
				}
				return tx.Create(&seats).Error
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
		}).
		DELETE("/venues/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var inUse int64
				if err := tx.Model(&models.Event{}).Where("venue_layout_id = ?", params.ID).Count(&inUse).Error; err != nil {
					return err
				}
				if inUse > 0 {
					return errors.New("layout is referenced by existing events")
				}
				result := tx.Where(&models.VenueLayout{ID: params.ID, OwnerID: userId}).Delete(&models.VenueLayout{})
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected == 0 {
					return gorm.ErrRecordNotFound
				}
				return tx.Where(&models.Seat{VenueLayoutID: params.ID}).Delete(&models.Seat{}).Error
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
