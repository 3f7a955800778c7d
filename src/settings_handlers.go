package main

import (
	"errors"
	"net/http"
	"tix/src/db"
	"tix/src/models"
	"tix/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func settingsHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/settings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			group := ctx.Query("group")
			var settings []models.Setting
			db := db.GetDb()
			q := db.Where(&models.Setting{UserID: userId})
			if group != "" {
				q = q.Where(&models.Setting{Group: group})
			}
			if err := q.Find(&settings).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": settings, "count": len(settings)})
		}).
		PUT("/settings", func(ctx *gin.Context) {
			var body types.CreateSettingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var setting models.Setting
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				err := tx.Where(&models.Setting{UserID: userId, SettingKey: body.Key}).First(&setting).Error
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				setting.UserID = userId
				setting.SettingKey = body.Key
				setting.SettingValue = types.JSONB{"value": body.Value}
				setting.Group = body.Group
				return tx.Save(&setting).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": setting})
		}).
		DELETE("/settings/:id", func(ctx *gin.Context) {
			settingId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting id"})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			result := db.
				Where("id = ? AND user_id = ?", settingId, userId).
				Delete(&models.Setting{})
			if result.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": result.Error.Error()})
				return
			}
			if result.RowsAffected == 0 {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
