package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"tix/src/db"
	"tix/src/lib"
	"tix/src/models"
	"tix/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func teamHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/team", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var members []models.TeamMember
			db := db.GetDb()
			err := db.
				Where(&models.TeamMember{OwnerID: userId}).
				Preload("User").
				Find(&members).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": members, "count": len(members)})
		}).
		POST("/team", func(ctx *gin.Context) {
			var body types.AddTeamMemberRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var member models.TeamMember
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				var user models.User
				if err := tx.Where(&models.User{Email: body.Email}).First(&user).Error; err != nil {
					return errors.New("no account with that email")
				}
				if user.ID == userId {
					return errors.New("cannot add yourself to your own team")
				}
				member = models.TeamMember{
					OwnerID:        userId,
					UserID:         user.ID,
					Role:           body.Role,
					CommissionRate: body.CommissionRate,
					SellerCode:     newSellerCode(),
				}
				return tx.Create(&member).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go func() {
				err := lib.SendMail(&lib.SendMailInput{
					From:     os.Getenv("MAIL_FROM"),
					FromName: "Tix",
					To:       []string{body.Email},
					Subject:  "You have been invited to a seller team",
					Body:     fmt.Sprintf("Your seller code is %s. Share it with buyers to earn commission on sales.", member.SellerCode),
				})
				if err != nil {
					log.Printf("Could not send invite mail: %s\n", err.Error())
				}
			}()
			ctx.JSON(http.StatusCreated, gin.H{"data": member})
		}).
		PATCH("/team/members/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body struct {
				CommissionRate *float32                `json:"commission_rate,omitempty" binding:"omitempty,gte=0,lte=1"`
				Status         *types.TeamMemberStatus `json:"status,omitempty" binding:"omitempty,oneof=invited active disabled"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			updates := map[string]any{}
			if body.CommissionRate != nil {
				updates["commission_rate"] = *body.CommissionRate
			}
			if body.Status != nil {
				updates["status"] = *body.Status
			}
			if len(updates) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
				return
			}
			db := db.GetDb()
			result := db.Model(&models.TeamMember{}).
				Where(&models.TeamMember{ID: params.ID, OwnerID: userId}).
				Updates(updates)
			if result.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": result.Error.Error()})
				return
			}
			if result.RowsAffected == 0 {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/team/members/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			result := db.
				Where(&models.TeamMember{ID: params.ID, OwnerID: userId}).
				Delete(&models.TeamMember{})
			if result.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": result.Error.Error()})
				return
			}
			if result.RowsAffected == 0 {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/team/payouts", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var payouts []models.SellerPayout
			db := db.GetDb()
			err := db.
				Joins("JOIN team_members ON team_members.user_id = seller_payouts.seller_id").
				Where("team_members.owner_id = ?", userId).
				Order("seller_payouts.created_at desc").
				Find(&payouts).Error
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payouts, "count": len(payouts)})
		}).
		PATCH("/team/payouts/:id/paid", func(ctx *gin.Context) {
			payoutId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err = db.Transaction(func(tx *gorm.DB) error {
				var payout models.SellerPayout
				if err := tx.
					Joins("JOIN team_members ON team_members.user_id = seller_payouts.seller_id").
					Where("seller_payouts.id = ? AND team_members.owner_id = ?", payoutId, userId).
					First(&payout).Error; err != nil {
					return err
				}
				if payout.Status != types.PAYOUT_ACCRUED {
					return errors.New("payout is not accrued")
				}
				return tx.Model(&models.SellerPayout{}).Where("id = ?", payout.ID).Update("status", types.PAYOUT_PAID).Error
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

func newSellerCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:8])
}
