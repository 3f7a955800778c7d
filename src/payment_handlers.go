package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
	"tix/src/common"
	"tix/src/db"
	"tix/src/models"
	"tix/src/payments"
	"tix/src/types"
	"tix/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func paymentHandlers(g *gin.RouterGroup, registry *payments.Registry, cashApp *payments.CashAppGateway) *gin.RouterGroup {
	g.
		GET("/payments/methods", func(ctx *gin.Context) {
			methods := registry.AvailableMethods()
			ctx.JSON(http.StatusOK, gin.H{"data": methods, "count": len(methods)})
		}).
		POST("/checkout", func(ctx *gin.Context) {
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			provider := payments.Provider(body.Gateway)
			currency := body.Currency
			if currency == "" {
				currency = "USD"
			}

			var order models.Order
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.
					Where(&models.Event{ID: body.EventID}).
					Where("status = ?", types.EVENT_PUBLISHED).
					First(&event).Error; err != nil {
					return errors.New("event is not open for sales")
				}

				var sellerID *uint
				if body.SellerCode != nil && *body.SellerCode != "" {
					var member models.TeamMember
					err := tx.
						Where(&models.TeamMember{SellerCode: *body.SellerCode, OwnerID: event.OwnerID}).
						Where("status = ?", types.TEAM_MEMBER_ACTIVE).
						First(&member).Error
					if err != nil {
						return errors.New("unknown seller code")
					}
					sellerID = &member.UserID
				}

				now := time.Now()
				subtotal := decimal.Zero
				items := make([]models.OrderItem, 0, len(body.Items))
				for _, item := range body.Items {
					var tt models.TicketType
					if err := tx.
						Where(&models.TicketType{ID: item.TicketTypeID, EventID: event.ID}).
						First(&tt).Error; err != nil {
						return fmt.Errorf("ticket type %d not found", item.TicketTypeID)
					}
					remaining, err := utils.RemainingQuantity(tx, tt.ID)
					if err != nil {
						return err
					}
					if item.Qty > remaining {
						return fmt.Errorf("only %d %s tickets left", remaining, tt.Name)
					}
					if tt.MaxPerPerson > 0 && item.Qty > tt.MaxPerPerson {
						return fmt.Errorf("limit of %d %s tickets per person", tt.MaxPerPerson, tt.Name)
					}
					unitPrice := tt.EffectivePrice(now)
					lineTotal := decimal.NewFromFloat32(unitPrice).Mul(decimal.NewFromInt(int64(item.Qty)))
					subtotal = subtotal.Add(lineTotal)
					items = append(items, models.OrderItem{
						TicketTypeID: tt.ID,
						Qty:          item.Qty,
						UnitPrice:    unitPrice,
						Subtotal:     float32(lineTotal.InexactFloat64()),
					})
				}

				gateway := string(provider)
				order = models.Order{
					BuyerID:       userId,
					EventID:       event.ID,
					SellerID:      sellerID,
					Currency:      currency,
					Subtotal:      subtotal.InexactFloat64(),
					Status:        types.ORDER_PENDING,
					Gateway:       &gateway,
					CustomerEmail: body.CustomerEmail,
				}
				if err := tx.Create(&order).Error; err != nil {
					return err
				}
				for i := range items {
					items[i].OrderID = order.ID
				}
				return tx.Create(&items).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			req := &payments.PaymentRequest{
				OrderID:       order.ID,
				Amount:        decimal.NewFromFloat(order.Subtotal),
				Currency:      order.Currency,
				CustomerEmail: order.CustomerEmail,
				Description:   fmt.Sprintf("Order %s", order.ID),
				SourceToken:   body.SourceToken,
				ClientRef:     body.PaymentRef,
			}
			dispatch := registry.Dispatch(ctx.Request.Context(), provider, req)
			switch dispatch.Kind {
			case payments.DispatchLegacyRequested:
				// the buyer approves on the provider's site, capture follows
				ctx.JSON(http.StatusAccepted, gin.H{
					"data": gin.H{
						"order_id":     order.ID,
						"redirect_url": dispatch.RedirectURL,
					},
				})
				return
			case payments.DispatchFailed:
				failOrder(order.ID, dispatch.Err)
				ctx.JSON(http.StatusPaymentRequired, gin.H{"error": dispatch.Err})
				return
			}

			req.SourceToken = dispatch.Token
			result := registry.ProcessPayment(ctx.Request.Context(), provider, req)
			settleOrder(order.ID, result)
			if !result.Success {
				ctx.JSON(http.StatusPaymentRequired, gin.H{"error": result.Error})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"order_id": order.ID, "result": result}})
		}).
		POST("/checkout/:id/capture", func(ctx *gin.Context) {
			// completes a redirect flow once the provider reports approval
			orderId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
				return
			}
			var body struct {
				SourceToken string `json:"source_token" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var order models.Order
			conn := db.GetDb()
			if err := conn.Where(&models.Order{ID: orderId, BuyerID: userId}).First(&order).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if order.Status != types.ORDER_PENDING {
				ctx.JSON(http.StatusConflict, gin.H{"error": "order is not pending"})
				return
			}
			provider := payments.Provider(*order.Gateway)
			req := &payments.PaymentRequest{
				OrderID:       order.ID,
				Amount:        decimal.NewFromFloat(order.Subtotal),
				Currency:      order.Currency,
				CustomerEmail: order.CustomerEmail,
				SourceToken:   body.SourceToken,
			}
			result := registry.ProcessPayment(ctx.Request.Context(), provider, req)
			settleOrder(order.ID, result)
			if !result.Success {
				ctx.JSON(http.StatusPaymentRequired, gin.H{"error": result.Error})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"order_id": order.ID, "result": result}})
		}).
		POST("/payments/cashapp/tokenized", func(ctx *gin.Context) {
			var body struct {
				PaymentRef string `json:"payment_ref" binding:"required"`
				GrantID    string `json:"grant_id,omitempty"`
				Status     string `json:"status" binding:"required,oneof=approved declined"`
				Reason     string `json:"reason,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cashApp.NotifyTokenization(body.PaymentRef, body.GrantID, body.Status == "approved", body.Reason)
			ctx.Status(http.StatusAccepted)
		})
	return g
}

// settleOrder records the payment outcome and mints tickets on success.
func settleOrder(orderID uuid.UUID, result *payments.PaymentResult) {
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").Where(&models.Order{ID: orderID}).First(&order).Error; err != nil {
			return err
		}
		if !result.Success {
			reason := result.Error.UserMessage
			return tx.Model(&order).Updates(map[string]any{
				"status":         types.ORDER_FAILED,
				"failure_reason": reason,
			}).Error
		}
		if err := tx.Model(&order).Updates(map[string]any{
			"status":          types.ORDER_PAID,
			"transaction_ref": result.TransactionRef,
		}).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			for i := uint(0); i < item.Qty; i++ {
				code, err := utils.EncryptMessage(fmt.Sprintf("%s:%d:%d", order.ID, item.TicketTypeID, i))
				if err != nil {
					return err
				}
				ticket := models.IssuedTicket{
					OrderID:      order.ID,
					TicketTypeID: item.TicketTypeID,
					Code:         code,
				}
				if err := tx.Create(&ticket).Error; err != nil {
					return err
				}
			}
		}
		order.Status = types.ORDER_PAID
		return common.AccruePayout(tx, &order)
	})
	if err != nil {
		log.Printf("Could not settle order %s: %s\n", orderID, err.Error())
	}
}

func failOrder(orderID uuid.UUID, nerr *payments.NormalizedError) {
	conn := db.GetDb()
	err := conn.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":         types.ORDER_FAILED,
			"failure_reason": nerr.UserMessage,
		}).Error
	if err != nil {
		log.Printf("Could not mark order %s failed: %s\n", orderID, err.Error())
	}
}

func adminPaymentHandlers(g *gin.RouterGroup, registry *payments.Registry) *gin.RouterGroup {
	g.
		GET("/admin/payments/status", func(ctx *gin.Context) {
			states := registry.States()
			out := gin.H{}
			for provider, status := range states {
				entry := gin.H{"status": status}
				if nerr := registry.LastError(provider); nerr != nil {
					entry["error"] = nerr
				}
				out[string(provider)] = entry
			}
			ctx.JSON(http.StatusOK, gin.H{"data": out})
		}).
		POST("/admin/payments/:provider/reinitialize", func(ctx *gin.Context) {
			provider := payments.Provider(ctx.Params.ByName("provider"))
			if err := registry.Reinitialize(ctx.Request.Context(), provider); err != nil {
				ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": registry.State(provider)})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"status": registry.State(provider)}})
		}).
		GET("/admin/payment-configs", func(ctx *gin.Context) {
			var configs []models.PaymentConfig
			if err := db.GetDb().Find(&configs).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": configs})
		}).
		POST("/admin/payment-configs", func(ctx *gin.Context) {
			var body types.PaymentConfigRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			config := models.PaymentConfig{
				Provider:    body.Provider,
				Environment: body.Environment,
				AppID:       body.AppID,
				LocationID:  body.LocationID,
				ClientID:    body.ClientID,
				Secret:      body.Secret,
				AccessToken: body.AccessToken,
				Active:      *body.Active,
			}
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				var existing models.PaymentConfig
				err := tx.Where(&models.PaymentConfig{Provider: body.Provider, Environment: body.Environment}).First(&existing).Error
				if err == nil {
					config.ID = existing.ID
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				return tx.Save(&config).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": config})
		}).
		DELETE("/admin/payment-configs/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := db.GetDb().Delete(&models.PaymentConfig{}, params.ID).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
