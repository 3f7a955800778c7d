package main

import (
	"errors"
	"log"
	"net/http"
	"tix/src/common"
	"tix/src/config"
	"tix/src/db"
	"tix/src/models"
	"tix/src/monitoring"
	"tix/src/types"
	"tix/src/utils"
	"tix/src/wizard"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func wizardHandlers(g *gin.RouterGroup, store wizard.Store) *gin.RouterGroup {
	loadSession := func(ctx *gin.Context) *wizard.Session {
		id := ctx.Params.ByName("id")
		session, err := store.Load(ctx.Request.Context(), id)
		if err != nil {
			if errors.Is(err, wizard.ErrSessionNotFound) {
				ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "wizard session not found"})
				return nil
			}
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil
		}
		if session.OwnerID != ctx.GetUint("id") {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not your session"})
			return nil
		}
		return session
	}

	g.
		POST("/wizard", func(ctx *gin.Context) {
			var body types.StartWizardRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			session := wizard.NewSession(userId)
			if body.EventID != nil {
				conn := db.GetDb()
				var event models.Event
				err := conn.
					Preload("TicketTypes").
					Where(&models.Event{ID: *body.EventID, OwnerID: userId}).
					First(&event).Error
				if err != nil {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
					return
				}
				if event.Status != types.EVENT_DRAFT {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "only draft events can be edited"})
					return
				}
				session.EventID = body.EventID
				session.Form = formFromEvent(&event)
			}
			if err := store.Save(ctx.Request.Context(), session); err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			monitoring.WizardActions.WithLabelValues("start").Inc()
			ctx.JSON(http.StatusCreated, gin.H{"data": session})
		}).
		GET("/wizard/:id", func(ctx *gin.Context) {
			session := loadSession(ctx)
			if session == nil {
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": session, "steps": wizard.StepsFor(session.Form.EventType)})
		}).
		PATCH("/wizard/:id/next", func(ctx *gin.Context) {
			session := loadSession(ctx)
			if session == nil {
				return
			}
			var body types.WizardStepRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			session.Merge(&body)
			if err := session.Next(); err != nil {
				var verr *wizard.ValidationError
				if errors.As(err, &verr) {
					// data is kept even when validation blocks the advance
					if serr := store.Save(ctx.Request.Context(), session); serr != nil {
						log.Printf("Could not save wizard session %s: %s\n", session.ID, serr.Error())
					}
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Problems, "step": verr.Step})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := store.Save(ctx.Request.Context(), session); err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			monitoring.WizardActions.WithLabelValues("next").Inc()
			ctx.JSON(http.StatusOK, gin.H{"data": session})
		}).
		PATCH("/wizard/:id/back", func(ctx *gin.Context) {
			session := loadSession(ctx)
			if session == nil {
				return
			}
			var body types.WizardStepRequestBody
			if err := ctx.ShouldBindJSON(&body); err == nil {
				session.Merge(&body)
			}
			if err := session.Back(); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := store.Save(ctx.Request.Context(), session); err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			monitoring.WizardActions.WithLabelValues("back").Inc()
			ctx.JSON(http.StatusOK, gin.H{"data": session})
		}).
		POST("/wizard/:id/save", func(ctx *gin.Context) {
			session := loadSession(ctx)
			if session == nil {
				return
			}
			if err := session.ValidateStep(wizard.StepBasicInfo); err != nil {
				var verr *wizard.ValidationError
				if errors.As(err, &verr) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Problems, "step": verr.Step})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var event *models.Event
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				saved, err := utils.SaveEventFromWizard(tx, session)
				if err != nil {
					return err
				}
				event = saved
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			session.EventID = &event.ID
			if err := store.Save(ctx.Request.Context(), session); err != nil {
				log.Printf("Could not save wizard session %s: %s\n", session.ID, err.Error())
			}
			monitoring.WizardActions.WithLabelValues("save_draft").Inc()
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		POST("/wizard/:id/publish", func(ctx *gin.Context) {
			session := loadSession(ctx)
			if session == nil {
				return
			}
			if err := session.ValidateAll(); err != nil {
				var verr *wizard.ValidationError
				if errors.As(err, &verr) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Problems, "step": verr.Step})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var event *models.Event
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				saved, err := utils.SaveEventFromWizard(tx, session)
				if err != nil {
					return err
				}
				event = saved
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			published, err := common.PublishEvent(event.ID, session.OwnerID)
			if err != nil {
				if errors.Is(err, common.ErrSeatsNotReconciled) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := store.Delete(ctx.Request.Context(), session.ID.String()); err != nil {
				log.Printf("Could not delete wizard session %s: %s\n", session.ID, err.Error())
			}
			monitoring.WizardActions.WithLabelValues("publish").Inc()
			ctx.JSON(http.StatusOK, gin.H{"data": published})
		}).
		DELETE("/wizard/:id", func(ctx *gin.Context) {
			session := loadSession(ctx)
			if session == nil {
				return
			}
			if err := store.Delete(ctx.Request.Context(), session.ID.String()); err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			monitoring.WizardActions.WithLabelValues("abandon").Inc()
			ctx.Status(http.StatusNoContent)
		})
	return g
}

// formFromEvent pre-populates the wizard when editing an existing draft.
func formFromEvent(event *models.Event) wizard.FormState {
	form := wizard.FormState{
		EventType:    event.Type,
		Title:        event.Title,
		Organization: event.Organization,
		StartsAt:     event.StartsAt.Format(config.TIME_PARSE_FORMAT),
		Address:      event.Address,
		MaxAttendees: event.MaxAttendees,
		DisplayPrice: event.DisplayPrice,
		BannerImage:  event.BannerImage,
		Postcard:     event.Postcard,
		VenueLayout:  event.VenueLayoutID,
	}
	if event.Description != nil {
		form.Description = *event.Description
	}
	if event.EndsAt != nil {
		form.EndsAt = event.EndsAt.Format(config.TIME_PARSE_FORMAT)
	}
	for _, c := range event.Categories {
		if s, ok := c.(string); ok {
			form.Categories = append(form.Categories, s)
		}
	}
	for _, t := range event.Tags {
		if s, ok := t.(string); ok {
			form.Tags = append(form.Tags, s)
		}
	}
	for _, tt := range event.TicketTypes {
		row := types.TicketTypeRequestBody{
			Name:           tt.Name,
			Description:    tt.Description,
			Price:          tt.Price,
			EarlyBirdPrice: tt.EarlyBirdPrice,
			Quantity:       tt.Quantity,
			MaxPerPerson:   tt.MaxPerPerson,
		}
		if tt.EarlyBirdCutoff != nil {
			cutoff := tt.EarlyBirdCutoff.Format(config.TIME_PARSE_FORMAT)
			row.EarlyBirdCutoff = &cutoff
		}
		form.TicketTypes = append(form.TicketTypes, row)
	}
	return form
}
