package common

import (
	"errors"
	"fmt"
	"log"
	"time"
	"tix/src/db"
	"tix/src/models"
	"tix/src/types"
	"tix/src/wizard"

	"gorm.io/gorm"
)

var ErrSeatsNotReconciled = errors.New("seats and tickets do not reconcile")

// PublishEvent moves a draft to published and makes it publicly listable.
// Premium events must reconcile first: every placed seat needs a ticket and
// every ticket a seat. A completion job is queued for the end date so the
// event flips to completed on its own.
func PublishEvent(eventID uint, ownerID uint) (*models.Event, error) {
	conn := db.GetDb()
	var event models.Event
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("TicketTypes").Where(&models.Event{ID: eventID, OwnerID: ownerID}).First(&event).Error; err != nil {
			return err
		}
		if event.Status != types.EVENT_DRAFT {
			return fmt.Errorf("cannot publish event in %s status", event.Status)
		}
		if event.Type == types.EVENT_TYPE_PREMIUM {
			outcome, err := ReconcileEvent(tx, &event)
			if err != nil {
				return err
			}
			if !outcome.Balanced {
				return fmt.Errorf("%w: %s", ErrSeatsNotReconciled, outcome.Message)
			}
		}
		return tx.Model(&event).Updates(map[string]any{
			"status":    types.EVENT_PUBLISHED,
			"is_public": true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"eventId":          event.ID,
		"title":            event.Title,
		"producerClientId": "events_published_producer",
	}
	if err := models.EventPublishedProducer(event.ID, payload); err != nil {
		log.Printf("Could not announce published event %d: %s\n", event.ID, err.Error())
	}
	if event.EndsAt != nil {
		queueCompletionJob(&event)
	}
	return &event, nil
}

func queueCompletionJob(event *models.Event) {
	if !event.EndsAt.After(time.Now()) {
		payload := map[string]any{
			"eventId":          event.ID,
			"producerClientId": "events_completed_producer",
		}
		if err := models.EventCompletedProducer(event.ID, payload); err != nil {
			log.Printf("Could not announce completed event %d: %s\n", event.ID, err.Error())
		}
		return
	}
	jobTask := models.JobTask{
		Name:       fmt.Sprintf("complete-event-%d", event.ID),
		JobType:    "event-completion",
		RunsAt:     *event.EndsAt,
		PayloadID:  fmt.Sprint(event.ID),
		Source:     fmt.Sprint(event.ID),
		SourceType: "event",
		Topic:      "events-completed",
		Payload: types.JSONB{
			"eventId":          event.ID,
			"producerClientId": "events_completed_producer",
		},
	}
	if _, err := jobTask.CreateAndEnqueueJobTask(jobTask); err != nil {
		log.Printf("Could not queue completion job for event %d: %s\n", event.ID, err.Error())
	}
}

// ReconcileEvent runs the seat-to-ticket comparison against current rows.
func ReconcileEvent(tx *gorm.DB, event *models.Event) (*wizard.ReconcileOutcome, error) {
	if event.VenueLayoutID == nil {
		return nil, errors.New("premium event has no venue layout")
	}
	var seatCount int64
	if err := tx.Model(&models.Seat{}).Where(&models.Seat{VenueLayoutID: *event.VenueLayoutID}).Count(&seatCount).Error; err != nil {
		return nil, err
	}
	quantities := make([]uint, 0, len(event.TicketTypes))
	for _, tt := range event.TicketTypes {
		quantities = append(quantities, tt.Quantity)
	}
	outcome := wizard.Reconcile(int(seatCount), quantities)
	return &outcome, nil
}

// UnpublishEvent pulls a published event back to draft and delists it.
// Existing paid orders stay valid.
func UnpublishEvent(eventID uint, ownerID uint) (*models.Event, error) {
	conn := db.GetDb()
	var event models.Event
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.Event{ID: eventID, OwnerID: ownerID}).First(&event).Error; err != nil {
			return err
		}
		if event.Status != types.EVENT_PUBLISHED {
			return fmt.Errorf("cannot unpublish event in %s status", event.Status)
		}
		return tx.Model(&event).Updates(map[string]any{
			"status":    types.EVENT_DRAFT,
			"is_public": false,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CancelEvent voids the event and every outstanding ticket. Pending orders
// are cancelled; paid orders keep their records but their tickets go void.
func CancelEvent(eventID uint, ownerID uint) (*models.Event, error) {
	conn := db.GetDb()
	var event models.Event
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.Event{ID: eventID, OwnerID: ownerID}).First(&event).Error; err != nil {
			return err
		}
		if event.Status == types.EVENT_CANCELLED || event.Status == types.EVENT_COMPLETED {
			return fmt.Errorf("cannot cancel event in %s status", event.Status)
		}
		if err := tx.Model(&event).Updates(map[string]any{
			"status":    types.EVENT_CANCELLED,
			"is_public": false,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).
			Where("event_id = ? AND status = ?", event.ID, types.ORDER_PENDING).
			Update("status", types.ORDER_CANCELLED).Error; err != nil {
			return err
		}
		return tx.Model(&models.IssuedTicket{}).
			Where("order_id IN (?)", tx.Model(&models.Order{}).Select("id").Where("event_id = ?", event.ID)).
			Update("status", types.ISSUED_TICKET_VOID).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CompleteEvent is driven by the scheduled completion job, not by users.
func CompleteEvent(eventID uint) error {
	conn := db.GetDb()
	return conn.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			return err
		}
		if event.Status != types.EVENT_PUBLISHED {
			return nil
		}
		return tx.Model(&event).Updates(map[string]any{
			"status":    types.EVENT_COMPLETED,
			"is_public": false,
		}).Error
	})
}
