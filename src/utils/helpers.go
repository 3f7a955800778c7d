package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"
	"tix/src/config"
	"tix/src/models"
	"tix/src/types"
	"tix/src/wizard"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SaveEventFromWizard writes the accumulated wizard form as a draft event.
// Creates the event when session.EventID is nil, otherwise updates the
// existing draft. Ticket types are replaced wholesale: delete then reinsert
// inside the same transaction, so a failed save never leaves a half-updated
// inventory.
func SaveEventFromWizard(tx *gorm.DB, session *wizard.Session) (*models.Event, error) {
	form := &session.Form
	startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, form.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("could not parse start date: %w", err)
	}
	var endsAt *time.Time
	if form.EndsAt != "" {
		parsed, err := time.Parse(config.TIME_PARSE_FORMAT, form.EndsAt)
		if err != nil {
			return nil, fmt.Errorf("could not parse end date: %w", err)
		}
		endsAt = &parsed
	}

	var event models.Event
	if session.EventID != nil {
		if err := tx.Where(&models.Event{ID: *session.EventID, OwnerID: session.OwnerID}).First(&event).Error; err != nil {
			return nil, err
		}
		if event.Status != types.EVENT_DRAFT {
			return nil, errors.New("only draft events can be edited")
		}
	} else {
		event.OwnerID = session.OwnerID
		event.Status = types.EVENT_DRAFT
	}

	event.Title = form.Title
	if form.Description != "" {
		event.Description = &form.Description
	}
	event.Organization = form.Organization
	event.Slug = slug.Make(form.Title)
	event.StartsAt = startsAt
	event.EndsAt = endsAt
	event.Address = form.Address
	event.Categories = toJSONBArray(form.Categories)
	event.Tags = toJSONBArray(form.Tags)
	event.Type = form.EventType
	event.MaxAttendees = form.MaxAttendees
	event.DisplayPrice = form.DisplayPrice
	event.BannerImage = form.BannerImage
	event.Postcard = form.Postcard

	if form.VenueLayout != nil {
		event.VenueLayoutID = form.VenueLayout
	} else if len(form.Seats) > 0 {
		layoutID, err := saveWizardSeats(tx, &event, session.OwnerID, form)
		if err != nil {
			return nil, err
		}
		event.VenueLayoutID = &layoutID
	} else {
		event.VenueLayoutID = nil
	}

	if err := tx.Save(&event).Error; err != nil {
		return nil, err
	}

	if event.Type != types.EVENT_TYPE_SIMPLE {
		if err := tx.Where(&models.TicketType{EventID: event.ID}).Delete(&models.TicketType{}).Error; err != nil {
			return nil, err
		}
		ticketTypes := make([]models.TicketType, 0, len(form.TicketTypes))
		for _, tt := range form.TicketTypes {
			row := models.TicketType{
				EventID:        event.ID,
				Name:           tt.Name,
				Description:    tt.Description,
				Price:          tt.Price,
				EarlyBirdPrice: tt.EarlyBirdPrice,
				Quantity:       tt.Quantity,
				MaxPerPerson:   tt.MaxPerPerson,
			}
			if tt.EarlyBirdCutoff != nil {
				cutoff, err := time.Parse(config.TIME_PARSE_FORMAT, *tt.EarlyBirdCutoff)
				if err != nil {
					return nil, fmt.Errorf("could not parse early bird cutoff: %w", err)
				}
				row.EarlyBirdCutoff = &cutoff
			}
			ticketTypes = append(ticketTypes, row)
		}
		if len(ticketTypes) > 0 {
			if err := tx.Create(&ticketTypes).Error; err != nil {
				return nil, err
			}
		}
	}
	return &event, nil
}

// saveWizardSeats materializes seats placed directly in the wizard. The first
// save creates a layout named after the event; later saves replace the seat
// map wholesale, same as the venue seat update route.
func saveWizardSeats(tx *gorm.DB, event *models.Event, ownerID uint, form *wizard.FormState) (uint, error) {
	var layout models.VenueLayout
	if event.VenueLayoutID != nil {
		if err := tx.Where(&models.VenueLayout{ID: *event.VenueLayoutID, OwnerID: ownerID}).First(&layout).Error; err != nil {
			return 0, err
		}
		if err := tx.Where(&models.Seat{VenueLayoutID: layout.ID}).Delete(&models.Seat{}).Error; err != nil {
			return 0, err
		}
	} else {
		layout = models.VenueLayout{
			Name:     fmt.Sprintf("%s seating", form.Title),
			Capacity: uint(len(form.Seats)),
			OwnerID:  ownerID,
		}
		if err := tx.Create(&layout).Error; err != nil {
			return 0, err
		}
	}
	seats := make([]models.Seat, 0, len(form.Seats))
	for _, s := range form.Seats {
		seats = append(seats, models.Seat{
			VenueLayoutID: layout.ID,
			Row:           s.Row,
			Number:        s.Number,
			X:             s.X,
			Y:             s.Y,
			Category:      s.Category,
		})
	}
	return layout.ID, tx.Create(&seats).Error
}

func toJSONBArray(values []string) types.JSONBArray {
	out := make(types.JSONBArray, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// RemainingQuantity counts unsold inventory for a ticket type. Pending
// orders hold their quantity until they fail or get cancelled.
func RemainingQuantity(tx *gorm.DB, ticketTypeID uint) (uint, error) {
	var tt models.TicketType
	if err := tx.First(&tt, ticketTypeID).Error; err != nil {
		return 0, err
	}
	var sold int64
	err := tx.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.ticket_type_id = ? AND orders.status IN ?", ticketTypeID, []types.OrderStatus{types.ORDER_PENDING, types.ORDER_PAID}).
		Select("COALESCE(SUM(order_items.qty), 0)").
		Scan(&sold).Error
	if err != nil {
		return 0, err
	}
	if sold >= int64(tt.Quantity) {
		return 0, nil
	}
	return tt.Quantity - uint(sold), nil
}

func EncryptMessage(message string) (string, error) {
	key := os.Getenv("CIPHER_KEY")
	c, err := aes.NewCipher([]byte(key))
	if err != nil {
		log.Printf("Could not create new cipher: %s\n", err.Error())
		return "", err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(message), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func DecryptMessage(encoded string) (string, error) {
	key := os.Getenv("CIPHER_KEY")
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	c, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
