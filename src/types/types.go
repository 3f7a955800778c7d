package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBArray []any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type EventType string

const (
	EVENT_TYPE_SIMPLE   EventType = "simple"
	EVENT_TYPE_TICKETED EventType = "ticketed"
	EVENT_TYPE_PREMIUM  EventType = "premium"
)

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_CANCELLED EventStatus = "cancelled"
	EVENT_COMPLETED EventStatus = "completed"
)

type OrderStatus string

const (
	ORDER_PENDING   OrderStatus = "pending"
	ORDER_PAID      OrderStatus = "paid"
	ORDER_FAILED    OrderStatus = "failed"
	ORDER_CANCELLED OrderStatus = "cancelled"
)

type IssuedTicketStatus string

const (
	ISSUED_TICKET_VALID    IssuedTicketStatus = "valid"
	ISSUED_TICKET_ADMITTED IssuedTicketStatus = "admitted"
	ISSUED_TICKET_VOID     IssuedTicketStatus = "void"
)

type PayoutStatus string

const (
	PAYOUT_ACCRUED PayoutStatus = "accrued"
	PAYOUT_PAID    PayoutStatus = "paid"
	PAYOUT_VOID    PayoutStatus = "void"
)

type TeamMemberStatus string

const (
	TEAM_MEMBER_INVITED  TeamMemberStatus = "invited"
	TEAM_MEMBER_ACTIVE   TeamMemberStatus = "active"
	TEAM_MEMBER_DISABLED TeamMemberStatus = "disabled"
)

type Metadata map[string]any

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	UID         string   `json:"uid"`
	jwt.RegisteredClaims
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type EventsQueryFilters struct {
	Query     string `form:"q"`
	Category  string `form:"category"`
	EventType string `form:"type"`
	From      string `form:"from"`
	To        string `form:"to"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

type TicketTypeRequestBody struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description,omitempty"`
	Price           float32  `json:"price" binding:"required,gt=0"`
	EarlyBirdPrice  *float32 `json:"early_bird_price,omitempty" binding:"omitempty,gt=0"`
	EarlyBirdCutoff *string  `json:"early_bird_cutoff,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Quantity        uint     `json:"quantity" binding:"required,gt=0"`
	MaxPerPerson    uint     `json:"max_per_person,omitempty"`
}

type SeatRequestBody struct {
	Row      string  `json:"row" binding:"required"`
	Number   uint    `json:"number" binding:"required"`
	X        float32 `json:"x,omitempty"`
	Y        float32 `json:"y,omitempty"`
	Category string  `json:"category" binding:"required"`
}

type CreateVenueLayoutRequestBody struct {
	Name            string            `json:"name" binding:"required"`
	Description     string            `json:"description,omitempty"`
	Capacity        uint              `json:"capacity,omitempty"`
	PriceCategories []string          `json:"price_categories,omitempty"`
	Seats           []SeatRequestBody `json:"seats,omitempty"`
}

type StartWizardRequestBody struct {
	EventID *uint `json:"event_id,omitempty"`
}

type WizardStepRequestBody struct {
	EventType    string                  `json:"event_type,omitempty"`
	Title        string                  `json:"title,omitempty"`
	Description  string                  `json:"description,omitempty"`
	Organization string                  `json:"organization,omitempty"`
	StartsAt     string                  `json:"starts_at,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndsAt       string                  `json:"ends_at,omitempty" binding:"omitempty,bookabledate,gtdate=StartsAt" time_format:"2006-01-02 15:04:05 -07:00"`
	Address      string                  `json:"address,omitempty"`
	Categories   []string                `json:"categories,omitempty"`
	Tags         []string                `json:"tags,omitempty"`
	MaxAttendees uint                    `json:"max_attendees,omitempty"`
	DisplayPrice *float32                `json:"display_price,omitempty"`
	BannerImage  *string                 `json:"banner_image,omitempty"`
	Postcard     *string                 `json:"postcard_image,omitempty"`
	TicketTypes  []TicketTypeRequestBody `json:"ticket_types,omitempty"`
	VenueLayout  *uint                   `json:"venue_layout_id,omitempty"`
	Seats        []SeatRequestBody       `json:"seats,omitempty"`
}

type CheckoutItem struct {
	TicketTypeID uint `json:"ticket_type" binding:"required"`
	Qty          uint `json:"qty" binding:"required,gt=0"`
}

type CheckoutRequestBody struct {
	EventID       uint           `json:"event" binding:"required"`
	Items         []CheckoutItem `json:"items" binding:"required,min=1"`
	Gateway       string         `json:"gateway" binding:"required,oneof=paypal square cashapp"`
	SourceToken   string         `json:"source_token,omitempty"`
	PaymentRef    string         `json:"payment_ref,omitempty"`
	CustomerEmail string         `json:"customer_email" binding:"required,email"`
	Currency      string         `json:"currency,omitempty"`
	SellerCode    *string        `json:"seller_code,omitempty"`
}

type AddTeamMemberRequestBody struct {
	Email          string  `json:"email" binding:"required,email"`
	Role           string  `json:"role" binding:"required,oneof=seller manager"`
	CommissionRate float32 `json:"commission_rate,omitempty" binding:"omitempty,gte=0,lte=1"`
}

type CreateSettingRequestBody struct {
	Key   string `json:"key" binding:"required"`
	Value any    `json:"value" binding:"required"`
	Group string `json:"group" binding:"required"`
}

type PaymentConfigRequestBody struct {
	Provider    string `json:"provider" binding:"required,oneof=paypal square cashapp"`
	Environment string `json:"environment" binding:"required,oneof=sandbox production"`
	AppID       string `json:"app_id,omitempty"`
	LocationID  string `json:"location_id,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	Secret      string `json:"secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	Active      *bool  `json:"active" binding:"required"`
}

type TicketDownloadURIParams struct {
	OrderID  string `uri:"id" binding:"required"`
	TicketID string `uri:"ticketId" binding:"required"`
}
