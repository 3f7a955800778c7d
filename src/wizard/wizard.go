package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"tix/src/config"
	"tix/src/types"

	"github.com/google/uuid"
)

type Step string

const (
	StepEventType Step = "event-type"
	StepBasicInfo Step = "basic-info"
	StepTicketing Step = "ticketing"
	StepVenue     Step = "venue"
	StepReview    Step = "review"
)

var (
	ErrUnknownStep     = errors.New("unknown wizard step")
	ErrAtFirstStep     = errors.New("already at the first step")
	ErrAtLastStep      = errors.New("already at the last step")
	ErrSessionNotFound = errors.New("wizard session not found")
)

// FormState accumulates everything entered across steps. One struct for the
// whole wizard; each step fills in its slice of fields and later steps never
// clobber earlier ones.
type FormState struct {
	EventType    types.EventType               `json:"event_type,omitempty"`
	Title        string                        `json:"title,omitempty"`
	Description  string                        `json:"description,omitempty"`
	Organization string                        `json:"organization,omitempty"`
	StartsAt     string                        `json:"starts_at,omitempty"`
	EndsAt       string                        `json:"ends_at,omitempty"`
	Address      string                        `json:"address,omitempty"`
	Categories   []string                      `json:"categories,omitempty"`
	Tags         []string                      `json:"tags,omitempty"`
	MaxAttendees uint                          `json:"max_attendees,omitempty"`
	DisplayPrice *float32                      `json:"display_price,omitempty"`
	BannerImage  *string                       `json:"banner_image,omitempty"`
	Postcard     *string                       `json:"postcard_image,omitempty"`
	TicketTypes  []types.TicketTypeRequestBody `json:"ticket_types,omitempty"`
	VenueLayout  *uint                         `json:"venue_layout_id,omitempty"`
	Seats        []types.SeatRequestBody       `json:"seats,omitempty"`
}

// Session is the server-held wizard state, keyed by a uuid the client round
// trips. EventID is set when editing an existing draft.
type Session struct {
	ID      uuid.UUID `json:"id"`
	EventID *uint     `json:"event_id,omitempty"`
	OwnerID uint      `json:"owner_id"`
	Step    Step      `json:"step"`
	Form    FormState `json:"form"`
}

func NewSession(ownerID uint) *Session {
	return &Session{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Step:    StepEventType,
	}
}

// StepsFor returns the step sequence for an event type. Simple events have
// no tickets to configure, only premium events pick a venue layout.
func StepsFor(eventType types.EventType) []Step {
	switch eventType {
	case types.EVENT_TYPE_PREMIUM:
		return []Step{StepEventType, StepBasicInfo, StepTicketing, StepVenue, StepReview}
	case types.EVENT_TYPE_TICKETED:
		return []Step{StepEventType, StepBasicInfo, StepTicketing, StepReview}
	default:
		return []Step{StepEventType, StepBasicInfo, StepReview}
	}
}

func stepIndex(steps []Step, s Step) int {
	for i, step := range steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Merge folds one step submission into the accumulated form. Only fields the
// client actually sent overwrite existing state.
func (s *Session) Merge(body *types.WizardStepRequestBody) {
	f := &s.Form
	if body.EventType != "" {
		f.EventType = types.EventType(body.EventType)
	}
	if body.Title != "" {
		f.Title = body.Title
	}
	if body.Description != "" {
		f.Description = body.Description
	}
	if body.Organization != "" {
		f.Organization = body.Organization
	}
	if body.StartsAt != "" {
		f.StartsAt = body.StartsAt
	}
	if body.EndsAt != "" {
		f.EndsAt = body.EndsAt
	}
	if body.Address != "" {
		f.Address = body.Address
	}
	if len(body.Categories) > 0 {
		f.Categories = body.Categories
	}
	if len(body.Tags) > 0 {
		f.Tags = body.Tags
	}
	if body.MaxAttendees > 0 {
		f.MaxAttendees = body.MaxAttendees
	}
	if body.DisplayPrice != nil {
		f.DisplayPrice = body.DisplayPrice
	}
	if body.BannerImage != nil {
		f.BannerImage = body.BannerImage
	}
	if body.Postcard != nil {
		f.Postcard = body.Postcard
	}
	if len(body.TicketTypes) > 0 {
		f.TicketTypes = body.TicketTypes
	}
	if body.VenueLayout != nil {
		f.VenueLayout = body.VenueLayout
	}
	if len(body.Seats) > 0 {
		f.Seats = body.Seats
	}
}

// Next advances one step. The current step must validate first; the step
// sequence is recomputed from the event type so changing type on the first
// step reroutes the rest of the flow.
func (s *Session) Next() error {
	if err := s.ValidateStep(s.Step); err != nil {
		return err
	}
	steps := StepsFor(s.Form.EventType)
	idx := stepIndex(steps, s.Step)
	if idx < 0 {
		// current step no longer in the sequence after a type change
		s.Step = steps[0]
		return nil
	}
	if idx == len(steps)-1 {
		return ErrAtLastStep
	}
	s.Step = steps[idx+1]
	return nil
}

// Back always succeeds regardless of validation state. Entered data stays
// in the form.
func (s *Session) Back() error {
	steps := StepsFor(s.Form.EventType)
	idx := stepIndex(steps, s.Step)
	if idx <= 0 {
		return ErrAtFirstStep
	}
	s.Step = steps[idx-1]
	return nil
}

// ValidationError carries every problem found on a step so the client can
// show them all at once.
type ValidationError struct {
	Step     Step     `json:"step"`
	Problems []string `json:"problems"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: %s", e.Step, strings.Join(e.Problems, "; "))
}

// ValidateStep gates forward navigation. Each step checks only its own
// fields.
func (s *Session) ValidateStep(step Step) error {
	var problems []string
	f := &s.Form
	switch step {
	case StepEventType:
		switch f.EventType {
		case types.EVENT_TYPE_SIMPLE, types.EVENT_TYPE_TICKETED, types.EVENT_TYPE_PREMIUM:
		default:
			problems = append(problems, "pick an event type")
		}
	case StepBasicInfo:
		if f.Title == "" {
			problems = append(problems, "title is required")
		}
		if f.StartsAt == "" {
			problems = append(problems, "start date is required")
		} else if startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, f.StartsAt); err != nil {
			problems = append(problems, "start date is not a valid date")
		} else if !startsAt.After(time.Now()) {
			problems = append(problems, "start date must be in the future")
		}
		if f.EndsAt != "" {
			endsAt, err := time.Parse(config.TIME_PARSE_FORMAT, f.EndsAt)
			if err != nil {
				problems = append(problems, "end date is not a valid date")
			} else if startsAt, perr := time.Parse(config.TIME_PARSE_FORMAT, f.StartsAt); perr == nil && !endsAt.After(startsAt) {
				problems = append(problems, "end date must be after the start date")
			}
		}
		if len(f.Categories) == 0 {
			problems = append(problems, "pick at least one category")
		}
		if f.EventType == types.EVENT_TYPE_PREMIUM && f.BannerImage == nil {
			problems = append(problems, "premium events need a banner image")
		}
	case StepTicketing:
		if len(f.TicketTypes) == 0 {
			problems = append(problems, "add at least one ticket type")
		}
		for i, tt := range f.TicketTypes {
			if tt.Name == "" {
				problems = append(problems, fmt.Sprintf("ticket type %d needs a name", i+1))
			}
			if tt.Price <= 0 {
				problems = append(problems, fmt.Sprintf("ticket type %d needs a positive price", i+1))
			}
			if tt.Quantity == 0 {
				problems = append(problems, fmt.Sprintf("ticket type %d needs a positive quantity", i+1))
			}
		}
	case StepVenue:
		if f.VenueLayout == nil && len(f.Seats) == 0 {
			problems = append(problems, "pick a venue layout or place seats")
		}
	case StepReview:
	default:
		return ErrUnknownStep
	}
	if len(problems) > 0 {
		return &ValidationError{Step: step, Problems: problems}
	}
	return nil
}

// ValidateAll checks every step in the sequence, used before publish.
func (s *Session) ValidateAll() error {
	for _, step := range StepsFor(s.Form.EventType) {
		if err := s.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}
