package wizard

import (
	"fmt"
	"testing"
	"time"
	"tix/src/config"
	"tix/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureDate(days int) string {
	return time.Now().Add(time.Duration(days) * 24 * time.Hour).Format(config.TIME_PARSE_FORMAT)
}

func sessionAt(t *testing.T, eventType types.EventType, step Step) *Session {
	s := NewSession(1)
	s.Form.EventType = eventType
	s.Form.Title = "Summer Gala"
	s.Form.StartsAt = futureDate(30)
	s.Form.Categories = []string{"music"}
	if eventType == types.EVENT_TYPE_PREMIUM {
		banner := "banners/gala.jpg"
		s.Form.BannerImage = &banner
	}
	if eventType != types.EVENT_TYPE_SIMPLE {
		s.Form.TicketTypes = []types.TicketTypeRequestBody{
			{Name: "General", Price: 25, Quantity: 100},
		}
	}
	require.Contains(t, StepsFor(eventType), step)
	s.Step = step
	return s
}

func TestStepsForEventTypes(t *testing.T) {
	assert.Equal(t,
		[]Step{StepEventType, StepBasicInfo, StepReview},
		StepsFor(types.EVENT_TYPE_SIMPLE))
	assert.Equal(t,
		[]Step{StepEventType, StepBasicInfo, StepTicketing, StepReview},
		StepsFor(types.EVENT_TYPE_TICKETED))
	assert.Equal(t,
		[]Step{StepEventType, StepBasicInfo, StepTicketing, StepVenue, StepReview},
		StepsFor(types.EVENT_TYPE_PREMIUM))
}

func TestNextBlockedByInvalidStep(t *testing.T) {
	s := NewSession(1)
	s.Form.EventType = types.EVENT_TYPE_TICKETED
	s.Step = StepBasicInfo

	err := s.Next()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepBasicInfo, verr.Step)
	assert.Contains(t, verr.Problems, "title is required")
	assert.Equal(t, StepBasicInfo, s.Step, "step must not advance")
}

func TestNextAdvancesThroughTicketedFlow(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_TICKETED, StepEventType)

	require.NoError(t, s.Next())
	assert.Equal(t, StepBasicInfo, s.Step)
	require.NoError(t, s.Next())
	assert.Equal(t, StepTicketing, s.Step)
	require.NoError(t, s.Next())
	assert.Equal(t, StepReview, s.Step)
	assert.ErrorIs(t, s.Next(), ErrAtLastStep)
}

func TestSimpleEventSkipsTicketing(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_SIMPLE, StepBasicInfo)

	require.NoError(t, s.Next())
	assert.Equal(t, StepReview, s.Step)
}

func TestBackAlwaysAllowed(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_TICKETED, StepTicketing)
	s.Form.TicketTypes = nil

	require.Error(t, s.ValidateStep(StepTicketing))
	require.NoError(t, s.Back())
	assert.Equal(t, StepBasicInfo, s.Step)
}

func TestBackAtFirstStep(t *testing.T) {
	s := NewSession(1)
	assert.ErrorIs(t, s.Back(), ErrAtFirstStep)
}

func TestBackPreservesEnteredData(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_TICKETED, StepTicketing)
	require.NoError(t, s.Back())

	assert.Equal(t, "Summer Gala", s.Form.Title)
	assert.Len(t, s.Form.TicketTypes, 1)
}

func TestMergeDoesNotClobberUnsentFields(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_TICKETED, StepTicketing)
	s.Merge(&types.WizardStepRequestBody{
		TicketTypes: []types.TicketTypeRequestBody{
			{Name: "VIP", Price: 100, Quantity: 20},
		},
	})

	assert.Equal(t, "Summer Gala", s.Form.Title)
	assert.Equal(t, []string{"music"}, s.Form.Categories)
	require.Len(t, s.Form.TicketTypes, 1)
	assert.Equal(t, "VIP", s.Form.TicketTypes[0].Name)
}

func TestValidateBasicInfoRejectsPastDate(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_SIMPLE, StepBasicInfo)
	s.Form.StartsAt = time.Now().Add(-24 * time.Hour).Format(config.TIME_PARSE_FORMAT)

	err := s.ValidateStep(StepBasicInfo)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "start date must be in the future")
}

func TestValidateBasicInfoRejectsEndBeforeStart(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_SIMPLE, StepBasicInfo)
	s.Form.StartsAt = futureDate(30)
	s.Form.EndsAt = futureDate(29)

	err := s.ValidateStep(StepBasicInfo)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "end date must be after the start date")
}

func TestValidatePremiumRequiresBanner(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_PREMIUM, StepBasicInfo)
	s.Form.BannerImage = nil

	err := s.ValidateStep(StepBasicInfo)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "premium events need a banner image")
}

func TestValidateTicketingCollectsAllProblems(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_TICKETED, StepTicketing)
	s.Form.TicketTypes = []types.TicketTypeRequestBody{
		{Name: "", Price: 0, Quantity: 0},
	}

	err := s.ValidateStep(StepTicketing)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
}

func TestValidateVenueNeedsLayoutOrSeats(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_PREMIUM, StepVenue)
	require.Error(t, s.ValidateStep(StepVenue))

	layout := uint(3)
	s.Form.VenueLayout = &layout
	require.NoError(t, s.ValidateStep(StepVenue))

	s.Form.VenueLayout = nil
	s.Form.Seats = []types.SeatRequestBody{{Row: "A", Number: 1, Category: "standard"}}
	require.NoError(t, s.ValidateStep(StepVenue))
}

func TestEventTypeChangeReroutesFlow(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_PREMIUM, StepVenue)
	layout := uint(1)
	s.Form.VenueLayout = &layout

	// switching to simple removes the venue step from the sequence
	s.Merge(&types.WizardStepRequestBody{EventType: string(types.EVENT_TYPE_SIMPLE)})
	require.NoError(t, s.Next())
	assert.Equal(t, StepEventType, s.Step)
}

func TestValidateAllWalksEveryStep(t *testing.T) {
	s := sessionAt(t, types.EVENT_TYPE_PREMIUM, StepReview)
	err := s.ValidateAll()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepVenue, verr.Step)

	layout := uint(7)
	s.Form.VenueLayout = &layout
	require.NoError(t, s.ValidateAll())
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Step: StepBasicInfo, Problems: []string{"title is required"}}
	assert.Equal(t, fmt.Sprintf("step %s: title is required", StepBasicInfo), err.Error())
}
