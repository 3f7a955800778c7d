package utils

import (
	"testing"
	"tix/src/models"
	"tix/src/types"
	"tix/src/wizard"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestSaveEventFromWizardCreatesLayoutFromPlacedSeats(t *testing.T) {
	gormDB, mock := mockDB(t)

	session := wizard.NewSession(1)
	session.Form = wizard.FormState{
		EventType:  types.EVENT_TYPE_PREMIUM,
		Title:      "Gala Night",
		StartsAt:   "2027-06-01 19:00:00 +00:00",
		Categories: []string{"music"},
		TicketTypes: []types.TicketTypeRequestBody{
			{Name: "Standard", Price: 50, Quantity: 2},
		},
		Seats: []types.SeatRequestBody{
			{Row: "A", Number: 1, Category: "standard"},
			{Row: "A", Number: 2, Category: "standard"},
		},
	}
	require.NoError(t, session.ValidateStep(wizard.StepVenue))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "venue_layouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "seats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE "ticket_types" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "ticket_types"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	var event *models.Event
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		saved, err := SaveEventFromWizard(tx, session)
		if err != nil {
			return err
		}
		event = saved
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, event.VenueLayoutID)
	assert.Equal(t, uint(7), *event.VenueLayoutID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEventFromWizardReplacesTicketTypes(t *testing.T) {
	gormDB, mock := mockDB(t)

	eventID := uint(5)
	session := wizard.NewSession(1)
	session.EventID = &eventID
	session.Form = wizard.FormState{
		EventType:  types.EVENT_TYPE_TICKETED,
		Title:      "Meetup",
		StartsAt:   "2027-06-01 19:00:00 +00:00",
		Categories: []string{"tech"},
		TicketTypes: []types.TicketTypeRequestBody{
			{Name: "General", Price: 20, Quantity: 100},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status", "type", "title"}).
			AddRow(5, 1, "draft", "ticketed", "Meetup"))
	mock.ExpectExec(`UPDATE "events"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// every previous ticket type goes, only the submitted one comes back
	mock.ExpectExec(`UPDATE "ticket_types" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO "ticket_types"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	var event *models.Event
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		saved, err := SaveEventFromWizard(tx, session)
		if err != nil {
			return err
		}
		event = saved
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, eventID, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
