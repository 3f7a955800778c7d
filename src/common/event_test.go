package common

import (
	"testing"
	"tix/src/db"
	"tix/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mockDB(t *testing.T) sqlmock.Sqlmock {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	db.NewDB(gormDB)
	return mock
}

func TestPublishEventMarksPublicAndPublished(t *testing.T) {
	mock := mockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status", "type", "title"}).
			AddRow(5, 1, "draft", "ticketed", "Meetup"))
	mock.ExpectQuery(`SELECT \* FROM "ticket_types"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id"}))
	mock.ExpectExec(`UPDATE "events"`).
		WithArgs(true, "published", sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event, err := PublishEvent(5, 1)
	require.NoError(t, err)
	assert.Equal(t, types.EVENT_PUBLISHED, event.Status)
	assert.True(t, event.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnpublishEventDelistsAndRevertsToDraft(t *testing.T) {
	mock := mockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status", "type", "title"}).
			AddRow(5, 1, "published", "ticketed", "Meetup"))
	mock.ExpectExec(`UPDATE "events"`).
		WithArgs(false, "draft", sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event, err := UnpublishEvent(5, 1)
	require.NoError(t, err)
	assert.Equal(t, types.EVENT_DRAFT, event.Status)
	assert.False(t, event.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}
