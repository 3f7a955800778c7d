package wizard

import (
	"context"
	"encoding/json"
	"testing"
	"tix/src/types"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreSaveAndLoad(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb)

	s := NewSession(7)
	s.Form.EventType = types.EVENT_TYPE_TICKETED
	s.Form.Title = "Jazz Night"
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	key := sessionKey(s.ID.String())
	mock.ExpectSet(key, raw, sessionTTL).SetVal("OK")
	require.NoError(t, store.Save(context.Background(), s))

	mock.ExpectGet(key).SetVal(string(raw))
	mock.ExpectExpire(key, sessionTTL).SetVal(true)
	loaded, err := store.Load(context.Background(), s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, uint(7), loaded.OwnerID)
	assert.Equal(t, "Jazz Night", loaded.Form.Title)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreLoadMissingSession(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb)

	mock.ExpectGet(sessionKey("nope")).RedisNil()
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb)

	mock.ExpectDel(sessionKey("gone")).SetVal(1)
	require.NoError(t, store.Delete(context.Background(), "gone"))
	require.NoError(t, mock.ExpectationsWereMet())
}
