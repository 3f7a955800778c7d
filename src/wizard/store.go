package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionTTL = 24 * time.Hour

// Store holds wizard sessions between requests.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON with a sliding TTL. An abandoned wizard
// expires on its own.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: sessionTTL}
}

func sessionKey(id string) string {
	return fmt.Sprintf("wizard:session:%s", id)
}

func (st *RedisStore) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return st.rdb.Set(ctx, sessionKey(s.ID.String()), raw, st.ttl).Err()
}

func (st *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := st.rdb.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	// refresh the TTL on every read so active sessions stay alive
	st.rdb.Expire(ctx, sessionKey(id), st.ttl)
	return &s, nil
}

func (st *RedisStore) Delete(ctx context.Context, id string) error {
	return st.rdb.Del(ctx, sessionKey(id)).Err()
}
