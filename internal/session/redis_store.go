package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "mfa:session:"

// RedisStore persists sessions as JSON values under mfa:session:<id> with a
// fixed TTL, so abandoned sessions expire on their own.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore with the given client and session TTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Get returns the session for id, or nil if not found or expired.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Put persists the session, refreshing its TTL.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionPrefix+sess.ID, data, s.ttl).Err()
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionPrefix+id).Err()
}
