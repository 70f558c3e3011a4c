package identity

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const identityPrefix = "mfa:identity:"

// RedisStore persists identities as JSON values under mfa:identity:<name>.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore with the given Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get returns the identity for name, or nil if not found.
func (s *RedisStore) Get(ctx context.Context, name string) (*Identity, error) {
	data, err := s.rdb.Get(ctx, identityPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Put persists the identity. Identities do not expire.
func (s *RedisStore) Put(ctx context.Context, id *Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, identityPrefix+id.Name, data, 0).Err()
}

// Delete removes the identity.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.rdb.Del(ctx, identityPrefix+name).Err()
}
