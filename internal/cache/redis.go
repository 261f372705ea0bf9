package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in redis as JSON so several API instances share one cache.
// Redis expiry is set to the entry TTL; the lazy check in Cache still decides liveness.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a store writing keys under prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("cache: decoding redis entry %s: %w", key, err)
	}
	return &e, nil
}

func (s *RedisStore) Set(ctx context.Context, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encoding entry %s: %w", entry.Key, err)
	}
	if err := s.client.Set(ctx, s.prefix+entry.Key, raw, entry.TTL).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", entry.Key, err)
	}
	return nil
}

// OpenRedis creates a redis client; an empty address yields nil.
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}
