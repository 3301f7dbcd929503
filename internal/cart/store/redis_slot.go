package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var _ Slot = (*RedisSlot)(nil)

// RedisSlot stores values as Redis strings without expiry.
type RedisSlot struct {
	client *redis.Client
}

// NewRedisSlot creates a RedisSlot on an existing client.
func NewRedisSlot(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

func (s *RedisSlot) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	return data, nil
}

func (s *RedisSlot) Write(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}
