package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"example.com/backstage/services/picking/internal/cache"

	pkgerrors "github.com/pkg/errors"
)

// RedisStore keeps records in Redis, relying on key TTLs for expiry
type RedisStore[T Tokener] struct {
	client cache.RedisClient
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a Redis backed store. Keys are namespaced by prefix.
func NewRedisStore[T Tokener](client cache.RedisClient, ttl time.Duration, prefix string) *RedisStore[T] {
	return &RedisStore[T]{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisStore[T]) Put(ctx context.Context, key string, record T) error {
	if s.ttl <= 0 {
		return ErrInvalidTTL
	}

	data, err := json.Marshal(record)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode token record")
	}
	if err := s.client.Set(ctx, s.prefix+key, string(data), s.ttl); err != nil {
		return pkgerrors.Wrap(err, "failed to store token record")
	}
	return nil
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var rec T

	raw, err := s.client.Get(ctx, s.prefix+key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, pkgerrors.Wrap(err, "failed to load token record")
	}

	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, false, pkgerrors.Wrap(err, "failed to decode token record")
	}
	return rec, true, nil
}

func (s *RedisStore[T]) Validate(ctx context.Context, key, candidate string) (bool, error) {
	rec, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return validate(rec, ok, candidate), nil
}

func (s *RedisStore[T]) Remove(ctx context.Context, key string) error {
	if err := s.client.Delete(ctx, s.prefix+key); err != nil {
		return pkgerrors.Wrap(err, "failed to remove token record")
	}
	return nil
}
