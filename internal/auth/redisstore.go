package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys as "<prefix>:<token>".
const DefaultRedisPrefix = "yva_session"

// RedisStore keeps JSON-encoded sessions in Redis with a TTL matching their validity.
type RedisStore struct {
	client *redis.Client
	prefix string
	legacy time.Duration
	clock  Clock
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, prefix string, legacy time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, legacy: legacy, clock: realClock{}}
}

func (r *RedisStore) useClock(clock Clock) {
	r.clock = clock
}

func (r *RedisStore) key(token string) string {
	return fmt.Sprintf("%s:%s", r.prefix, token)
}

func (r *RedisStore) Put(ctx context.Context, token string, s *Session) error {
	ttl := s.Deadline(r.legacy).Sub(r.clock.Now())
	if ttl <= 0 {
		return r.Delete(ctx, token)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, bool, error) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	return &s, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) Tokens(ctx context.Context) ([]string, error) {
	var tokens []string
	prefix := r.prefix + ":"

	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		tokens = append(tokens, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return tokens, nil
}
