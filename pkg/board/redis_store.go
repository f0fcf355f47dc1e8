package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every Redis key and channel.
const DefaultNamespace = "easel"

// RedisStore is the durable Store. Each session is one JSON string key plus a
// small metadata hash, both expiring after the session TTL.
// The store is safe for concurrent use from multiple goroutines.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
	opTimeout time.Duration
}

// RedisOption customises a RedisStore.
type RedisOption func(*RedisStore)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(namespace string) RedisOption {
	return func(s *RedisStore) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithOpTimeout bounds every individual Redis round-trip. Zero disables the bound.
func WithOpTimeout(timeout time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.opTimeout = timeout
	}
}

// NewRedisStore creates a store over a new Redis connection pool.
// No connection is made until the first operation; call Ping to verify.
func NewRedisStore(redisOpts *redis.Options, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:       redis.NewClient(redisOpts),
		namespace: DefaultNamespace,
		ttl:       DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Namespace returns the key prefix in use.
func (s *RedisStore) Namespace() string {
	return s.namespace
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

// Backend implements Store.
func (s *RedisStore) Backend() string {
	return "redis"
}

// Durable implements Store.
func (s *RedisStore) Durable() bool {
	return true
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]Item, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.rdb.Get(ctx, SessionItemsKey(s.namespace, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("failed to read items from Redis: %w", err)
	}

	return DecodeItems(data)
}

// Save implements Store. The item list and metadata are written in one
// MULTI/EXEC so their expiries stay aligned.
func (s *RedisStore) Save(ctx context.Context, sessionID string, items []Item) error {
	data, err := EncodeItems(items)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	itemsKey := SessionItemsKey(s.namespace, sessionID)
	metaKey := SessionMetaKey(s.namespace, sessionID)
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemsKey, data, s.ttl)
		pipe.HSetNX(ctx, metaKey, "created_at_ms", now)
		pipe.Expire(ctx, metaKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write items to Redis: %w", err)
	}

	return nil
}

// Touch implements Store.
func (s *RedisStore) Touch(ctx context.Context, sessionID string) (SessionMeta, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	itemsKey := SessionItemsKey(s.namespace, sessionID)
	metaKey := SessionMetaKey(s.namespace, sessionID)
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	var created *redis.StringCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, metaKey, "created_at_ms", now)
		pipe.Expire(ctx, metaKey, s.ttl)
		pipe.Expire(ctx, itemsKey, s.ttl)
		created = pipe.HGet(ctx, metaKey, "created_at_ms")
		return nil
	})
	if err != nil {
		return SessionMeta{}, fmt.Errorf("failed to touch session in Redis: %w", err)
	}

	createdMs, err := strconv.ParseInt(created.Val(), 10, 64)
	if err != nil {
		return SessionMeta{}, fmt.Errorf("invalid created_at_ms for session %s: %w", sessionID, err)
	}

	return SessionMeta{ID: sessionID, CreatedAt: time.UnixMilli(createdMs).UTC()}, nil
}

// Purge implements Store.
func (s *RedisStore) Purge(ctx context.Context, sessionID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.rdb.Del(ctx,
		SessionItemsKey(s.namespace, sessionID),
		SessionMetaKey(s.namespace, sessionID),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to purge session from Redis: %w", err)
	}
	return nil
}
