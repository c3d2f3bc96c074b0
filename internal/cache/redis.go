package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/config"
)

const redisKeyPrefix = "dairyos:"

// envelope wraps a cached payload with its fetch time so the freshness window
// can be evaluated independently of the Redis TTL, which enforces retention.
type envelope struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisStore is the Redis-backed Store used when REDIS_ADDR is configured, so
// multiple instances share one view of cached reads and invalidations.
type RedisStore struct {
	rdb       *redis.Client
	freshness time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewRedisStore connects a Redis-backed store.
func NewRedisStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.RedisAddr, err)
	}
	return &RedisStore{
		rdb:       rdb,
		freshness: cfg.Freshness,
		retention: cfg.Retention,
		logger:    logger,
	}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (Freshness, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Miss, nil
	}
	if err != nil {
		return Miss, fmt.Errorf("redis get %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Miss, fmt.Errorf("decode cached envelope for %s: %w", key, err)
	}
	if err := json.Unmarshal(env.Payload, dest); err != nil {
		return Miss, fmt.Errorf("decode cached value for %s: %w", key, err)
	}

	if time.Since(env.FetchedAt) > s.freshness {
		return Stale, nil
	}
	return Fresh, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", key, err)
	}
	raw, err := json.Marshal(envelope{FetchedAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope for %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, raw, s.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = redisKeyPrefix + key
	}
	if err := s.rdb.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	s.logger.Debug("cache invalidated", zap.Strings("keys", keys))
	return nil
}

func (s *RedisStore) InvalidatePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	pattern := redisKeyPrefix + prefix + "*"
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
