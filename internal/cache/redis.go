package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kudos-cafe/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore implements IdempotencyStore and AnalyticsCache on Redis.
type RedisStore struct {
	rdb          *redis.Client
	idemTTL      time.Duration
	analyticsTTL time.Duration
	logger       zerolog.Logger
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedisStore wraps a Redis client.
func NewRedisStore(rdb *redis.Client, idemTTL, analyticsTTL time.Duration, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		rdb:          rdb,
		idemTTL:      idemTTL,
		analyticsTTL: analyticsTTL,
		logger:       logger.With().Str("component", "redis-cache").Logger(),
	}
}

func (s *RedisStore) Claim(ctx context.Context, scope, key string) (bool, error) {
	k := fmt.Sprintf(KeyIdempotency, scope, key)
	ok, err := s.rdb.SetNX(ctx, k, "1", s.idemTTL).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("key", k).Msg("failed to claim idempotency key")
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	k := fmt.Sprintf(KeyIdempotency, scope, key)
	if err := s.rdb.Del(ctx, k).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", k).Msg("failed to release idempotency key")
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (*model.AnalyticsSummary, bool, error) {
	data, err := s.rdb.Get(ctx, KeyAnalyticsSummary).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read analytics cache: %w", err)
	}

	var summary model.AnalyticsSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed analytics cache entry")
		return nil, false, nil
	}
	return &summary, true, nil
}

func (s *RedisStore) Set(ctx context.Context, summary *model.AnalyticsSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode analytics summary: %w", err)
	}
	if err := s.rdb.Set(ctx, KeyAnalyticsSummary, data, s.analyticsTTL).Err(); err != nil {
		return fmt.Errorf("failed to write analytics cache: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context) error {
	if err := s.rdb.Del(ctx, KeyAnalyticsSummary).Err(); err != nil {
		return fmt.Errorf("failed to invalidate analytics cache: %w", err)
	}
	return nil
}
