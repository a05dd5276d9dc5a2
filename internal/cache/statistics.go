package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/harveystores/reorder-backend/internal/config"
	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	statisticsKeyPrefix  = "order:statistics:"
	defaultStatisticsTTL = time.Minute
)

// SessionStatisticsCache caches the per-session review aggregates that the
// UI polls while an order is being edited.
type SessionStatisticsCache interface {
	Get(ctx context.Context, sessionID int64) (*domain.SessionStatistics, bool, error)
	Set(ctx context.Context, sessionID int64, stats *domain.SessionStatistics) error
	Invalidate(ctx context.Context, sessionID int64) error
}

type redisStatisticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopStatisticsCache struct{}

func NewSessionStatisticsCache(cfg config.CacheConfig) (SessionStatisticsCache, error) {
	if !cfg.Enabled {
		return &noopStatisticsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisStatisticsCache{client: client, ttl: ttl}, nil
}

func NewNoopSessionStatisticsCache() SessionStatisticsCache {
	return &noopStatisticsCache{}
}

func (c *redisStatisticsCache) Get(ctx context.Context, sessionID int64) (*domain.SessionStatistics, bool, error) {
	payload, err := c.client.Get(ctx, statisticsKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var stats domain.SessionStatistics
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, false, fmt.Errorf("decode session statistics cache: %w", err)
	}

	return &stats, true, nil
}

func (c *redisStatisticsCache) Set(ctx context.Context, sessionID int64, stats *domain.SessionStatistics) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode session statistics cache: %w", err)
	}

	if err := c.client.Set(ctx, statisticsKey(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisStatisticsCache) Invalidate(ctx context.Context, sessionID int64) error {
	if err := c.client.Del(ctx, statisticsKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func (noopStatisticsCache) Get(context.Context, int64) (*domain.SessionStatistics, bool, error) {
	return nil, false, nil
}

func (noopStatisticsCache) Set(context.Context, int64, *domain.SessionStatistics) error {
	return nil
}

func (noopStatisticsCache) Invalidate(context.Context, int64) error {
	return nil
}

func statisticsKey(sessionID int64) string {
	return statisticsKeyPrefix + strconv.FormatInt(sessionID, 10)
}
