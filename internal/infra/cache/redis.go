// Package cache provides Redis-based caching for reconstructed scenario
// snapshots. The event log stays the source of truth; the cache only
// spares repeated replays of the same prefix.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EvLab-MIT/cb2/internal/messages"
)

// ErrCacheMiss is returned when no snapshot is stored for an event.
var ErrCacheMiss = errors.New("scenario not in cache")

// RedisClient is the slice of Redis operations the cache needs.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ScenarioCache stores reconstructed snapshots keyed by anchor event id.
// Reconstruction is deterministic, so a hit is always as good as a
// fresh fold.
type ScenarioCache struct {
	client     RedisClient
	expiration time.Duration
}

// NewScenarioCache creates a new scenario cache instance.
func NewScenarioCache(client RedisClient) *ScenarioCache {
	return &ScenarioCache{
		client:     client,
		expiration: 15 * time.Minute,
	}
}

// SetScenario caches a snapshot under its anchor event.
func (c *ScenarioCache) SetScenario(ctx context.Context, eventID string, sc messages.Scenario) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	return c.client.Set(ctx, c.scenarioKey(eventID), data, c.expiration)
}

// GetScenario retrieves a cached snapshot, or ErrCacheMiss.
func (c *ScenarioCache) GetScenario(ctx context.Context, eventID string) (*messages.Scenario, error) {
	data, err := c.client.Get(ctx, c.scenarioKey(eventID))
	if err != nil {
		return nil, err
	}
	var sc messages.Scenario
	if err := json.Unmarshal([]byte(data), &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	return &sc, nil
}

// Invalidate drops the cached snapshot for an event.
func (c *ScenarioCache) Invalidate(ctx context.Context, eventID string) error {
	return c.client.Del(ctx, c.scenarioKey(eventID))
}

func (c *ScenarioCache) scenarioKey(eventID string) string {
	return fmt.Sprintf("scenario:event:%s", eventID)
}

// goRedisClient adapts a go-redis connection to the RedisClient slice.
type goRedisClient struct {
	rdb *redis.Client
}

// NewRedisClient connects to Redis at addr and wraps it for the cache.
func NewRedisClient(ctx context.Context, addr, password string, db int) (RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &goRedisClient{rdb: rdb}, nil
}

func (c *goRedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *goRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

func (c *goRedisClient) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}
