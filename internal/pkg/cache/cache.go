// Package cache keeps computed dashboard payloads for a short time. Redis is
// used when it is reachable; otherwise entries live in the
// dashboards_data_cache table.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Store is the persistent fallback used when Redis is not available
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// FacultyAttendanceKey is the cache key of a faculty's attendance analytics
func FacultyAttendanceKey(facultyID int64) string {
	return fmt.Sprintf("dashboard:attendance:faculty:%d", facultyID)
}

// SectionAnalyticsKey is the cache key of a section's analytics payload
func SectionAnalyticsKey(sectionCourseID int64) string {
	return fmt.Sprintf("dashboard:analytics:section:%d", sectionCourseID)
}

// DashboardCache reads and writes JSON payloads
type DashboardCache struct {
	redis    *redis.Client
	fallback Store
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewDashboardCache creates a cache. client may be nil.
func NewDashboardCache(client *redis.Client, fallback Store, ttl time.Duration, logger zerolog.Logger) *DashboardCache {
	return &DashboardCache{
		redis:    client,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
	}
}

// NewRedisClient connects to Redis and returns nil when the server does not
// answer, so callers continue with the database fallback.
func NewRedisClient(ctx context.Context, addr, password string, db int, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("Redis connection failed, dashboard cache falls back to the database")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", addr).Msg("Redis connected")
	return client
}

// TTL returns the lifetime of new entries
func (c *DashboardCache) TTL() time.Duration {
	return c.ttl
}

// GetJSON decodes the entry under key into dest and reports whether it was found
func (c *DashboardCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	payload, found, err := c.get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		// A payload from an older release; treat as a miss.
		c.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return false, nil
	}
	return true, nil
}

// SetJSON stores v under key
func (c *DashboardCache) SetJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if c.redis != nil {
		err := c.redis.Set(ctx, key, payload, c.ttl).Err()
		if err == nil {
			return nil
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("Redis set failed, writing to database cache")
	}

	if c.fallback == nil {
		return nil
	}
	return c.fallback.Set(ctx, key, payload, c.ttl)
}

// Invalidate drops keys from both layers
func (c *DashboardCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if c.redis != nil {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn().Err(err).Strs("keys", keys).Msg("Redis delete failed")
		}
	}
	if c.fallback == nil {
		return nil
	}
	return c.fallback.Delete(ctx, keys...)
}

func (c *DashboardCache) get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.redis != nil {
		payload, err := c.redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			return payload, true, nil
		case err == redis.Nil:
			return nil, false, nil
		default:
			c.logger.Warn().Err(err).Str("key", key).Msg("Redis get failed, reading database cache")
		}
	}

	if c.fallback == nil {
		return nil, false, nil
	}
	return c.fallback.Get(ctx, key)
}
