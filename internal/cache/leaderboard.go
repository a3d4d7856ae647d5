// Package cache holds the Redis-backed read cache for leaderboard tops.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"meditation-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	topKeyPrefix  = "leaderboard:top:"
	generationKey = "leaderboard:gen"
)

// LeaderboardCache stores serialized top-N lists keyed by generation and
// limit. Invalidate bumps the generation, so a list filled from a read that
// began before the bump is written under a key no reader asks for.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a cache over an existing client
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Connect opens a Redis client and verifies it answers
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func topKey(generation int64, limit int) string {
	return topKeyPrefix + strconv.FormatInt(generation, 10) + ":" + strconv.Itoa(limit)
}

// Generation returns the current cache generation; an unset counter is 0
func (c *LeaderboardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// GetTop returns the list cached for limit in generation; ok is false on a miss
func (c *LeaderboardCache) GetTop(ctx context.Context, generation int64, limit int) ([]models.LeaderboardEntry, bool, error) {
	data, err := c.client.Get(ctx, topKey(generation, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached top: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached top: %w", err)
	}
	return entries, true, nil
}

// SetTop caches entries for limit under generation until the TTL expires
func (c *LeaderboardCache) SetTop(ctx context.Context, generation int64, limit int, entries []models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode top: %w", err)
	}
	if err := c.client.Set(ctx, topKey(generation, limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache top: %w", err)
	}
	return nil
}

// Invalidate moves readers to a new generation. Lists of older generations
// are never read again and expire with their TTL.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}
