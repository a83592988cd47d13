package cache

import (
	"VoiceCalendarAI/backend/go/internal/models"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// OutcomeCache caches interpretation outcomes. Interpretation is a pure
// function of transcript, reference timestamp and timezone, so a cached
// outcome is exactly what a fresh run would produce.
type OutcomeCache interface {
	Get(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, bool)
	Set(ctx context.Context, req models.InterpretRequest, outcome *models.InterpretOutcome) error
}

// RedisOutcomeCache is an OutcomeCache backed by Redis.
type RedisOutcomeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOutcomeCache creates a new RedisOutcomeCache.
func NewRedisOutcomeCache(client *redis.Client, ttl time.Duration) *RedisOutcomeCache {
	return &RedisOutcomeCache{client: client, ttl: ttl}
}

// cacheKey derives the cache key from everything interpretation depends on.
func cacheKey(req models.InterpretRequest) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", req.Transcript, req.Reference.Unix(), req.Timezone)))
	return "interpret:" + hex.EncodeToString(h[:])
}

// Get returns the cached outcome for the request, if present. Cache errors
// are treated as misses.
func (c *RedisOutcomeCache) Get(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, bool) {
	data, err := c.client.Get(ctx, cacheKey(req)).Bytes()
	if err != nil {
		return nil, false
	}
	var outcome models.InterpretOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, false
	}
	return &outcome, true
}

// Set stores the outcome for the request with the configured TTL.
func (c *RedisOutcomeCache) Set(ctx context.Context, req models.InterpretRequest, outcome *models.InterpretOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(req), data, c.ttl).Err()
}
