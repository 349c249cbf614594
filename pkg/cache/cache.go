// Package cache holds the read cache for the current system prompt.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// DefaultTTL is the staleness bound used when none is configured.
const DefaultTTL = 60 * time.Second

// SystemPromptCache caches the current system prompt snapshot.
// A zero TTL disables caching: Get always misses.
type SystemPromptCache interface {
	// Get returns the cached snapshot and true, or nil and false on a miss.
	Get(ctx context.Context) (*models.SystemPromptSnapshot, bool, error)
	Set(ctx context.Context, snapshot *models.SystemPromptSnapshot) error
	Invalidate(ctx context.Context) error
}

// memoryCache is the in-process implementation used when Redis is not configured.
type memoryCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	entry     *models.SystemPromptSnapshot
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) SystemPromptCache {
	return &memoryCache{ttl: ttl, now: time.Now}
}

func (c *memoryCache) Get(_ context.Context) (*models.SystemPromptSnapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	snapshot := *c.entry
	return &snapshot, true, nil
}

func (c *memoryCache) Set(_ context.Context, snapshot *models.SystemPromptSnapshot) error {
	if c.ttl <= 0 || snapshot == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *snapshot
	c.entry = &copied
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
	return nil
}

// redisKey is the single key holding the cached snapshot.
const redisKey = "milestone-gateway:system-prompt:current"

// redisCache shares the cached snapshot across gateway replicas.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) SystemPromptCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context) (*models.SystemPromptSnapshot, bool, error) {
	if c.ttl <= 0 {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached system prompt: %w", err)
	}

	var snapshot models.SystemPromptSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached system prompt: %w", err)
	}
	return &snapshot, true, nil
}

func (c *redisCache) Set(ctx context.Context, snapshot *models.SystemPromptSnapshot) error {
	if c.ttl <= 0 || snapshot == nil {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode system prompt: %w", err)
	}
	if err := c.client.Set(ctx, redisKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache system prompt: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached system prompt: %w", err)
	}
	return nil
}

// New returns the Redis cache when client is non-nil, otherwise the in-process cache.
func New(client *redis.Client, ttl time.Duration) SystemPromptCache {
	if client != nil {
		return NewRedisCache(client, ttl)
	}
	return NewMemoryCache(ttl)
}

var (
	_ SystemPromptCache = (*memoryCache)(nil)
	_ SystemPromptCache = (*redisCache)(nil)
)
