package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"flowmate/domain"
)

const snapshotCacheKey = "flowmate:snapshot"

// Cache wraps a Gateway with Redis-backed caching of the board snapshot.
// Reads are served from Redis when possible; every write passes through to
// the base gateway and evicts the cached snapshot. Redis outages degrade to
// the base gateway without failing the call.
type Cache struct {
	base  Gateway
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Gateway wrapper using the provided Redis
// client and TTL.
func NewCache(base Gateway, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base gateway is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) LoadAll(ctx context.Context) (domain.Snapshot, error) {
	return c.fetchSnapshot(ctx, c.base.LoadAll)
}

func (c *Cache) ExportAll(ctx context.Context) (domain.Snapshot, error) {
	return c.fetchSnapshot(ctx, c.base.ExportAll)
}

func (c *Cache) fetchSnapshot(ctx context.Context, load func(context.Context) (domain.Snapshot, error)) (domain.Snapshot, error) {
	if snap, ok := c.loadFromCache(ctx); ok {
		return snap, nil
	}
	snap, err := load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	c.store(ctx, snap)
	return snap, nil
}

func (c *Cache) ReplaceAllTasksAndColumns(ctx context.Context, columns []domain.Column) error {
	if err := c.base.ReplaceAllTasksAndColumns(ctx, columns); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) ReplaceAllRules(ctx context.Context, rules []domain.Rule) error {
	if err := c.base.ReplaceAllRules(ctx, rules); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) AddTask(ctx context.Context, task domain.Task) error {
	if err := c.base.AddTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, task domain.Task) error {
	if err := c.base.UpdateTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.base.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) ImportAll(ctx context.Context, snap domain.Snapshot) error {
	if err := c.base.ImportAll(ctx, snap); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) ClearTasks(ctx context.Context) error {
	if err := c.base.ClearTasks(ctx); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context) (domain.Snapshot, bool) {
	if c.redis == nil {
		return domain.Snapshot{}, false
	}
	data, err := c.redis.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the base gateway without failing.
			_ = c.redis.Del(ctx, snapshotCacheKey).Err()
		}
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = c.redis.Del(ctx, snapshotCacheKey).Err()
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (c *Cache) store(ctx context.Context, snap domain.Snapshot) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, snapshotCacheKey, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, snapshotCacheKey).Result()
}
