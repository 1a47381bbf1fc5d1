package approvers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache decorates a Repository with Redis based read caching. Lookups on the
// hot resolve path collapse through singleflight so a burst of submissions
// naming the same approver performs one database read per TTL window.
type Cache struct {
	repo   Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache decorator.
func NewCache(repo Repository, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{repo: repo, client: client, ttl: ttl}
}

func cacheKey(parts ...string) string {
	return "approvers:" + strings.Join(parts, ":")
}

// fetch loads a cached approver or populates it using the loader.
func (c *Cache) fetch(ctx context.Context, key string, loader func(context.Context) (Approver, error)) (Approver, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var a Approver
			if err := json.Unmarshal(raw, &a); err == nil {
				return a, nil
			}
		} else if err != redis.Nil {
			return Approver{}, fmt.Errorf("approvers: cache get: %w", err)
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		a, err := loader(ctx)
		if err != nil {
			return Approver{}, err
		}
		if c.client != nil {
			if raw, err := json.Marshal(a); err == nil {
				_ = c.client.Set(ctx, key, raw, c.ttl).Err()
			}
		}
		return a, nil
	})
	if err != nil {
		return Approver{}, err
	}
	return v.(Approver), nil
}

// Get loads an approver by id through the cache.
func (c *Cache) Get(ctx context.Context, id int64) (Approver, error) {
	return c.fetch(ctx, cacheKey("id", strconv.FormatInt(id, 10)), func(ctx context.Context) (Approver, error) {
		return c.repo.Get(ctx, id)
	})
}

// GetByEmail loads an approver by contact identity through the cache.
func (c *Cache) GetByEmail(ctx context.Context, email string) (Approver, error) {
	return c.fetch(ctx, cacheKey("email", strings.ToLower(email)), func(ctx context.Context) (Approver, error) {
		return c.repo.GetByEmail(ctx, email)
	})
}

// List passes through; list results are not cached.
func (c *Cache) List(ctx context.Context, search string, limit, offset int) ([]Approver, int, error) {
	return c.repo.List(ctx, search, limit, offset)
}

// Invalidate drops cached entries for an approver after an admin edit.
func (c *Cache) Invalidate(ctx context.Context, a Approver) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx,
		cacheKey("id", strconv.FormatInt(a.ID, 10)),
		cacheKey("email", strings.ToLower(a.Email)),
	).Err()
}
