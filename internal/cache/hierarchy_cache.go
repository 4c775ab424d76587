package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/config"
	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/redis/go-redis/v9"
)

const (
	hierarchyKeyPrefix     = "replenish:hierarchy"
	hierarchyScanBatchSize = 100
)

// HierarchyKey identifies one computed hierarchy. The filter's snapshot date
// must already be resolved so a new snapshot never hits an old entry.
type HierarchyKey struct {
	Filter domain.SnapshotFilter
	Config replenishment.PlanningConfig
	Mode   replenishment.ViewMode
}

type HierarchyCache interface {
	Get(ctx context.Context, key HierarchyKey) (*replenishment.Hierarchy, bool, error)
	Set(ctx context.Context, key HierarchyKey, h *replenishment.Hierarchy) error
	InvalidateAll(ctx context.Context) error
}

type redisHierarchyCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopHierarchyCache struct{}

func NewHierarchyCache(cfg config.CacheConfig) (HierarchyCache, error) {
	if !cfg.Enabled {
		return &noopHierarchyCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisHierarchyCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopHierarchyCache() HierarchyCache {
	return &noopHierarchyCache{}
}

func (c *redisHierarchyCache) Get(ctx context.Context, key HierarchyKey) (*replenishment.Hierarchy, bool, error) {
	payload, err := c.client.Get(ctx, buildHierarchyKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var h replenishment.Hierarchy
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, false, fmt.Errorf("decode hierarchy cache: %w", err)
	}

	return &h, true, nil
}

func (c *redisHierarchyCache) Set(ctx context.Context, key HierarchyKey, h *replenishment.Hierarchy) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode hierarchy cache: %w", err)
	}

	if err := c.client.Set(ctx, buildHierarchyKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisHierarchyCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, hierarchyKeyPrefix, hierarchyScanBatchSize)
}

func (n *noopHierarchyCache) Get(ctx context.Context, key HierarchyKey) (*replenishment.Hierarchy, bool, error) {
	return nil, false, nil
}

func (n *noopHierarchyCache) Set(ctx context.Context, key HierarchyKey, h *replenishment.Hierarchy) error {
	return nil
}

func (n *noopHierarchyCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildHierarchyKey(key HierarchyKey) string {
	return fmt.Sprintf("%s:%s", hierarchyKeyPrefix, hierarchyKeyHash(key))
}

func hierarchyKeyHash(key HierarchyKey) string {
	parts := []string{
		fmt.Sprintf("planning_days=%d", key.Config.PlanningDays),
		fmt.Sprintf("buffer_days=%g", key.Config.BufferDays),
		"buffer_mode=" + string(key.Config.BufferMode),
		"mode=" + string(key.Mode),
	}

	if key.Filter.SnapshotDate != "" {
		parts = append(parts, "snapshot_date="+strings.TrimSpace(key.Filter.SnapshotDate))
	}
	if len(key.Filter.ProductIDs) > 0 {
		parts = append(parts, "product_ids="+joinStrings(key.Filter.ProductIDs))
	}
	if len(key.Filter.StoreIDs) > 0 {
		parts = append(parts, "store_ids="+joinStrings(key.Filter.StoreIDs))
	}
	// Category names are matched case-sensitively by the repository.
	if len(key.Filter.Categories) > 0 {
		c := append([]string(nil), key.Filter.Categories...)
		sort.Strings(c)
		parts = append(parts, "categories="+strings.Join(c, ","))
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(c[i])
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
