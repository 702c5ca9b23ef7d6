package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client or a non-positive ttl
// yields a cache that never hits.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// CachedSource memoizes shop settings and language lookups in Redis between
// passes. Pricing and product data always come from the underlying Source.
// Cache failures fall through to the Source.
type CachedSource struct {
	Source
	cache  *Cache
	prefix string
}

// NewCachedSource wraps src. Keys are namespaced by prefix, typically the
// database table prefix plus shop id.
func NewCachedSource(src Source, cache *Cache, prefix string) *CachedSource {
	return &CachedSource{Source: src, cache: cache, prefix: strings.TrimSuffix(prefix, ":")}
}

func (s *CachedSource) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// LoadSettings implements Source.
func (s *CachedSource) LoadSettings(ctx context.Context) (Settings, error) {
	key := s.key("settings")
	var settings Settings
	if ok, err := s.cache.GetJSON(ctx, key, &settings); err == nil && ok {
		return settings, nil
	}
	settings, err := s.Source.LoadSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	_ = s.cache.SetJSON(ctx, key, settings)
	return settings, nil
}

// LanguageID implements Source.
func (s *CachedSource) LanguageID(ctx context.Context, iso string) (int64, error) {
	key := s.key("lang", strings.ToLower(strings.TrimSpace(iso)))
	var id int64
	if ok, err := s.cache.GetJSON(ctx, key, &id); err == nil && ok {
		return id, nil
	}
	id, err := s.Source.LanguageID(ctx, iso)
	if err != nil {
		return 0, err
	}
	_ = s.cache.SetJSON(ctx, key, id)
	return id, nil
}

// ShopGroupID implements Source.
func (s *CachedSource) ShopGroupID(ctx context.Context, shopID int64) (int64, error) {
	key := s.key("shop_group", strconv.FormatInt(shopID, 10))
	var id int64
	if ok, err := s.cache.GetJSON(ctx, key, &id); err == nil && ok {
		return id, nil
	}
	id, err := s.Source.ShopGroupID(ctx, shopID)
	if err != nil {
		return 0, err
	}
	_ = s.cache.SetJSON(ctx, key, id)
	return id, nil
}

var _ Source = (*CachedSource)(nil)
