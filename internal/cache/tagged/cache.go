package tagged

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

const (
	DefaultPrefix     = "cache:"
	DefaultTagPrefix  = "cache_tag:"
	DefaultTTL        = 5 * time.Minute
	DefaultMaxTagKeys = 1000
)

// Проверка соответствия порту.
var _ ports.TaggedCache = (*Cache)(nil)

// Cache — кэш с TTL на запись и инвалидацией по тегам поверх ports.KVStore.
// Сбои хранилища не выходят наружу: логируются, считаются в метриках и дают промах.
type Cache struct {
	store ports.KVStore
	log   ports.Logger

	prefix     string
	tagPrefix  string
	defaultTTL time.Duration
	maxTagKeys int
	now        func() time.Time

	// tagMu сериализует read-modify-write индексов тегов внутри процесса.
	tagMu sync.Mutex
}

type Option func(*Cache)

// WithPrefix — префикс ключей записей.
func WithPrefix(p string) Option { return func(c *Cache) { c.prefix = p } }

// WithTagPrefix — префикс ключей индексов тегов.
func WithTagPrefix(p string) Option { return func(c *Cache) { c.tagPrefix = p } }

// WithDefaultTTL — TTL, если в CacheOptions он не задан.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// WithMaxTagKeys — верхняя граница длины индекса одного тега; 0 — без ограничения.
func WithMaxTagKeys(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.maxTagKeys = n
		}
	}
}

// WithClock — источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(store ports.KVStore, log ports.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		log:        log,
		prefix:     DefaultPrefix,
		tagPrefix:  DefaultTagPrefix,
		defaultTTL: DefaultTTL,
		maxTagKeys: DefaultMaxTagKeys,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set — сериализует запись и обновляет индексы тегов.
// Возвращает ошибку только если data не сериализуется в JSON.
func (c *Cache) Set(ctx context.Context, key string, data any, opts ports.CacheOptions) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("tagged cache: marshal %q: %w", key, err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	raw, err := json.Marshal(entry{
		Data:      payload,
		Timestamp: c.now().UnixMilli(),
		TTLMillis: ttl.Milliseconds(),
		Tags:      dedupTags(opts.Tags),
	})
	if err != nil {
		return fmt.Errorf("tagged cache: marshal entry %q: %w", key, err)
	}

	if err := c.store.Set(ctx, c.entryKey(key), string(raw)); err != nil {
		c.storeFailed(ctx, "set", key, err)
		return nil
	}
	metrics.CacheOps.WithLabelValues("set").Inc()

	for _, tag := range dedupTags(opts.Tags) {
		c.addToTag(ctx, tag, key)
	}
	return nil
}

// Get — декодирует значение в dst. Истёкшая или испорченная запись удаляется.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	ent, ok := c.load(ctx, key)
	if !ok {
		return false
	}
	if dst != nil {
		if err := json.Unmarshal(ent.Data, dst); err != nil {
			c.log.Warnf(ctx, "tagged cache: corrupt payload key=%s: %v (removed)", key, err)
			metrics.CacheOps.WithLabelValues("corrupt").Inc()
			c.removeRaw(ctx, c.entryKey(key))
			return false
		}
	}
	metrics.CacheOps.WithLabelValues("hit").Inc()
	return true
}

// Has — то же, что Get, без декодирования данных.
func (c *Cache) Has(ctx context.Context, key string) bool {
	return c.Get(ctx, key, nil)
}

// Remove — удаляет только запись, индексы тегов не трогает.
func (c *Cache) Remove(ctx context.Context, key string) {
	c.removeRaw(ctx, c.entryKey(key))
	metrics.CacheOps.WithLabelValues("remove").Inc()
}

// InvalidateByTag — удаляет все записи из индекса тега, затем сам индекс.
func (c *Cache) InvalidateByTag(ctx context.Context, tag string) {
	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	keys, ok := c.readTag(ctx, tag)
	if !ok {
		return
	}
	for _, key := range keys {
		c.Remove(ctx, key)
	}
	c.removeRaw(ctx, c.tagKey(tag))
	metrics.CacheOps.WithLabelValues("invalidated").Add(float64(len(keys)))
}

// InvalidateByTags — InvalidateByTag для каждого тега независимо.
func (c *Cache) InvalidateByTags(ctx context.Context, tags []string) {
	for _, tag := range tags {
		c.InvalidateByTag(ctx, tag)
	}
}

// Clear — удаляет все записи и индексы этого экземпляра; чужие ключи не трогает.
func (c *Cache) Clear(ctx context.Context) {
	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	for _, prefix := range []string{c.prefix, c.tagPrefix} {
		keys, err := c.store.Keys(ctx, prefix)
		if err != nil {
			c.storeFailed(ctx, "keys", prefix, err)
			continue
		}
		for _, k := range keys {
			c.removeRaw(ctx, k)
		}
	}
	metrics.CacheOps.WithLabelValues("cleared").Inc()
}

// load — читает и проверяет запись; промах, истечение и порча дают false.
func (c *Cache) load(ctx context.Context, key string) (entry, bool) {
	storeKey := c.entryKey(key)

	raw, found, err := c.store.Get(ctx, storeKey)
	if err != nil {
		c.storeFailed(ctx, "get", key, err)
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return entry{}, false
	}
	if !found {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return entry{}, false
	}

	ent, err := decodeEntry(raw)
	if err != nil {
		c.log.Warnf(ctx, "tagged cache: corrupt entry key=%s: %v (removed)", key, err)
		metrics.CacheOps.WithLabelValues("corrupt").Inc()
		c.removeRaw(ctx, storeKey)
		return entry{}, false
	}

	if !ent.live(c.now()) {
		metrics.CacheOps.WithLabelValues("expired").Inc()
		c.removeRaw(ctx, storeKey)
		return entry{}, false
	}
	return ent, true
}

func (c *Cache) removeRaw(ctx context.Context, storeKey string) {
	if err := c.store.Remove(ctx, storeKey); err != nil {
		c.storeFailed(ctx, "remove", storeKey, err)
	}
}

func (c *Cache) storeFailed(ctx context.Context, op, key string, err error) {
	metrics.CacheStoreErrors.WithLabelValues(op).Inc()
	c.log.Warnf(ctx, "tagged cache: store %s failed key=%s: %v", op, key, err)
}

func (c *Cache) entryKey(key string) string { return c.prefix + key }
func (c *Cache) tagKey(tag string) string   { return c.tagPrefix + tag }
