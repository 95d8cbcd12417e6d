package tagged

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

// addToTag — дописывает key в индекс тега, если его там нет.
// При переполнении индекса отбрасываются самые старые ссылки (сами записи живут до TTL).
func (c *Cache) addToTag(ctx context.Context, tag, key string) {
	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	keys, ok := c.readTag(ctx, tag)
	if !ok {
		return
	}
	if slices.Contains(keys, key) {
		return
	}
	keys = append(keys, key)

	if c.maxTagKeys > 0 && len(keys) > c.maxTagKeys {
		drop := len(keys) - c.maxTagKeys
		keys = keys[drop:]
		metrics.CacheTagIndexTrimmed.Add(float64(drop))
	}
	metrics.CacheTagIndexSize.Observe(float64(len(keys)))

	c.writeTag(ctx, tag, keys)
}

// readTag — читает индекс тега. Отсутствующий или испорченный индекс — пустой список;
// false только при ошибке хранилища.
func (c *Cache) readTag(ctx context.Context, tag string) ([]string, bool) {
	raw, found, err := c.store.Get(ctx, c.tagKey(tag))
	if err != nil {
		c.storeFailed(ctx, "get", c.tagKey(tag), err)
		return nil, false
	}
	if !found {
		return nil, true
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		c.log.Warnf(ctx, "tagged cache: corrupt tag index tag=%s: %v (reset)", tag, err)
		metrics.CacheOps.WithLabelValues("corrupt").Inc()
		return nil, true
	}
	return keys, true
}

func (c *Cache) writeTag(ctx context.Context, tag string, keys []string) {
	raw, err := json.Marshal(keys)
	if err != nil {
		// []string всегда сериализуется
		return
	}
	if err := c.store.Set(ctx, c.tagKey(tag), string(raw)); err != nil {
		c.storeFailed(ctx, "set", c.tagKey(tag), err)
	}
}

// PruneTags — проходит по всем индексам тегов и убирает ссылки на отсутствующие
// или истёкшие записи; пустые индексы удаляются. Возвращает число убранных ссылок.
func (c *Cache) PruneTags(ctx context.Context) int {
	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	tagKeys, err := c.store.Keys(ctx, c.tagPrefix)
	if err != nil {
		c.storeFailed(ctx, "keys", c.tagPrefix, err)
		return 0
	}

	pruned := 0
	for _, tk := range tagKeys {
		tag := tk[len(c.tagPrefix):]
		keys, ok := c.readTag(ctx, tag)
		if !ok {
			continue
		}
		alive := keys[:0]
		for _, key := range keys {
			if c.exists(ctx, key) {
				alive = append(alive, key)
			}
		}
		pruned += len(keys) - len(alive)

		switch {
		case len(alive) == 0:
			c.removeRaw(ctx, tk)
		case len(alive) != len(keys):
			c.writeTag(ctx, tag, alive)
		}
	}
	if pruned > 0 {
		c.log.Infof(ctx, "tagged cache: pruned %d stale tag references", pruned)
	}
	return pruned
}

// exists — жива ли запись; истёкшие и испорченные удаляются, как при Get.
func (c *Cache) exists(ctx context.Context, key string) bool {
	_, ok := c.load(ctx, key)
	return ok
}
