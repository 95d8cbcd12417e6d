package ports

import (
	"context"
	"time"
)

// CacheOptions — параметры записи в кэш.
type CacheOptions struct {
	TTL  time.Duration // 0 — TTL по умолчанию для экземпляра кэша
	Tags []string      // группы для массовой инвалидации
}

// TaggedCache — кэш с TTL на запись и инвалидацией по тегам.
// Кэш best-effort: сбои хранилища логируются и превращаются в промах, наружу не выходят.
type TaggedCache interface {
	// Get — декодирует значение в dst; false при промахе, истечении TTL или порче записи.
	Get(ctx context.Context, key string, dst any) bool
	// Set — ошибку возвращает только если data не сериализуется.
	Set(ctx context.Context, key string, data any, opts CacheOptions) error
	Remove(ctx context.Context, key string)
	Has(ctx context.Context, key string) bool
	InvalidateByTag(ctx context.Context, tag string)
	InvalidateByTags(ctx context.Context, tags []string)
	Clear(ctx context.Context)
}
