package tagged

import (
	"context"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

// GetAs — типизированное чтение из кэша.
func GetAs[T any](ctx context.Context, c ports.TaggedCache, key string) (T, bool) {
	var v T
	if !c.Get(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}
