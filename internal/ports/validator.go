package ports

import (
	"context"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

// EventValidator — проверка change-event перед раздачей подписчикам.
// Любой отказ оборачивает validate.ErrInvalidEvent: такие сообщения консьюмер коммитит и пропускает.
type EventValidator interface {
	Validate(ctx context.Context, ev *domain.ChangeEvent) error
}
