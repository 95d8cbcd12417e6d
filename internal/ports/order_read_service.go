package ports

import (
	"context"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

// OrderReadService — сервис чтения заказов для транспортного слоя.
type OrderReadService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.OrderRecord, error)
	CustomerOrders(ctx context.Context, customerID string) ([]*domain.OrderRecord, error)
	StoreOrders(ctx context.Context, storeIDs []string) ([]*domain.OrderRecord, error)
}

// CacheAdmin — ручное управление кэшем.
type CacheAdmin interface {
	InvalidateTags(ctx context.Context, tags []string)
	ClearCache(ctx context.Context)
}
