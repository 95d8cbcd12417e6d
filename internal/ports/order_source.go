package ports

import (
	"context"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

// OrderSource — внешний источник заказов (REST-бэкенд).
type OrderSource interface {
	// GetOrder — (nil, nil), если заказа нет.
	GetOrder(ctx context.Context, orderID string) (*domain.OrderRecord, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]*domain.OrderRecord, error)
	ListStoreOrders(ctx context.Context, storeIDs []string) ([]*domain.OrderRecord, error)
}

// TokenSource — внешний держатель токена авторизации.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}
