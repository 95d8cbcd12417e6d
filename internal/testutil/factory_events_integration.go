//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// MakeOrderRow — сырая строка заказа в snake_case, как её присылает CDC.
func MakeOrderRow(opts ...func(map[string]any)) map[string]any {
	now := time.Now().UTC().Truncate(time.Second)
	row := map[string]any{
		"id":           "ord-" + UniqSuffix(),
		"store_id":     "store-" + UniqSuffix(),
		"customer_id":  "cust-" + UniqSuffix(),
		"status":       string(domain.StatusPending),
		"total_amount": "123.45",
		"created_at":   now.Format(time.RFC3339),
		"updated_at":   now.Format(time.RFC3339),
	}
	for _, fn := range opts {
		fn(row)
	}
	return row
}

func WithCustomer(id string) func(map[string]any) {
	return func(r map[string]any) { r["customer_id"] = id }
}

func WithStore(id string) func(map[string]any) {
	return func(r map[string]any) { r["store_id"] = id }
}

func WithStatus(s domain.OrderStatus) func(map[string]any) {
	return func(r map[string]any) { r["status"] = string(s) }
}

// MakeInsert — событие INSERT для новой строки.
func MakeInsert(row map[string]any) domain.ChangeEvent {
	return domain.ChangeEvent{EventType: domain.EventInsert, Table: "orders", New: row}
}

// MakeStatusUpdate — UPDATE той же строки с новым статусом.
func MakeStatusUpdate(row map[string]any, status domain.OrderStatus) domain.ChangeEvent {
	next := make(map[string]any, len(row))
	for k, v := range row {
		next[k] = v
	}
	next["status"] = string(status)
	next["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return domain.ChangeEvent{EventType: domain.EventUpdate, Table: "orders", New: next, Old: row}
}
