package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

// ErrMissingID — после нормализации у записи нет идентификатора.
var ErrMissingID = errors.New("order record has no id")

// Normalize — приводит сырую запись (camelCase или snake_case) к domain.OrderRecord.
// Необязательные поля с неразборчивыми значениями остаются нулевыми.
func Normalize(raw map[string]any) (*domain.OrderRecord, error) {
	id := str(field(raw, "id", "id"))
	if id == "" {
		id = str(field(raw, "order_id", "orderId"))
	}
	if id == "" {
		return nil, ErrMissingID
	}

	rec := &domain.OrderRecord{
		ID:          id,
		StoreID:     str(field(raw, "store_id", "storeId")),
		CustomerID:  str(field(raw, "customer_id", "customerId")),
		Status:      domain.OrderStatus(strings.ToLower(str(field(raw, "status", "status")))),
		TotalAmount: amount(field(raw, "total_amount", "totalAmount")),
		CreatedAt:   timestamp(field(raw, "created_at", "createdAt")),
		UpdatedAt:   timestamp(field(raw, "updated_at", "updatedAt")),
	}
	if d := timestamp(field(raw, "deleted_at", "deletedAt")); !d.IsZero() {
		rec.DeletedAt = &d
	}
	return rec, nil
}

// RecordID — идентификатор из сырой записи без полной нормализации.
func RecordID(raw map[string]any) string {
	if id := str(field(raw, "id", "id")); id != "" {
		return id
	}
	return str(field(raw, "order_id", "orderId"))
}

// field — значение по snake_case-ключу, затем по camelCase.
func field(raw map[string]any, snake, camel string) any {
	if v, ok := raw[snake]; ok && v != nil {
		return v
	}
	if v, ok := raw[camel]; ok {
		return v
	}
	return nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func amount(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
			return d
		}
	}
	return decimal.Zero
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
}

// timestamp — строка в одном из форматов выше или epoch в миллисекундах.
func timestamp(v any) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC()
			}
		}
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Time{}
}
