package validate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

func validRow() map[string]any {
	return map[string]any{
		"id":           "o1",
		"customer_id":  "c1",
		"store_id":     "s1",
		"status":       "pending",
		"total_amount": "10.50",
		"created_at":   "2025-01-01T10:00:00Z",
	}
}

func TestEventValidator_Validate(t *testing.T) {
	v := validate.NewEventValidator()
	ctx := context.Background()

	t.Run("valid events", func(t *testing.T) {
		camel := map[string]any{"orderId": "o2", "storeId": "s1", "status": "READY"}
		for _, ev := range []*domain.ChangeEvent{
			{EventType: domain.EventInsert, New: validRow()},
			{EventType: domain.EventUpdate, New: validRow(), Old: validRow()},
			{EventType: domain.EventUpdate, New: camel},
			{EventType: domain.EventUpdate, New: map[string]any{"id": "o1", "status": "confirmed"}},
			{EventType: domain.EventDelete, Old: map[string]any{"id": "o1"}},
			{EventType: domain.EventDelete, New: map[string]any{"order_id": "o1"}},
			{EventType: domain.EventInsert, New: validRow(), Errors: []any{"lagging replica"}},
		} {
			if err := v.Validate(ctx, ev); err != nil {
				t.Fatalf("expected valid event %+v, got: %v", ev, err)
			}
		}
	})

	type testCase struct {
		name string
		ev   func() *domain.ChangeEvent
		msg  string
	}

	cases := []testCase{
		{
			name: "nil event",
			ev:   func() *domain.ChangeEvent { return nil },
			msg:  "nil",
		},
		{
			name: "unknown type",
			ev:   func() *domain.ChangeEvent { return &domain.ChangeEvent{EventType: "TRUNCATE", New: validRow()} },
			msg:  "eventType",
		},
		{
			name: "insert without new",
			ev:   func() *domain.ChangeEvent { return &domain.ChangeEvent{EventType: domain.EventInsert} },
			msg:  "new не должен быть пустым",
		},
		{
			name: "insert without id",
			ev: func() *domain.ChangeEvent {
				row := validRow()
				delete(row, "id")
				return &domain.ChangeEvent{EventType: domain.EventInsert, New: row}
			},
			msg: "no id",
		},
		{
			name: "insert without status",
			ev: func() *domain.ChangeEvent {
				row := validRow()
				delete(row, "status")
				return &domain.ChangeEvent{EventType: domain.EventInsert, New: row}
			},
			msg: "new.status обязателен",
		},
		{
			name: "unknown status",
			ev: func() *domain.ChangeEvent {
				row := validRow()
				row["status"] = "refunded"
				return &domain.ChangeEvent{EventType: domain.EventUpdate, New: row}
			},
			msg: "неизвестен",
		},
		{
			name: "no owner",
			ev: func() *domain.ChangeEvent {
				row := validRow()
				delete(row, "customer_id")
				delete(row, "store_id")
				return &domain.ChangeEvent{EventType: domain.EventInsert, New: row}
			},
			msg: "customer_id или store_id",
		},
		{
			name: "update without id",
			ev: func() *domain.ChangeEvent {
				return &domain.ChangeEvent{EventType: domain.EventUpdate, New: map[string]any{"status": "confirmed"}}
			},
			msg: "no id",
		},
		{
			name: "negative amount",
			ev: func() *domain.ChangeEvent {
				row := validRow()
				row["total_amount"] = -1.0
				return &domain.ChangeEvent{EventType: domain.EventInsert, New: row}
			},
			msg: "total_amount",
		},
		{
			name: "delete without id",
			ev: func() *domain.ChangeEvent {
				return &domain.ChangeEvent{EventType: domain.EventDelete, Old: map[string]any{"status": "pending"}}
			},
			msg: "DELETE",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(ctx, tc.ev())
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, validate.ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got: %v", err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected %q in error, got: %v", tc.msg, err)
			}
		})
	}
}
