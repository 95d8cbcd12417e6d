package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

func TestNormalize_SnakeAndCamelAgree(t *testing.T) {
	snake := map[string]any{
		"id": "o1", "store_id": "s1", "customer_id": "c1", "status": "out_for_delivery",
		"total_amount": "99.90", "created_at": "2025-03-01T10:00:00Z", "updated_at": "2025-03-01T11:00:00.123Z",
	}
	camel := map[string]any{
		"id": "o1", "storeId": "s1", "customerId": "c1", "status": "OUT_FOR_DELIVERY",
		"totalAmount": 99.9, "createdAt": "2025-03-01T10:00:00Z", "updatedAt": "2025-03-01T11:00:00.123Z",
	}

	a, err := Normalize(snake)
	require.NoError(t, err)
	b, err := Normalize(camel)
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
	require.Equal(t, a.StoreID, b.StoreID)
	require.Equal(t, a.CustomerID, b.CustomerID)
	require.Equal(t, domain.StatusOutForDelivery, a.Status)
	require.Equal(t, a.Status, b.Status)
	require.True(t, a.TotalAmount.Equal(b.TotalAmount))
	require.True(t, a.CreatedAt.Equal(b.CreatedAt))
	require.True(t, a.UpdatedAt.Equal(b.UpdatedAt))
	require.Equal(t, "Saiu para entrega", a.Status.Label())
	require.False(t, a.SoftDeleted())
}

func TestNormalize_Defaults(t *testing.T) {
	got, err := Normalize(map[string]any{"id": float64(42)})
	require.NoError(t, err)

	require.Equal(t, "42", got.ID)
	require.Empty(t, got.StoreID)
	require.Empty(t, got.CustomerID)
	require.True(t, got.TotalAmount.IsZero())
	require.True(t, got.CreatedAt.IsZero())
	require.Nil(t, got.DeletedAt)
}

func TestNormalize_Variants(t *testing.T) {
	got, err := Normalize(map[string]any{
		"orderId":     "o9",
		"totalAmount": json.Number("10.25"),
		"createdAt":   float64(1735689600000), // 2025-01-01T00:00:00Z
		"updated_at":  "2025-01-01 00:00:00.5+00",
		"deleted_at":  "not a time",
	})
	require.NoError(t, err)

	require.Equal(t, "o9", got.ID)
	require.Equal(t, "10.25", got.TotalAmount.String())
	require.True(t, got.CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 500*time.Millisecond, time.Duration(got.UpdatedAt.Nanosecond()))
	require.Nil(t, got.DeletedAt, "unparsable optional field defaults to zero")
}

func TestNormalize_MissingID(t *testing.T) {
	for _, raw := range []map[string]any{
		nil,
		{},
		{"id": ""},
		{"id": "   "},
		{"id": nil, "status": "pending"},
	} {
		_, err := Normalize(raw)
		require.ErrorIs(t, err, ErrMissingID)
	}
}

func TestRecordID(t *testing.T) {
	require.Equal(t, "a", RecordID(map[string]any{"id": "a"}))
	require.Equal(t, "b", RecordID(map[string]any{"order_id": "b"}))
	require.Empty(t, RecordID(nil))
}
