package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа в жизненном цикле витрины.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// statusLabels — подписи статусов, которые показывает витрина.
var statusLabels = map[OrderStatus]string{
	StatusPending:        "Pendente",
	StatusConfirmed:      "Confirmado",
	StatusPreparing:      "Preparando",
	StatusReady:          "Pronto",
	StatusOutForDelivery: "Saiu para entrega",
	StatusDelivered:      "Entregue",
	StatusCancelled:      "Cancelado",
}

// Label — человекочитаемая подпись статуса; неизвестный статус возвращается как есть.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid — статус входит в перечисление.
func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// OrderRecord — каноническое представление заказа.
// ID — единственный ключ склейки между списком в памяти и входящими событиями.
type OrderRecord struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	CustomerID  string          `json:"customer_id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// SoftDeleted — запись помечена как удалённая.
func (o *OrderRecord) SoftDeleted() bool {
	return o != nil && o.DeletedAt != nil && !o.DeletedAt.IsZero()
}

// Clone — копия записи (DeletedAt не разделяется с оригиналом).
func (o *OrderRecord) Clone() *OrderRecord {
	if o == nil {
		return nil
	}
	cloned := *o
	if o.DeletedAt != nil {
		d := *o.DeletedAt
		cloned.DeletedAt = &d
	}
	return &cloned
}
