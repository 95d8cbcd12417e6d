package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
)

// Проверка, что EventValidator удовлетворяет интерфейсу ports.EventValidator.
var _ ports.EventValidator = (*EventValidator)(nil)

// ErrInvalidEvent — базовая (sentinel error) ошибка валидации change-event.
var ErrInvalidEvent = errors.New("change-event validation failed")

// EventValidator — проверка change-event до раздачи подписчикам.
type EventValidator struct{}

// NewEventValidator — конструктор EventValidator.
// Возвращает ErrInvalidEvent (с обёрнутой причиной) при любой проблеме.
func NewEventValidator() *EventValidator { return &EventValidator{} }

// Validate — тип события и наличие записи, по которой его можно применить.
// Поле errors не делает событие невалидным: такие события обрабатываются и логируются.
func (v *EventValidator) Validate(_ context.Context, ev *domain.ChangeEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: событие не может быть nil", ErrInvalidEvent)
	}
	if !ev.EventType.Valid() {
		return fmt.Errorf("%w: eventType %q не поддерживается", ErrInvalidEvent, ev.EventType)
	}

	switch ev.EventType {
	case domain.EventInsert:
		rec, err := v.validateRow("new", ev.New)
		if err != nil {
			return err
		}
		if rec.CustomerID == "" && rec.StoreID == "" {
			return fmt.Errorf("%w: new: нужен customer_id или store_id", ErrInvalidEvent)
		}
		if rec.Status == "" {
			return fmt.Errorf("%w: new.status обязателен", ErrInvalidEvent)
		}
		return nil
	case domain.EventUpdate:
		// владелец не обязателен: UPDATE применяется только к уже известному id
		_, err := v.validateRow("new", ev.New)
		return err
	default:
		if realtime.RecordID(ev.Old) == "" && realtime.RecordID(ev.New) == "" {
			return fmt.Errorf("%w: для DELETE нужен id в old или new", ErrInvalidEvent)
		}
		return nil
	}
}

// validateRow — строка нормализуется, у неё есть id и допустимые значения полей.
func (v *EventValidator) validateRow(side string, row map[string]any) (*domain.OrderRecord, error) {
	if len(row) == 0 {
		return nil, fmt.Errorf("%w: %s не должен быть пустым", ErrInvalidEvent, side)
	}
	rec, err := realtime.Normalize(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, side, err)
	}
	if rec.Status != "" && !rec.Status.Valid() {
		return nil, fmt.Errorf("%w: %s.status %q неизвестен", ErrInvalidEvent, side, rec.Status)
	}
	if rec.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: %s.total_amount должен быть неотрицательным", ErrInvalidEvent, side)
	}
	return rec, nil
}
