package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
	"github.com/Gunvolt24/storefront-sync/pkg/telemetry"
	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

// eventApplier — реакция кэша чтения на событие.
type eventApplier interface {
	ApplyEvent(ctx context.Context, ev domain.ChangeEvent)
}

// EventIngest — приём сырых событий изменения из брокера.
type EventIngest struct {
	validator ports.EventValidator
	hub       ports.EventPublisher
	orders    eventApplier
	log       ports.Logger
	table     string // подставляется в события без таблицы
}

func NewEventIngest(validator ports.EventValidator, hub ports.EventPublisher, orders eventApplier, log ports.Logger, table string) *EventIngest {
	return &EventIngest{validator: validator, hub: hub, orders: orders, log: log, table: table}
}

// HandleMessage — шаги:
//  1. строгий разбор и валидация (validate.ErrInvalidEvent при проблемах);
//  2. сброс затронутого кэша, чтобы перезагрузки подписчиков не получили старый список;
//  3. раздача события подпискам.
func (i *EventIngest) HandleMessage(ctx context.Context, raw []byte) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "ingest.change_event")
	defer func() { telemetry.EndSpan(span, err) }()

	ev, err := validate.ValidateEventFromJSON(ctx, i.validator, raw)
	if err != nil {
		i.log.Warnf(ctx, "change-event rejected err=%v", err)
		return err
	}
	if ev.Table == "" {
		ev.Table = i.table
	}
	if len(ev.Errors) > 0 {
		i.log.Warnf(ctx, "change-event %s carries errors: %v", ev.EventType, ev.Errors)
	}

	if i.orders != nil {
		i.orders.ApplyEvent(ctx, *ev)
	}
	delivered := i.hub.Publish(ctx, *ev)
	span.SetAttributes(
		attribute.String("event.type", string(ev.EventType)),
		attribute.Int("event.delivered", delivered),
	)

	i.log.Infof(ctx, "change-event %s id=%s delivered=%d", ev.EventType, eventRecordID(ev), delivered)
	return nil
}

func eventRecordID(ev *domain.ChangeEvent) string {
	if id := realtime.RecordID(ev.New); id != "" {
		return id
	}
	return realtime.RecordID(ev.Old)
}
