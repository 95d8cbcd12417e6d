package ports

import (
	"context"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

// ChannelState — состояние канала у провайдера; "joined" означает здоровую подписку.
type ChannelState string

const (
	ChannelClosed  ChannelState = "closed"
	ChannelJoining ChannelState = "joining"
	ChannelJoined  ChannelState = "joined"
	ChannelErrored ChannelState = "errored"
	ChannelLeaving ChannelState = "leaving"
)

// SubscribeStatus — результат рукопожатия подписки.
type SubscribeStatus string

const (
	StatusSubscribed   SubscribeStatus = "SUBSCRIBED"
	StatusChannelError SubscribeStatus = "CHANNEL_ERROR"
	StatusTimedOut     SubscribeStatus = "TIMED_OUT"
	StatusClosed       SubscribeStatus = "CLOSED"
)

// EventSpec — на какие изменения подписывается обработчик.
// Event: "*" или INSERT/UPDATE/DELETE; Filter: "column=eq.value" или "column=in.(a,b)".
type EventSpec struct {
	Event  string
	Table  string
	Filter string
}

type (
	EventHandler  func(ev domain.ChangeEvent)
	StatusHandler func(status SubscribeStatus, err error)
)

// PushChannel — дескриптор канала; методы On/Subscribe возвращают тот же канал для цепочек.
type PushChannel interface {
	Name() string
	On(spec EventSpec, handler EventHandler) PushChannel
	Subscribe(handler StatusHandler) PushChannel
	State() ChannelState
}

// PushProvider — управляемый провайдер push-подписок.
type PushProvider interface {
	Channel(name string) PushChannel
	RemoveChannel(ch PushChannel) error
}

// EventPublisher — раздача события изменения подписчикам; возвращает число доставок.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) int
}
