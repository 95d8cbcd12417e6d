package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

const DefaultJoinTimeout = 10 * time.Second

var (
	_ ports.PushProvider = (*Hub)(nil)
	_ ports.PushChannel  = (*channel)(nil)
)

var ErrUnknownChannel = errors.New("unknown channel")

// Hub — push-провайдер внутри процесса: каналы с подписками на изменения таблиц.
// События приходят через Publish (из Kafka-консьюмера) и раздаются каналам в состоянии joined.
type Hub struct {
	log ports.Logger

	joinTimeout time.Duration
	ackDelay    time.Duration
	joinFailure func(name string) error
	withoutAck  bool

	mu       sync.RWMutex
	channels map[*channel]struct{}
}

type Option func(*Hub)

// WithJoinTimeout — сколько ждать подтверждения подписки до TIMED_OUT.
func WithJoinTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.joinTimeout = d
		}
	}
}

// WithAckDelay — задержка перед подтверждением SUBSCRIBED.
func WithAckDelay(d time.Duration) Option {
	return func(h *Hub) {
		if d >= 0 {
			h.ackDelay = d
		}
	}
}

// WithJoinFailure — подписка на канал завершается CHANNEL_ERROR, если fn вернула ошибку.
func WithJoinFailure(fn func(name string) error) Option {
	return func(h *Hub) { h.joinFailure = fn }
}

// WithoutAck — подписки никогда не подтверждаются и завершаются TIMED_OUT.
func WithoutAck() Option {
	return func(h *Hub) { h.withoutAck = true }
}

func NewHub(log ports.Logger, opts ...Option) *Hub {
	h := &Hub{
		log:         log,
		joinTimeout: DefaultJoinTimeout,
		channels:    make(map[*channel]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Channel — создаёт новый канал в состоянии closed.
func (h *Hub) Channel(name string) ports.PushChannel {
	ch := &channel{hub: h, name: name, state: ports.ChannelClosed}

	h.mu.Lock()
	h.channels[ch] = struct{}{}
	n := len(h.channels)
	h.mu.Unlock()

	metrics.PushChannels.Set(float64(n))
	return ch
}

// RemoveChannel — отписывает канал и снимает его с хаба.
func (h *Hub) RemoveChannel(pc ports.PushChannel) error {
	ch, ok := pc.(*channel)
	if !ok || ch.hub != h {
		return fmt.Errorf("remove channel: %w", ErrUnknownChannel)
	}

	h.mu.Lock()
	_, registered := h.channels[ch]
	delete(h.channels, ch)
	n := len(h.channels)
	h.mu.Unlock()

	if !registered {
		return fmt.Errorf("remove channel %q: %w", ch.name, ErrUnknownChannel)
	}
	metrics.PushChannels.Set(float64(n))

	ch.close()
	return nil
}

// Publish — раздаёт событие всем подходящим слушателям каналов в состоянии joined.
// Возвращает число доставок. Обработчики вызываются синхронно, в порядке публикации.
func (h *Hub) Publish(ctx context.Context, ev domain.ChangeEvent) int {
	metrics.PushPublished.WithLabelValues(ev.Table).Inc()

	h.mu.RLock()
	targets := make([]*channel, 0, len(h.channels))
	for ch := range h.channels {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, ch := range targets {
		delivered += ch.dispatch(ctx, ev)
	}
	if delivered > 0 {
		metrics.PushDelivered.WithLabelValues(ev.Table).Add(float64(delivered))
	}
	return delivered
}

// ChannelCount — число зарегистрированных каналов.
func (h *Hub) ChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

func (h *Hub) registered(ch *channel) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[ch]
	return ok
}
