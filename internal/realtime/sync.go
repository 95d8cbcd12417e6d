package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

const (
	DefaultTable      = "orders"
	DefaultProbeDelay = time.Second
	DefaultQueueSize  = 256

	DefaultResyncTimeout = 10 * time.Second
)

// BaselineFunc — загрузка полного списка области для подписки, отставшей от событий.
type BaselineFunc func(ctx context.Context, scope Scope) ([]*domain.OrderRecord, error)

// Handlers — колбэки подписки. Все вызываются из одной горутины подписки в порядке событий.
// Из колбэков нельзя синхронно вызывать Reconnect, Update и SetBaseline той же подписки.
type Handlers struct {
	OnNewOrder     func(order *domain.OrderRecord)
	OnOrderUpdated func(order *domain.OrderRecord)
	OnOrderDeleted func(orderID string)
	// OnStatusChange — статус заказа изменился; подписи уже локализованы.
	OnStatusChange func(order *domain.OrderRecord, oldLabel, newLabel string)
	OnStateChange  func(state State)
}

// Sync — фабрика подписок на изменения заказов поверх push-провайдера.
type Sync struct {
	provider ports.PushProvider
	log      ports.Logger

	table      string
	probeDelay time.Duration
	queueSize  int

	resync        BaselineFunc // может быть nil: тогда список догонит фоновый refresher
	resyncTimeout time.Duration

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

type Option func(*Sync)

func WithTable(table string) Option {
	return func(s *Sync) {
		if table != "" {
			s.table = table
		}
	}
}

// WithProbeDelay — через сколько после подписки снять пробу состояния канала.
func WithProbeDelay(d time.Duration) Option {
	return func(s *Sync) {
		if d > 0 {
			s.probeDelay = d
		}
	}
}

func WithQueueSize(n int) Option {
	return func(s *Sync) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithResync — при переполнении очереди подписки событие отбрасывается,
// а список перезагружается через fn.
func WithResync(fn BaselineFunc, timeout time.Duration) Option {
	return func(s *Sync) {
		s.resync = fn
		if timeout > 0 {
			s.resyncTimeout = timeout
		}
	}
}

func New(provider ports.PushProvider, log ports.Logger, opts ...Option) *Sync {
	s := &Sync{
		provider:   provider,
		log:        log,
		table:      DefaultTable,
		probeDelay: DefaultProbeDelay,
		queueSize:  DefaultQueueSize,
		subs:       make(map[*Subscription]struct{}),

		resyncTimeout: DefaultResyncTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe — открывает подписку. Без идентичности или с Enabled=false подписка остаётся Idle.
// baseline — результат первичной загрузки, новые сверху. Отмена ctx закрывает подписку.
func (s *Sync) Subscribe(ctx context.Context, scope Scope, baseline []*domain.OrderRecord, h Handlers) *Subscription {
	sub := newSubscription(ctx, s, scope, baseline, h)

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go sub.run()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	sub.setup(ctx)
	return sub
}

// Subscriptions — открытые подписки (для фонового обновления базовых списков).
func (s *Sync) Subscriptions() []*Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

// Close — закрывает все подписки.
func (s *Sync) Close() {
	for _, sub := range s.Subscriptions() {
		sub.Close()
	}
}

func (s *Sync) forget(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}
