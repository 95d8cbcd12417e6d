package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

type msgKind int

const (
	msgEvent msgKind = iota
	msgStatus
	msgState
	msgProbe
	msgBaseline
)

// message — единица входящей очереди подписки.
// gen отсекает колбэки канала, который уже заменён при переподключении.
type message struct {
	kind   msgKind
	gen    uint64
	event  domain.ChangeEvent
	status ports.SubscribeStatus
	err    error
	state  State
	orders []*domain.OrderRecord
	mark   uint64 // для msgBaseline: сколько событий было отброшено к моменту загрузки
}

// Subscription — живая подписка: список заказов (новые сверху) и состояние канала.
// Все колбэки провайдера проходят через одну упорядоченную очередь и обрабатываются одной горутиной.
type Subscription struct {
	parent   *Sync
	handlers Handlers
	logCtx   context.Context

	inbox     chan message
	done      chan struct{}
	closeOnce sync.Once

	// dropped — события, отброшенные из-за полной очереди; synced — сколько из них
	// покрыто применённым полным списком. Подписка отстаёт, пока они не равны.
	dropped   atomic.Uint64
	synced    atomic.Uint64
	resyncing atomic.Bool

	mu      sync.RWMutex
	scope   Scope
	state   State
	orders  []*domain.OrderRecord
	channel ports.PushChannel
	gen     uint64
	probe   *time.Timer
	closed  bool
	updated time.Time
}

func newSubscription(ctx context.Context, parent *Sync, scope Scope, baseline []*domain.OrderRecord, h Handlers) *Subscription {
	metrics.RealtimeActiveSubscriptions.Inc()
	return &Subscription{
		parent:   parent,
		handlers: h,
		logCtx:   context.WithoutCancel(ctx),
		inbox:    make(chan message, parent.queueSize),
		done:     make(chan struct{}),
		scope:    scope,
		state:    StateIdle,
		orders:   dedupBaseline(baseline),
	}
}

// Scope — текущая область подписки.
func (s *Subscription) Scope() Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

func (s *Subscription) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsConnected — true только в состоянии Subscribed.
func (s *Subscription) IsConnected() bool {
	return s.State() == StateSubscribed
}

func (s *Subscription) Status() domain.ConnectionStatus {
	return s.State().ConnectionStatus()
}

// Orders — копия текущего списка, новые сверху.
func (s *Subscription) Orders() []*domain.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.OrderRecord, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

// UpdatedAt — когда список последний раз менялся.
func (s *Subscription) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// Done — закрывается после Close.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Stale — часть событий отброшена из-за переполнения очереди, а полный список ещё не перезагружен.
func (s *Subscription) Stale() bool {
	return s.dropped.Load() != s.synced.Load()
}

// SetBaseline — заменить список результатом полной перезагрузки.
// Применяется в порядке очереди, после уже полученных событий.
func (s *Subscription) SetBaseline(orders []*domain.OrderRecord) {
	s.setBaseline(orders, s.dropped.Load())
}

func (s *Subscription) setBaseline(orders []*domain.OrderRecord, mark uint64) {
	s.enqueue(message{kind: msgBaseline, orders: dedupBaseline(orders), mark: mark})
}

// Reconnect — пересоздать канал с той же областью.
func (s *Subscription) Reconnect(ctx context.Context) {
	s.teardown(ctx)
	s.setup(ctx)
}

// Update — сменить область. При смене идентичности список очищается.
func (s *Subscription) Update(ctx context.Context, scope Scope) {
	s.teardown(ctx)

	s.mu.Lock()
	if s.scope.Key() != scope.Key() {
		s.orders = nil
		s.updated = time.Time{}
	}
	s.scope = scope
	s.mu.Unlock()

	s.setup(ctx)
}

// Close — отписаться и освободить канал. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.state = StateClosed
		ch := s.detachLocked()
		s.mu.Unlock()

		s.parent.forget(s)
		close(s.done)
		s.removeChannel(s.logCtx, ch)

		metrics.RealtimeActiveSubscriptions.Dec()
		metrics.RealtimeStateChanges.WithLabelValues(string(StateClosed)).Inc()
	})
}

// setup — открыть канал, если область готова; иначе перейти в Idle.
func (s *Subscription) setup(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	scope := s.scope
	if !scope.Ready() {
		changed := s.setStateLocked(StateIdle)
		s.mu.Unlock()
		if changed {
			s.enqueue(message{kind: msgState, state: StateIdle})
		}
		return
	}
	s.gen++
	gen := s.gen
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	s.enqueue(message{kind: msgState, state: StateConnecting})

	p := s.parent
	ch := p.provider.Channel(scope.channelName(p.table))
	ch.On(scope.eventSpec(p.table), func(ev domain.ChangeEvent) {
		s.offer(message{kind: msgEvent, gen: gen, event: ev})
	})
	ch.Subscribe(func(status ports.SubscribeStatus, err error) {
		s.enqueue(message{kind: msgStatus, gen: gen, status: status, err: err})
	})

	s.mu.Lock()
	if s.closed || s.gen != gen {
		// подписку закрыли или переподключили, пока открывался канал
		s.mu.Unlock()
		s.removeChannel(ctx, ch)
		return
	}
	s.channel = ch
	s.probe = time.AfterFunc(p.probeDelay, func() {
		s.enqueue(message{kind: msgProbe, gen: gen})
	})
	s.mu.Unlock()

	p.log.Infof(ctx, "realtime: subscribing channel=%s", ch.Name())
}

func (s *Subscription) teardown(ctx context.Context) {
	s.mu.Lock()
	ch := s.detachLocked()
	s.mu.Unlock()

	s.removeChannel(ctx, ch)
}

// detachLocked — отвязать текущий канал; старые колбэки после этого игнорируются.
func (s *Subscription) detachLocked() ports.PushChannel {
	s.gen++
	if s.probe != nil {
		s.probe.Stop()
		s.probe = nil
	}
	ch := s.channel
	s.channel = nil
	return ch
}

func (s *Subscription) removeChannel(ctx context.Context, ch ports.PushChannel) {
	if ch == nil {
		return
	}
	if err := s.parent.provider.RemoveChannel(ch); err != nil {
		s.parent.log.Warnf(ctx, "realtime: remove channel=%s: %v", ch.Name(), err)
	}
}

func (s *Subscription) setStateLocked(st State) bool {
	if s.state == st {
		return false
	}
	s.state = st
	metrics.RealtimeStateChanges.WithLabelValues(string(st)).Inc()
	return true
}

// offer — положить событие провайдера, не блокируя публикующего.
// При полной очереди событие отбрасывается, а список перезагружается целиком.
func (s *Subscription) offer(m message) {
	select {
	case <-s.done:
		return
	case s.inbox <- m:
		return
	default:
	}

	if s.dropped.Add(1)-1 == s.synced.Load() {
		s.parent.log.Warnf(s.logCtx, "realtime: scope=%s queue full, events are dropped until resync", s.Scope().Key())
	}
	metrics.RealtimeEvents.WithLabelValues(string(m.event.EventType), outcomeDropped).Inc()

	if s.parent.resync != nil && s.resyncing.CompareAndSwap(false, true) {
		go s.resync()
	}
}

// resync — перезагружает список, пока за время загрузки продолжают теряться события.
func (s *Subscription) resync() {
	for {
		mark := s.dropped.Load()
		s.loadBaseline(mark)
		s.resyncing.Store(false)

		if s.isClosed() || s.dropped.Load() == mark {
			return
		}
		if !s.resyncing.CompareAndSwap(false, true) {
			return
		}
	}
}

func (s *Subscription) loadBaseline(mark uint64) {
	p := s.parent
	ctx, cancel := context.WithTimeout(s.logCtx, p.resyncTimeout)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	scope := s.Scope()
	orders, err := p.resync(ctx, scope)
	if err != nil {
		p.log.Warnf(s.logCtx, "realtime: scope=%s resync failed: %v", scope.Key(), err)
		return
	}
	s.setBaseline(orders, mark)
}

// enqueue — положить сообщение в очередь; после Close сообщения отбрасываются.
func (s *Subscription) enqueue(m message) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}
