package realtime

import (
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

// run — единственный потребитель очереди; после Close сообщает Closed и выходит.
func (s *Subscription) run() {
	defer s.notifyState(StateClosed)

	for {
		select {
		case <-s.done:
			return
		case m := <-s.inbox:
			if s.isClosed() {
				return
			}
			s.dispatch(m)
		}
	}
}

func (s *Subscription) dispatch(m message) {
	switch m.kind {
	case msgState:
		s.notifyState(m.state)
	case msgStatus:
		s.handleStatus(m.gen, m.status, m.err)
	case msgProbe:
		if s.current(m.gen) {
			s.handleProbe()
		}
	case msgEvent:
		s.handleEvent(m.gen, m.event)
	case msgBaseline:
		s.mu.Lock()
		s.orders = m.orders
		s.updated = time.Now()
		s.mu.Unlock()
		s.markSynced(m.mark)
	}
}

func (s *Subscription) handleStatus(gen uint64, status ports.SubscribeStatus, err error) {
	var next State
	switch status {
	case ports.StatusSubscribed:
		next = StateSubscribed
	case ports.StatusChannelError:
		next = StateError
	case ports.StatusTimedOut:
		next = StateTimedOut
	case ports.StatusClosed:
		next = StateClosed
	default:
		s.parent.log.Warnf(s.logCtx, "realtime: unknown subscribe status %q", status)
		return
	}

	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return
	}
	changed := s.setStateLocked(next)
	key := s.scope.Key()
	s.mu.Unlock()

	switch {
	case err != nil:
		s.parent.log.Warnf(s.logCtx, "realtime: scope=%s status=%s: %v", key, status, err)
	case next != StateSubscribed:
		s.parent.log.Warnf(s.logCtx, "realtime: scope=%s status=%s", key, status)
	default:
		s.parent.log.Infof(s.logCtx, "realtime: scope=%s subscribed", key)
	}

	if changed {
		s.notifyState(next)
	}
}

// handleProbe — разовая проба состояния канала; ничего не отменяет и не повторяет.
func (s *Subscription) handleProbe() {
	s.mu.RLock()
	ch := s.channel
	key := s.scope.Key()
	s.mu.RUnlock()
	if ch == nil {
		return
	}

	st := ch.State()
	metrics.RealtimeProbe.WithLabelValues(string(st)).Inc()
	if st == ports.ChannelJoined {
		s.parent.log.Infof(s.logCtx, "realtime: probe scope=%s channel=%s state=%s", key, ch.Name(), st)
		return
	}
	s.parent.log.Warnf(s.logCtx, "realtime: probe scope=%s channel=%s state=%s (not joined)", key, ch.Name(), st)
}

// handleEvent — применяет событие к списку и вызывает колбэки.
// Ошибки нормализации и паники обработчиков не останавливают подписку.
func (s *Subscription) handleEvent(gen uint64, ev domain.ChangeEvent) {
	kind := string(ev.EventType)
	defer func() {
		if r := recover(); r != nil {
			metrics.RealtimeEvents.WithLabelValues(kind, outcomeFailed).Inc()
			s.parent.log.Errorf(s.logCtx, "realtime: event %s handler panic: %v", kind, r)
		}
	}()

	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return
	}
	next, res, err := reconcile(s.orders, ev)
	if res.outcome == outcomeApplied {
		s.orders = next
		s.updated = time.Now()
	}
	s.mu.Unlock()

	metrics.RealtimeEvents.WithLabelValues(kind, res.outcome).Inc()
	if len(ev.Errors) > 0 {
		s.parent.log.Warnf(s.logCtx, "realtime: event %s carries errors: %v", kind, ev.Errors)
	}
	if err != nil {
		s.parent.log.Warnf(s.logCtx, "realtime: event %s dropped: %v", kind, err)
		return
	}
	if res.outcome != outcomeApplied {
		return
	}

	h := s.handlers
	switch res.kind {
	case domain.EventInsert:
		if h.OnNewOrder != nil {
			h.OnNewOrder(res.order.Clone())
		}
	case domain.EventUpdate:
		if res.prev.Status != res.order.Status && h.OnStatusChange != nil {
			h.OnStatusChange(res.order.Clone(), res.prev.Status.Label(), res.order.Status.Label())
		}
		if h.OnOrderUpdated != nil {
			h.OnOrderUpdated(res.order.Clone())
		}
	case domain.EventDelete:
		if h.OnOrderDeleted != nil {
			h.OnOrderDeleted(res.deletedID)
		}
	}
}

func (s *Subscription) notifyState(st State) {
	if s.handlers.OnStateChange == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.parent.log.Errorf(s.logCtx, "realtime: state handler panic: %v", r)
		}
	}()
	s.handlers.OnStateChange(st)
}

// markSynced — отброшенные до mark события покрыты полным списком.
func (s *Subscription) markSynced(mark uint64) {
	for {
		cur := s.synced.Load()
		if mark <= cur || s.synced.CompareAndSwap(cur, mark) {
			return
		}
	}
}

func (s *Subscription) current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked(gen)
}

// currentLocked — сообщение относится к действующему каналу.
func (s *Subscription) currentLocked(gen uint64) bool {
	return !s.closed && s.gen == gen
}

func (s *Subscription) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
