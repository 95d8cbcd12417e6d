package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

var ErrJoinTimeout = errors.New("subscription was not acknowledged in time")

type listener struct {
	spec    ports.EventSpec
	filter  filter
	handler ports.EventHandler
}

type channel struct {
	hub  *Hub
	name string

	mu        sync.Mutex
	state     ports.ChannelState
	listeners []listener
	onStatus  ports.StatusHandler
}

func (c *channel) Name() string { return c.name }

func (c *channel) State() ports.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// On — регистрирует обработчик. Некорректный фильтр логируется, такой обработчик ничего не получит.
func (c *channel) On(spec ports.EventSpec, handler ports.EventHandler) ports.PushChannel {
	f, err := parseFilter(spec.Filter)
	if err != nil {
		c.hub.log.Warnf(context.Background(), "push: channel=%s: %v (listener ignored)", c.name, err)
		return c
	}

	c.mu.Lock()
	c.listeners = append(c.listeners, listener{spec: spec, filter: f, handler: handler})
	c.mu.Unlock()
	return c
}

// Subscribe — запускает асинхронное рукопожатие; результат приходит в handler.
func (c *channel) Subscribe(handler ports.StatusHandler) ports.PushChannel {
	c.mu.Lock()
	c.state = ports.ChannelJoining
	c.onStatus = handler
	c.mu.Unlock()

	go c.join()
	return c
}

func (c *channel) join() {
	h := c.hub

	if h.withoutAck {
		time.Sleep(h.joinTimeout)
		c.finishJoin(ports.ChannelErrored, ports.StatusTimedOut,
			fmt.Errorf("channel %q: %w", c.name, ErrJoinTimeout))
		return
	}

	if h.ackDelay > 0 {
		time.Sleep(h.ackDelay)
	}

	if h.joinFailure != nil {
		if err := h.joinFailure(c.name); err != nil {
			c.finishJoin(ports.ChannelErrored, ports.StatusChannelError, err)
			return
		}
	}
	c.finishJoin(ports.ChannelJoined, ports.StatusSubscribed, nil)
}

// finishJoin — переводит канал в итоговое состояние, если его не успели снять с хаба.
func (c *channel) finishJoin(state ports.ChannelState, status ports.SubscribeStatus, err error) {
	if !c.hub.registered(c) {
		return
	}

	c.mu.Lock()
	if c.state != ports.ChannelJoining {
		c.mu.Unlock()
		return
	}
	c.state = state
	cb := c.onStatus
	c.mu.Unlock()

	if cb != nil {
		cb(status, err)
	}
}

func (c *channel) close() {
	c.mu.Lock()
	cb := c.onStatus
	c.listeners = nil
	c.state = ports.ChannelClosed
	c.mu.Unlock()

	if cb != nil {
		cb(ports.StatusClosed, nil)
	}
}

// dispatch — доставляет событие подходящим слушателям; паника обработчика не роняет хаб.
func (c *channel) dispatch(ctx context.Context, ev domain.ChangeEvent) int {
	c.mu.Lock()
	if c.state != ports.ChannelJoined {
		c.mu.Unlock()
		return 0
	}
	ls := make([]listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()

	n := 0
	for _, l := range ls {
		if !l.matches(ev) {
			continue
		}
		if c.invoke(ctx, l.handler, ev) {
			n++
		}
	}
	return n
}

func (c *channel) invoke(ctx context.Context, h ports.EventHandler, ev domain.ChangeEvent) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.hub.log.Errorf(ctx, "push: channel=%s handler panic: %v", c.name, r)
			ok = false
		}
	}()
	h(ev)
	return true
}

func (l listener) matches(ev domain.ChangeEvent) bool {
	if l.spec.Event != "" && l.spec.Event != "*" && l.spec.Event != string(ev.EventType) {
		return false
	}
	if l.spec.Table != "" && l.spec.Table != ev.Table {
		return false
	}
	return l.filter.matchEvent(ev)
}
