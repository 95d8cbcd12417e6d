package rest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
	"github.com/Gunvolt24/storefront-sync/pkg/ctxmeta"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

const (
	defaultHeartbeat   = 15 * time.Second
	streamBuffer       = 64
	streamWriteTimeout = 10 * time.Second
)

type subscriber interface {
	Subscribe(ctx context.Context, scope realtime.Scope, baseline []*domain.OrderRecord, h realtime.Handlers) *realtime.Subscription
}

type baselineLoader interface {
	Baseline(ctx context.Context, scope realtime.Scope) ([]*domain.OrderRecord, error)
}

type streamDeps struct {
	sync      subscriber
	baseline  baselineLoader
	heartbeat time.Duration
}

// WithStreams — включает SSE-потоки списков заказов.
func WithStreams(sync subscriber, baseline baselineLoader, heartbeat time.Duration) HandlerOption {
	return func(h *Handler) {
		if heartbeat <= 0 {
			heartbeat = defaultHeartbeat
		}
		h.streams = &streamDeps{sync: sync, baseline: baseline, heartbeat: heartbeat}
	}
}

// Тела событий потока.
type snapshotEvent struct {
	Orders    []*domain.OrderRecord   `json:"orders"`
	Status    domain.ConnectionStatus `json:"status"`
	UpdatedAt time.Time               `json:"updated_at"`
	Stale     bool                    `json:"stale,omitempty"`
}

type statusEvent struct {
	State  realtime.State          `json:"state"`
	Status domain.ConnectionStatus `json:"status"`
}

type orderStatusEvent struct {
	Order    *domain.OrderRecord `json:"order"`
	OldLabel string              `json:"old_label"`
	NewLabel string              `json:"new_label"`
}

type sseMessage struct {
	name string
	data any
}

func (h *Handler) streamCustomerOrders(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty customer id"})
		return
	}
	if !h.canReadCustomer(c, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	h.stream(c, realtime.CustomerScope(id))
}

func (h *Handler) streamStoreOrders(c *gin.Context) {
	storeIDs, ok := h.storeScope(c)
	if !ok {
		return
	}
	h.stream(c, realtime.StoreScope(storeIDs...))
}

// stream — события:
//
//	snapshot      список целиком (при подключении и после каждого изменения);
//	status        состояние подписки;
//	order_status  смена статуса заказа с локализованными подписями.
//
// Колбэки подписки никогда не ждут клиента: изменения списка сливаются в один
// отложенный snapshot, а при переполнении буфера событие заменяется snapshot.
// Клиент, который не читает поток дольше streamWriteTimeout, отключается.
func (h *Handler) stream(c *gin.Context, scope realtime.Scope) {
	if h.streams == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "streaming disabled"})
		return
	}
	ctx := ctxmeta.WithScope(c.Request.Context(), scope.Key())
	c.Request = c.Request.WithContext(ctx)

	loadCtx, cancel := h.requestContext(c)
	baseline, err := h.streams.baseline.Baseline(loadCtx, scope)
	cancel()
	if err != nil {
		h.fail(c, "Baseline", scope.Key(), err)
		return
	}

	out := make(chan sseMessage, streamBuffer)
	dirty := make(chan struct{}, 1)
	changed := func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
	send := func(m sseMessage) {
		select {
		case out <- m:
		default:
			changed()
		}
	}

	sub := h.streams.sync.Subscribe(ctx, scope, baseline, realtime.Handlers{
		OnNewOrder:     func(*domain.OrderRecord) { changed() },
		OnOrderUpdated: func(*domain.OrderRecord) { changed() },
		OnOrderDeleted: func(string) { changed() },
		OnStatusChange: func(o *domain.OrderRecord, oldLabel, newLabel string) {
			send(sseMessage{name: "order_status", data: orderStatusEvent{Order: o, OldLabel: oldLabel, NewLabel: newLabel}})
		},
		OnStateChange: func(st realtime.State) {
			send(sseMessage{name: "status", data: statusEvent{State: st, Status: st.ConnectionStatus()}})
		},
	})
	defer sub.Close()

	// общий WriteTimeout сервера заменяется дедлайном на каждую запись
	rc := http.NewResponseController(c.Writer)
	errsBefore := len(c.Errors)
	// write — одна запись в поток; false, если клиент не принял её вовремя
	write := func(fn func()) bool {
		_ = rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		fn()
		if len(c.Errors) > errsBefore {
			return false
		}
		return rc.Flush() == nil
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	metrics.HTTPActiveStreams.Inc()
	defer metrics.HTTPActiveStreams.Dec()
	h.log.Infof(ctx, "stream opened")
	defer h.log.Infof(ctx, "stream closed")

	heartbeat := time.NewTicker(h.streams.heartbeat)
	defer heartbeat.Stop()

	lastSent := sub.UpdatedAt()
	snapshot := func() bool {
		lastSent = sub.UpdatedAt()
		return write(func() {
			c.SSEvent("snapshot", snapshotEvent{
				Orders: sub.Orders(), Status: sub.Status(), UpdatedAt: lastSent, Stale: sub.Stale(),
			})
		})
	}
	if !snapshot() {
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Done():
			return false
		case <-dirty:
			return snapshot()
		case m := <-out:
			return write(func() { c.SSEvent(m.name, m.data) })
		case <-heartbeat.C:
			// список мог замениться фоновой перезагрузкой без событий
			if at := sub.UpdatedAt(); at.After(lastSent) {
				return snapshot()
			}
			return write(func() { _, _ = io.WriteString(w, ": ping\n\n") })
		}
	})
}
