package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []ports.SubscribeStatus
	errs     []error
}

func (r *statusRecorder) handle(s ports.SubscribeStatus, err error) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *statusRecorder) last() (ports.SubscribeStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return "", nil
	}
	return r.statuses[len(r.statuses)-1], r.errs[len(r.errs)-1]
}

func waitState(t *testing.T, ch ports.PushChannel, want ports.ChannelState) {
	t.Helper()
	require.Eventually(t, func() bool { return ch.State() == want }, time.Second, 2*time.Millisecond)
}

func TestHub_SubscribeAcknowledges(t *testing.T) {
	h := NewHub(nopLogger{})
	rec := &statusRecorder{}

	ch := h.Channel("orders:customer:c1").Subscribe(rec.handle)
	waitState(t, ch, ports.ChannelJoined)

	status, err := rec.last()
	require.Equal(t, ports.StatusSubscribed, status)
	require.NoError(t, err)
}

func TestHub_JoinFailure(t *testing.T) {
	boom := errors.New("boom")
	h := NewHub(nopLogger{}, WithJoinFailure(func(string) error { return boom }))
	rec := &statusRecorder{}

	ch := h.Channel("x").Subscribe(rec.handle)
	waitState(t, ch, ports.ChannelErrored)

	status, err := rec.last()
	require.Equal(t, ports.StatusChannelError, status)
	require.ErrorIs(t, err, boom)
}

func TestHub_JoinTimeout(t *testing.T) {
	h := NewHub(nopLogger{}, WithoutAck(), WithJoinTimeout(10*time.Millisecond))
	rec := &statusRecorder{}

	ch := h.Channel("x").Subscribe(rec.handle)
	require.Equal(t, ports.ChannelJoining, ch.State())
	waitState(t, ch, ports.ChannelErrored)

	status, err := rec.last()
	require.Equal(t, ports.StatusTimedOut, status)
	require.ErrorIs(t, err, ErrJoinTimeout)
}

func TestHub_PublishRoutesByFilter(t *testing.T) {
	h := NewHub(nopLogger{})

	var mu sync.Mutex
	got := map[string][]string{}
	collect := func(name string) ports.EventHandler {
		return func(ev domain.ChangeEvent) {
			mu.Lock()
			got[name] = append(got[name], string(ev.EventType))
			mu.Unlock()
		}
	}

	c1 := h.Channel("c1").
		On(ports.EventSpec{Event: "*", Table: "orders", Filter: "customer_id=eq.c1"}, collect("c1")).
		Subscribe(nil)
	stores := h.Channel("stores").
		On(ports.EventSpec{Event: "*", Table: "orders", Filter: "store_id=in.(s1,s2)"}, collect("stores")).
		Subscribe(nil)
	inserts := h.Channel("inserts").
		On(ports.EventSpec{Event: "INSERT", Table: "orders"}, collect("inserts")).
		Subscribe(nil)
	for _, ch := range []ports.PushChannel{c1, stores, inserts} {
		waitState(t, ch, ports.ChannelJoined)
	}

	ctx := context.Background()
	// camelCase-поля тоже проходят фильтр по snake_case-колонке
	n := h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventInsert, Table: "orders",
		New: map[string]any{"id": "o1", "customerId": "c1", "storeId": "s2"},
	})
	require.Equal(t, 3, n)

	h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventUpdate, Table: "orders",
		New: map[string]any{"id": "o2", "customer_id": "c2", "store_id": "s3"},
	})
	h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventDelete, Table: "orders",
		Old: map[string]any{"id": "o1", "customer_id": "c1", "store_id": "s1"},
	})
	// другая таблица
	h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventInsert, Table: "payments",
		New: map[string]any{"customer_id": "c1"},
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"INSERT", "DELETE"}, got["c1"])
	require.Equal(t, []string{"INSERT", "DELETE"}, got["stores"])
	require.Equal(t, []string{"INSERT"}, got["inserts"])
}

func TestHub_NotJoinedChannelGetsNothing(t *testing.T) {
	h := NewHub(nopLogger{}, WithoutAck(), WithJoinTimeout(time.Hour))

	called := false
	h.Channel("x").
		On(ports.EventSpec{Event: "*"}, func(domain.ChangeEvent) { called = true }).
		Subscribe(nil)

	n := h.Publish(context.Background(), domain.ChangeEvent{EventType: domain.EventInsert, New: map[string]any{"id": "1"}})
	require.Zero(t, n)
	require.False(t, called)
}

func TestHub_RemoveChannel(t *testing.T) {
	h := NewHub(nopLogger{})
	rec := &statusRecorder{}

	ch := h.Channel("x").
		On(ports.EventSpec{Event: "*"}, func(domain.ChangeEvent) {}).
		Subscribe(rec.handle)
	waitState(t, ch, ports.ChannelJoined)
	require.Equal(t, 1, h.ChannelCount())

	require.NoError(t, h.RemoveChannel(ch))
	require.Equal(t, ports.ChannelClosed, ch.State())
	require.Zero(t, h.ChannelCount())

	status, _ := rec.last()
	require.Equal(t, ports.StatusClosed, status)

	require.ErrorIs(t, h.RemoveChannel(ch), ErrUnknownChannel)

	n := h.Publish(context.Background(), domain.ChangeEvent{EventType: domain.EventInsert, New: map[string]any{"id": "1"}})
	require.Zero(t, n)
}

func TestHub_RemoveBeforeAckSuppressesStatus(t *testing.T) {
	h := NewHub(nopLogger{}, WithAckDelay(20*time.Millisecond))
	rec := &statusRecorder{}

	ch := h.Channel("x").Subscribe(rec.handle)
	require.NoError(t, h.RemoveChannel(ch))

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, ports.ChannelClosed, ch.State())
	status, _ := rec.last()
	require.Equal(t, ports.StatusClosed, status)
}

func TestHub_HandlerPanicIsRecovered(t *testing.T) {
	h := NewHub(nopLogger{})

	var second int
	ch := h.Channel("x").
		On(ports.EventSpec{Event: "*"}, func(domain.ChangeEvent) { panic("bad handler") }).
		On(ports.EventSpec{Event: "*"}, func(domain.ChangeEvent) { second++ }).
		Subscribe(nil)
	waitState(t, ch, ports.ChannelJoined)

	n := h.Publish(context.Background(), domain.ChangeEvent{EventType: domain.EventInsert, New: map[string]any{"id": "1"}})
	require.Equal(t, 1, n)
	require.Equal(t, 1, second)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		raw     string
		record  map[string]any
		want    bool
		wantErr bool
	}{
		{raw: "", record: map[string]any{}, want: true},
		{raw: "customer_id=eq.c1", record: map[string]any{"customer_id": "c1"}, want: true},
		{raw: "customer_id=eq.c1", record: map[string]any{"customer_id": "c2"}, want: false},
		{raw: "customer_id=eq.c1", record: map[string]any{}, want: false},
		{raw: "store_id=in.(s1, s2)", record: map[string]any{"storeId": "s2"}, want: true},
		{raw: "store_id=in.(s1,s2)", record: map[string]any{"store_id": nil}, want: false},
		{raw: "total=eq.10", record: map[string]any{"total": float64(10)}, want: true},
		{raw: "store_id=in.()", wantErr: true},
		{raw: "store_id=gt.5", wantErr: true},
		{raw: "store_id", wantErr: true},
		{raw: "=eq.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f, err := parseFilter(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, f.match(tt.record))
		})
	}
}

func TestFilter_MatchEvent(t *testing.T) {
	f, err := parseFilter("customer_id=eq.c1")
	require.NoError(t, err)

	tests := []struct {
		name string
		ev   domain.ChangeEvent
		want bool
	}{
		{"insert own", domain.ChangeEvent{EventType: domain.EventInsert, New: map[string]any{"id": "o1", "customer_id": "c1"}}, true},
		{"insert without column", domain.ChangeEvent{EventType: domain.EventInsert, New: map[string]any{"id": "o1"}}, false},
		{"update foreign", domain.ChangeEvent{EventType: domain.EventUpdate, New: map[string]any{"id": "o1", "customer_id": "c2"}}, false},
		{"update only id and status", domain.ChangeEvent{EventType: domain.EventUpdate, New: map[string]any{"id": "o1", "status": "confirmed"}}, true},
		{"update column in old", domain.ChangeEvent{
			EventType: domain.EventUpdate,
			New:       map[string]any{"id": "o1", "status": "confirmed"},
			Old:       map[string]any{"id": "o1", "customer_id": "c2"},
		}, false},
		{"delete primary key only", domain.ChangeEvent{EventType: domain.EventDelete, Old: map[string]any{"id": "o1"}}, true},
		{"delete foreign old", domain.ChangeEvent{EventType: domain.EventDelete, Old: map[string]any{"id": "o1", "customerId": "c2"}}, false},
		{"delete old wins over new", domain.ChangeEvent{
			EventType: domain.EventDelete,
			Old:       map[string]any{"id": "o1", "customer_id": "c1"},
			New:       map[string]any{"id": "o1", "customer_id": "c2"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, f.matchEvent(tt.ev))
		})
	}
}

// UPDATE {id,status} и DELETE {id} без колонки владельца доходят до каналов с фильтром.
func TestHub_PartialRecordsReachFilteredChannels(t *testing.T) {
	h := NewHub(nopLogger{})

	var mu sync.Mutex
	var got []string
	ch := h.Channel("orders:customer:c1").
		On(ports.EventSpec{Event: "*", Table: "orders", Filter: "customer_id=eq.c1"}, func(ev domain.ChangeEvent) {
			mu.Lock()
			got = append(got, string(ev.EventType))
			mu.Unlock()
		}).
		Subscribe(nil)
	waitState(t, ch, ports.ChannelJoined)

	ctx := context.Background()
	require.Equal(t, 1, h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventUpdate, Table: "orders",
		New: map[string]any{"id": "o1", "status": "confirmed"},
	}))
	require.Equal(t, 1, h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventDelete, Table: "orders",
		Old: map[string]any{"id": "o1"},
	}))
	require.Zero(t, h.Publish(ctx, domain.ChangeEvent{
		EventType: domain.EventInsert, Table: "orders",
		New: map[string]any{"id": "o2", "status": "pending"},
	}))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"UPDATE", "DELETE"}, got)
}
