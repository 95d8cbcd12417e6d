//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	ikafka "github.com/Gunvolt24/storefront-sync/internal/kafka"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/push"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
	"github.com/Gunvolt24/storefront-sync/internal/testutil"
	"github.com/Gunvolt24/storefront-sync/internal/usecase"
	"github.com/Gunvolt24/storefront-sync/pkg/logger"
	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func safe(t *testing.T) string { return reUnsafe.ReplaceAllString(t.Name(), "-") }

// stack — брокер, хаб и подписка покупателя, в которую должны доходить события.
type stack struct {
	ctx    context.Context
	kf     *testutil.KafkaEnv
	topic  string
	group  string
	log    ports.Logger
	ingest *usecase.EventIngest
	sub    *realtime.Subscription
}

// 1) INSERT из топика доходит до подписки
func TestKafka_Insert_ReachesSubscription_TC(t *testing.T) {
	s := newStack(t, "cust-"+testutil.UniqSuffix())
	s.runConsumer(t, s.ingest, "first")

	row := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(row)))

	s.waitOrder(t, row["id"].(string))
}

// 2) не-JSON коммитится и пропускается, следующее событие доставляется
func TestKafka_Skip_InvalidJSON_Then_Deliver_TC(t *testing.T) {
	s := newStack(t, "cust-"+testutil.UniqSuffix())
	s.runConsumer(t, s.ingest, "first")

	s.write(t, []byte("{not json"))
	s.write(t, []byte(`{"eventType":"TRUNCATE","new":{"id":"x"}}`))

	row := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(row)))

	s.waitOrder(t, row["id"].(string))
	require.Len(t, s.sub.Orders(), 1)
}

// 3) UPDATE статуса после INSERT меняет запись в подписке
func TestKafka_StatusUpdate_TC(t *testing.T) {
	s := newStack(t, "cust-"+testutil.UniqSuffix())
	s.runConsumer(t, s.ingest, "first")

	row := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(row)))
	s.write(t, mustJSON(t, testutil.MakeStatusUpdate(row, domain.StatusReady)))

	id := row["id"].(string)
	require.Eventually(t, func() bool {
		for _, o := range s.sub.Orders() {
			if o.ID == id && o.Status == domain.StatusReady {
				return true
			}
		}
		return false
	}, 20*time.Second, 100*time.Millisecond)
}

// 4) StartOffset=last: старые сообщения не читаются
func TestKafka_StartOffset_Last_IgnoresOld_TC(t *testing.T) {
	s := newStack(t, "cust-"+testutil.UniqSuffix())

	old := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(old)))

	s.runConsumer(t, s.ingest, "last")
	// даём группе закрепиться на хвосте до новой записи
	time.Sleep(2 * time.Second)

	fresh := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(fresh)))

	s.waitOrder(t, fresh["id"].(string))
	for _, o := range s.sub.Orders() {
		require.NotEqual(t, old["id"], o.ID)
	}
}

// 5) временная ошибка не коммитит оффсет: после рестарта сообщение приходит снова
func TestKafka_Redelivery_AfterRestart_NoCommit_TC(t *testing.T) {
	s := newStack(t, "cust-"+testutil.UniqSuffix())

	row := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(row)))

	failing := &countingFailer{}
	stop := s.runConsumer(t, failing, "first")
	require.Eventually(t, func() bool { return failing.calls.Load() > 0 }, 20*time.Second, 100*time.Millisecond)
	stop()

	s.runConsumer(t, s.ingest, "first")
	s.waitOrder(t, row["id"].(string))
}

// 6) дубликат INSERT не плодит записи в списке
func TestKafka_DuplicateInsert_Idempotent_TC(t *testing.T) {
	s := newStack(t, "cust-"+testutil.UniqSuffix())
	s.runConsumer(t, s.ingest, "first")

	row := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	payload := mustJSON(t, testutil.MakeInsert(row))
	s.write(t, payload)
	s.write(t, payload)

	marker := testutil.MakeOrderRow(testutil.WithCustomer(s.sub.Scope().CustomerID))
	s.write(t, mustJSON(t, testutil.MakeInsert(marker)))

	s.waitOrder(t, marker["id"].(string))
	require.Len(t, s.sub.Orders(), 2)
}

// -----------------функции-помощники-----------------

func newStack(t *testing.T, customerID string) *stack {
	t.Helper()

	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancelStart)

	kf, stopKF, err := testutil.StartKafkaTC(ctxStart, "orders-itc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopKF(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	topic, group := testutil.UniqueTopicAndGroup(kf.BaseTopic + "-" + safe(t))
	require.NoError(t, testutil.EnsureTopic(ctx, kf.Brokers[0], topic, 1))

	logg, closer, err := logger.NewZapLogger(false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	hub := push.NewHub(logg)
	rs := realtime.New(hub, logg)
	t.Cleanup(rs.Close)

	sub := rs.Subscribe(ctx, realtime.CustomerScope(customerID), nil, realtime.Handlers{})
	require.Eventually(t, func() bool { return sub.State() == realtime.StateSubscribed },
		10*time.Second, 50*time.Millisecond)

	return &stack{
		ctx:    ctx,
		kf:     kf,
		topic:  topic,
		group:  group,
		log:    logg,
		ingest: usecase.NewEventIngest(validate.NewEventValidator(), hub, nil, logg, realtime.DefaultTable),
		sub:    sub,
	}
}

type handler interface {
	HandleMessage(ctx context.Context, raw []byte) error
}

// runConsumer — запускает консьюмер группы стека; возвращённая функция его останавливает.
func (s *stack) runConsumer(t *testing.T, h handler, startOffset string) func() {
	t.Helper()
	consumer, err := ikafka.NewConsumer(ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          s.topic,
		GroupID:        s.group,
		StartOffset:    startOffset,
		ProcessTimeout: 5 * time.Second,
		RetryInitial:   200 * time.Millisecond,
		RetryMax:       time.Second,
	}, h, s.log)
	require.NoError(t, err)

	runCtx, cancelRun := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Run(runCtx)
	}()

	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancelRun()
		<-done
		_ = consumer.Close()
	}
	t.Cleanup(stop)
	return stop
}

func (s *stack) write(t *testing.T, payload []byte) {
	t.Helper()
	require.NoError(t, testutil.ProduceEvents(s.ctx, s.kf.Brokers, s.topic, s.sub.Scope().CustomerID, payload))
}

func (s *stack) waitOrder(t *testing.T, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, o := range s.sub.Orders() {
			if o.ID == id {
				return true
			}
		}
		return false
	}, 20*time.Second, 100*time.Millisecond, "order %s not delivered", id)
}

func mustJSON(t *testing.T, ev domain.ChangeEvent) []byte {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

// временная "сетеподобная" ошибка
type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temporary failure" }
func (tempNetErr) Temporary() bool { return true }
func (tempNetErr) Timeout() bool   { return true }

// countingFailer — обработчик, который всегда падает временной ошибкой (оффсет не коммитится).
type countingFailer struct {
	calls atomic.Int64
}

func (f *countingFailer) HandleMessage(context.Context, []byte) error {
	f.calls.Add(1)
	return tempNetErr{}
}
