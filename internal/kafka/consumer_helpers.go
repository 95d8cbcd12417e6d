package kafka

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
	"github.com/Gunvolt24/storefront-sync/pkg/telemetry"
	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

// outcome — судьба сообщения после обработки.
type outcome string

const (
	outcomeOK      outcome = "ok"
	outcomeSkipped outcome = "skipped"
	outcomeRetry   outcome = "retry"
)

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, validate.ErrInvalidEvent):
		return outcomeSkipped
	default:
		return outcomeRetry
	}
}

// process — одно сообщение под processTimeout, с родительским трейсом из заголовков.
func (c *Consumer) process(ctx context.Context, topic string, msg *kafka.Message) outcome {
	start := time.Now()
	hctx, cancel := context.WithTimeout(telemetry.Extract(ctx, (*headerCarrier)(&msg.Headers)), c.processTimeout)
	err := c.handler.HandleMessage(hctx, msg.Value)
	cancel()
	metrics.KafkaHandleDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	res := classify(err)
	metrics.KafkaMessagesHandled.WithLabelValues(topic, string(res)).Inc()

	switch res {
	case outcomeSkipped:
		c.log.Warnf(ctx, "skip change-event partition=%d offset=%d key=%q: %v",
			msg.Partition, msg.Offset, msg.Key, err)
	case outcomeRetry:
		c.log.Warnf(ctx, "change-event partition=%d offset=%d not handled, offset kept: %v",
			msg.Partition, msg.Offset, err)
	}
	return res
}

func (c *Consumer) commit(ctx context.Context, topic string, msg *kafka.Message) {
	if err := c.reader.CommitMessages(ctx, *msg); err != nil {
		metrics.KafkaCommitErrors.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "commit partition=%d offset=%d failed: %v", msg.Partition, msg.Offset, err)
	}
}

// backoff — экспонента от initial до limit с equal-jitter: половина задержки фиксирована,
// вторая случайна. Не потокобезопасен, им владеет цикл Run.
type backoff struct {
	initial time.Duration
	limit   time.Duration
	cur     time.Duration
	rnd     *rand.Rand
}

func newBackoff(initial, limit time.Duration, rnd *rand.Rand) *backoff {
	return &backoff{initial: initial, limit: limit, cur: initial, rnd: rnd}
}

// next — текущая задержка с джиттером; следующая будет вдвое больше, но не выше limit.
func (b *backoff) next() time.Duration {
	d := b.cur
	b.cur = min(b.cur*2, b.limit)
	return b.jitter(d)
}

func (b *backoff) reset() { b.cur = b.initial }

// pause — короткая пауза после временной ошибки обработчика.
func (b *backoff) pause() time.Duration {
	return b.jitter(min(b.initial, 500*time.Millisecond))
}

func (b *backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(b.rnd.Int63n(int64(d-half)+1))
}

// sleepCtx — false, если ctx отменён раньше.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// headerCarrier — заголовки kafka-сообщения как носитель контекста трейса.
type headerCarrier []kafka.Header

func (h *headerCarrier) Get(key string) string {
	for _, kv := range *h {
		if strings.EqualFold(kv.Key, key) {
			return string(kv.Value)
		}
	}
	return ""
}

func (h *headerCarrier) Set(key, value string) {
	for i := range *h {
		if strings.EqualFold((*h)[i].Key, key) {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*h))
	for _, kv := range *h {
		keys = append(keys, kv.Key)
	}
	return keys
}
