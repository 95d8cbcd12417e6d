package kafka

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

var _ ports.MessageConsumer = (*Consumer)(nil)

// reader — то, что консьюмеру нужно от kafka.Reader; в тестах подменяется моком.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// messageHandler — приём change-event: декодирование, валидация, раздача подписчикам.
// Ошибка validate.ErrInvalidEvent означает «мусор», остальные ошибки временные.
type messageHandler interface {
	HandleMessage(ctx context.Context, raw []byte) error
}

// Consumer читает топик change-event группой и отдаёт сообщения обработчику.
// Доставка at-least-once: оффсет коммитится после обработки или после отказа от «мусора».
type Consumer struct {
	reader         reader
	handler        messageHandler
	log            ports.Logger
	processTimeout time.Duration
	backoff        *backoff
	closeOnce      sync.Once
}

func NewConsumer(cfg ConsumerConfig, handler messageHandler, log ports.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("consumer config: %w", err)
	}
	cfg = cfg.withDefaults()

	return &Consumer{
		reader:         kafka.NewReader(cfg.ReaderConfig()),
		handler:        handler,
		log:            log,
		processTimeout: cfg.ProcessTimeout,
		backoff:        newBackoff(cfg.RetryInitial, cfg.RetryMax, rand.New(rand.NewSource(time.Now().UnixNano()))),
	}, nil
}

// Run крутит цикл fetch → handle → commit до отмены ctx.
// Ошибки брокера ждут по экспоненте с джиттером, временная ошибка обработки
// оставляет оффсет незакоммиченным, и сообщение придёт снова после ребаланса или рестарта.
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "change-event consumer started topic=%s group_id=%s brokers=%v", rc.Topic, rc.GroupID, rc.Brokers)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := c.backoff.next()
			c.log.Warnf(ctx, "fetch from %s failed: %v (retry in %s)", rc.Topic, err, wait)
			if !sleepCtx(ctx, wait) {
				return ctx.Err()
			}
			continue
		}
		c.backoff.reset()
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		switch c.process(ctx, rc.Topic, &msg) {
		case outcomeRetry:
			sleepCtx(ctx, c.backoff.pause())
		default:
			c.commit(ctx, rc.Topic, &msg)
		}
	}
}

// Close закрывает reader; повторные вызовы ничего не делают.
func (c *Consumer) Close() (err error) {
	c.closeOnce.Do(func() { err = c.reader.Close() })
	return err
}
