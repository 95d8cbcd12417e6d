//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// UniqueTopicAndGroup — топик и consumer group с общим уникальным суффиксом.
// Группа отличается от топика постфиксом "-g", чтобы их было легко различить в логах брокера.
func UniqueTopicAndGroup(base string) (topic, group string) {
	topic = base + "-" + UniqSuffix()
	return topic, topic + "-g"
}

// EnsureTopic — создаёт топик change-event с заданным числом партиций (минимум одна)
// и ждёт, пока он появится в метаданных. Существующий топик не ошибка.
func EnsureTopic(ctx context.Context, broker, topic string, partitions int) error {
	if partitions < 1 {
		partitions = 1
	}
	addr := bootstrapHost(broker)

	ctrl, err := controllerAddr(addr)
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}

	admin, err := kafka.Dial("tcp", ctrl)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", ctrl, err)
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) &&
		!strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}

	return awaitPartitions(ctx, addr, topic, partitions)
}

// ProduceEvents — пишет payload'ы в топик по порядку под одним ключом (одна партиция).
func ProduceEvents(ctx context.Context, brokers []string, topic, key string, payloads ...[]byte) error {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}
	defer w.Close()

	msgs := make([]kafka.Message, 0, len(payloads))
	for _, p := range payloads {
		msgs = append(msgs, kafka.Message{Key: []byte(key), Value: p})
	}
	return w.WriteMessages(ctx, msgs...)
}

// bootstrapHost — первый адрес из списка брокеров без схемы ("PLAINTEXT://h:p" → "h:p").
func bootstrapHost(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	if u, err := url.Parse(first); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Host
	}
	return first
}

func controllerAddr(addr string) (string, error) {
	conn, err := kafka.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	b, err := conn.Controller()
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port)), nil
}

func awaitPartitions(ctx context.Context, addr, topic string, want int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	var last error
	for {
		conn, err := kafka.Dial("tcp", addr)
		if err == nil {
			parts, perr := conn.ReadPartitions(topic)
			_ = conn.Close()
			if perr == nil && len(parts) >= want {
				return nil
			}
			last = perr
		} else {
			last = err
		}

		select {
		case <-ctx.Done():
			if last != nil {
				return fmt.Errorf("topic %q not ready: %w", topic, last)
			}
			return fmt.Errorf("topic %q not ready: %w", topic, ctx.Err())
		case <-tick.C:
		}
	}
}
