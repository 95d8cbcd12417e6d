package kafka_test

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	mykafka "github.com/Gunvolt24/storefront-sync/internal/kafka"
)

func TestConsumerConfig_StartOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"first", kafkago.FirstOffset},
		{"FIRST", kafkago.FirstOffset},
		{" FiRsT \n", kafkago.FirstOffset},
		{"", kafkago.LastOffset},
		{"last", kafkago.LastOffset},
		{"earliest", kafkago.LastOffset},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			cfg := mykafka.ConsumerConfig{Brokers: []string{"k1:9092"}, Topic: "t", GroupID: "g", StartOffset: tt.in}
			require.Equal(t, tt.want, cfg.ReaderConfig().StartOffset)
		})
	}
}

func TestConsumerConfig_ReaderConfig_ManualCommitAndDefaults(t *testing.T) {
	cfg := mykafka.ConsumerConfig{
		Brokers: []string{"k1:9092", "k2:9092"},
		Topic:   "order-changes",
		GroupID: "storefront-sync",
	}

	rc := cfg.ReaderConfig()
	require.Equal(t, cfg.Brokers, rc.Brokers)
	require.Equal(t, "order-changes", rc.Topic)
	require.Equal(t, "storefront-sync", rc.GroupID)
	require.Zero(t, rc.CommitInterval)
	require.Equal(t, 500*time.Millisecond, rc.MaxWait)
	require.Equal(t, 1, rc.MinBytes)
	require.Equal(t, 10<<20, rc.MaxBytes)

	cfg.MaxWait = 2 * time.Second
	require.Equal(t, 2*time.Second, cfg.ReaderConfig().MaxWait)
}

func TestConsumerConfig_Validate(t *testing.T) {
	require.NoError(t, mykafka.ConsumerConfig{Brokers: []string{"k:9092"}, Topic: "t", GroupID: "g"}.Validate())

	err := mykafka.ConsumerConfig{Topic: " "}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "no brokers")
	require.Contains(t, err.Error(), "empty topic")
	require.Contains(t, err.Error(), "empty group id")
}

func TestNewConsumer_RejectsInvalidConfig(t *testing.T) {
	c, err := mykafka.NewConsumer(mykafka.ConsumerConfig{}, nil, nil)
	require.Error(t, err)
	require.Nil(t, c)
}
