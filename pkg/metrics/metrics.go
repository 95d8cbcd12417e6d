package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of change-events fetched from Kafka",
		},
		[]string{"topic"},
	)
	// KafkaMessagesHandled — исход обработки: ok | skipped | retry.
	KafkaMessagesHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_handled_total",
			Help: "Change-events handled by outcome",
		},
		[]string{"topic", "outcome"},
	)
	KafkaHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_handle_duration_seconds",
			Help:    "Time spent handling one change-event",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"topic"},
	)
	KafkaCommitErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_commit_errors_total",
			Help: "Failed offset commits",
		},
		[]string{"topic"},
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Tagged cache operations",
		},
		[]string{"op"}, // hit|miss|expired|corrupt|set|remove|invalidated|cleared
	)
	CacheStoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_store_errors_total",
			Help: "Key-value store failures swallowed by the tagged cache",
		},
		[]string{"op"}, // get|set|remove|keys
	)
	CacheTagIndexTrimmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_tag_index_trimmed_total",
			Help: "Key references dropped from overflowing tag indices",
		},
	)
	CacheTagIndexSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cache_tag_index_size",
			Help:    "Tag index length observed on write",
			Buckets: []float64{1, 5, 10, 50, 100, 250, 500, 1000},
		},
	)
)

var (
	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Change-events handled by realtime order subscriptions",
		},
		[]string{"type", "outcome"}, // outcome: applied|duplicate|unknown|ignored|invalid|failed|dropped
	)
	RealtimeStateChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_state_changes_total",
			Help: "Subscription state transitions",
		},
		[]string{"state"},
	)
	RealtimeActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_active_subscriptions",
			Help: "Number of open realtime subscriptions",
		},
	)
	RealtimeProbe = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_probe_total",
			Help: "Channel state observed by the post-subscribe probe",
		},
		[]string{"state"},
	)
)

var (
	PushPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_published_total",
			Help: "Change-events published to the push hub",
		},
		[]string{"table"},
	)
	PushDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_delivered_total",
			Help: "Change-events delivered to channel listeners",
		},
		[]string{"table"},
	)
	PushChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_channels",
			Help: "Number of channels registered in the push hub",
		},
	)
)

var (
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests to the storefront backend",
		},
		[]string{"op", "outcome"}, // outcome: ok|not_found|error
	)
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Storefront backend request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

var WorkerRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_runs_total",
		Help: "Background worker iterations",
	},
	[]string{"worker", "outcome"}, // outcome: ok|error
)

var (
	HTTPRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	HTTPActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_streams",
			Help: "Open SSE order streams",
		},
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует все метрики в глобальном реестре; повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			KafkaMessagesConsumed, KafkaMessagesHandled, KafkaHandleDuration, KafkaCommitErrors,
			CacheOps, CacheStoreErrors, CacheTagIndexTrimmed, CacheTagIndexSize,
			RealtimeEvents, RealtimeStateChanges, RealtimeActiveSubscriptions, RealtimeProbe,
			PushPublished, PushDelivered, PushChannels,
			BackendRequests, BackendLatency,
			WorkerRuns,
			HTTPRequests, HTTPActiveStreams,
		)
	})
}
