package worker

import (
	"context"
	"time"

	"github.com/rs/dnscache"

	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

const DefaultDNSRefreshInterval = 5 * time.Minute

// DNSRefresher — обновляет кэш DNS клиента бэкенда и выбрасывает неиспользуемые имена.
type DNSRefresher struct {
	resolver *dnscache.Resolver
	interval time.Duration
}

func NewDNSRefresher(resolver *dnscache.Resolver, interval time.Duration) *DNSRefresher {
	if interval <= 0 {
		interval = DefaultDNSRefreshInterval
	}
	return &DNSRefresher{resolver: resolver, interval: interval}
}

func (w *DNSRefresher) Name() string { return "dns_refresher" }

func (w *DNSRefresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.resolver.Refresh(true)
			metrics.WorkerRuns.WithLabelValues(w.Name(), "ok").Inc()
		case <-ctx.Done():
			return nil
		}
	}
}
