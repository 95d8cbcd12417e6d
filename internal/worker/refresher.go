package worker

import (
	"context"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
)

const DefaultRefreshInterval = 2 * time.Minute

type subscriptionSource interface {
	Subscriptions() []*realtime.Subscription
}

type baselineLoader interface {
	RefreshBaseline(ctx context.Context, scope realtime.Scope) ([]*domain.OrderRecord, error)
}

type tagPruner interface {
	PruneTags(ctx context.Context) int
}

// Refresher — запасной путь свежести: периодически перезагружает списки живых подписок
// из бэкенда и чистит индексы тегов от ссылок на истёкшие записи.
type Refresher struct {
	subs     subscriptionSource
	orders   baselineLoader
	cache    tagPruner // может быть nil
	interval time.Duration
	log      ports.Logger
}

func NewRefresher(subs subscriptionSource, orders baselineLoader, cache tagPruner, interval time.Duration, log ports.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{subs: subs, orders: orders, cache: cache, interval: interval, log: log}
}

func (w *Refresher) Name() string { return "order_refresher" }

func (w *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RefreshOnce(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// RefreshOnce — один проход. Подписки с одинаковой областью загружаются одним запросом.
// Возвращает число подписок, получивших новый список.
func (w *Refresher) RefreshOnce(ctx context.Context) int {
	byScope := make(map[string][]*realtime.Subscription)
	scopes := make(map[string]realtime.Scope)
	for _, sub := range w.subs.Subscriptions() {
		scope := sub.Scope()
		if !scope.Ready() {
			continue
		}
		key := scope.Key()
		byScope[key] = append(byScope[key], sub)
		scopes[key] = scope
	}

	updated := 0
	outcome := "ok"
	for key, subs := range byScope {
		if ctx.Err() != nil {
			break
		}
		orders, err := w.orders.RefreshBaseline(ctx, scopes[key])
		if err != nil {
			outcome = "error"
			w.log.Warnf(ctx, "refresher: scope=%s baseline failed: %v", key, err)
			continue
		}
		for _, sub := range subs {
			sub.SetBaseline(orders)
			updated++
		}
	}

	if w.cache != nil {
		w.cache.PruneTags(ctx)
	}
	metrics.WorkerRuns.WithLabelValues(w.Name(), outcome).Inc()
	if updated > 0 {
		w.log.Infof(ctx, "refresher: baselines updated subscriptions=%d scopes=%d", updated, len(byScope))
	}
	return updated
}
