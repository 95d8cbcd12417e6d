package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
)

var (
	_ ports.OrderReadService = (*OrderService)(nil)
	_ ports.CacheAdmin       = (*OrderService)(nil)
)

// ErrEmptyScope — не передан ни клиент, ни магазины.
var ErrEmptyScope = errors.New("empty customer or store scope")

// Ключи и теги кэша.
const (
	TagOrders = "orders"

	keyOrder          = "order:"
	keyCustomerOrders = "orders:customer:"
	keyStoreOrders    = "orders:stores:"
	tagCustomer       = "customer:"
	tagStore          = "store:"
)

func CustomerTag(customerID string) string { return tagCustomer + customerID }
func StoreTag(storeID string) string       { return tagStore + storeID }

// OrderService — чтение заказов через кэш с тегами (без знаний о транспорте).
type OrderService struct {
	source ports.OrderSource // REST-бэкенд
	cache  ports.TaggedCache
	log    ports.Logger
	ttl    time.Duration // 0 — TTL кэша по умолчанию
}

// NewOrderService — DI-конструктор.
func NewOrderService(source ports.OrderSource, cache ports.TaggedCache, log ports.Logger, ttl time.Duration) *OrderService {
	return &OrderService{source: source, cache: cache, log: log, ttl: ttl}
}

// GetOrder — сначала кэш, при промахе бэкенд с записью в кэш.
// Возвращает (nil, nil), если заказа нет; отсутствие не кэшируется.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.OrderRecord, error) {
	key := keyOrder + orderID

	var cached domain.OrderRecord
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	order, err := s.source.GetOrder(ctx, orderID)
	if err != nil {
		s.log.Errorf(ctx, "backend GetOrder failed order_id=%s err=%v", orderID, err)
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	tags := []string{TagOrders}
	if order.CustomerID != "" {
		tags = append(tags, CustomerTag(order.CustomerID))
	}
	if order.StoreID != "" {
		tags = append(tags, StoreTag(order.StoreID))
	}
	s.put(ctx, key, order, tags)

	s.log.Infof(ctx, "backend fetch order_id=%s took=%s", orderID, time.Since(start))
	return order, nil
}

// CustomerOrders — заказы клиента, новые сверху.
func (s *OrderService) CustomerOrders(ctx context.Context, customerID string) ([]*domain.OrderRecord, error) {
	return s.customerOrders(ctx, customerID, true)
}

// StoreOrders — заказы набора магазинов, новые сверху. Порядок и повторы id не важны.
func (s *OrderService) StoreOrders(ctx context.Context, storeIDs []string) ([]*domain.OrderRecord, error) {
	return s.storeOrders(ctx, storeIDs, true)
}

// Baseline — полный список для области подписки.
func (s *OrderService) Baseline(ctx context.Context, scope realtime.Scope) ([]*domain.OrderRecord, error) {
	if strings.TrimSpace(scope.CustomerID) != "" {
		return s.customerOrders(ctx, scope.CustomerID, true)
	}
	return s.storeOrders(ctx, scope.StoreIDs, true)
}

// RefreshBaseline — как Baseline, но всегда из бэкенда; кэш перезаписывается свежим списком.
func (s *OrderService) RefreshBaseline(ctx context.Context, scope realtime.Scope) ([]*domain.OrderRecord, error) {
	if strings.TrimSpace(scope.CustomerID) != "" {
		return s.customerOrders(ctx, scope.CustomerID, false)
	}
	return s.storeOrders(ctx, scope.StoreIDs, false)
}

func (s *OrderService) customerOrders(ctx context.Context, customerID string, cached bool) ([]*domain.OrderRecord, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrEmptyScope
	}
	return s.list(ctx,
		keyCustomerOrders+customerID,
		[]string{TagOrders, CustomerTag(customerID)},
		cached,
		func(ctx context.Context) ([]*domain.OrderRecord, error) {
			return s.source.ListCustomerOrders(ctx, customerID)
		},
	)
}

func (s *OrderService) storeOrders(ctx context.Context, storeIDs []string, cached bool) ([]*domain.OrderRecord, error) {
	ids := NormalizeIDs(storeIDs)
	if len(ids) == 0 {
		return nil, ErrEmptyScope
	}
	tags := make([]string, 0, len(ids)+1)
	tags = append(tags, TagOrders)
	for _, id := range ids {
		tags = append(tags, StoreTag(id))
	}
	return s.list(ctx,
		keyStoreOrders+strings.Join(ids, ","),
		tags,
		cached,
		func(ctx context.Context) ([]*domain.OrderRecord, error) {
			return s.source.ListStoreOrders(ctx, ids)
		},
	)
}

func (s *OrderService) list(
	ctx context.Context,
	key string,
	tags []string,
	useCache bool,
	fetch func(context.Context) ([]*domain.OrderRecord, error),
) ([]*domain.OrderRecord, error) {
	if useCache {
		var cached []*domain.OrderRecord
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	start := time.Now()
	orders, err := fetch(ctx)
	if err != nil {
		s.log.Errorf(ctx, "backend list failed key=%s err=%v", key, err)
		return nil, err
	}
	orders = NewestFirst(orders)
	s.put(ctx, key, orders, tags)

	s.log.Infof(ctx, "backend fetch key=%s orders=%d took=%s", key, len(orders), time.Since(start))
	return orders, nil
}

func (s *OrderService) put(ctx context.Context, key string, data any, tags []string) {
	if err := s.cache.Set(ctx, key, data, ports.CacheOptions{TTL: s.ttl, Tags: tags}); err != nil {
		s.log.Warnf(ctx, "cache.Set failed key=%s err=%v", key, err)
	}
}

// ApplyEvent — сбрасывает кэш, который затрагивает событие изменения.
// Если из события не понять клиента или магазин, сбрасывается весь тег orders.
func (s *OrderService) ApplyEvent(ctx context.Context, ev domain.ChangeEvent) {
	id := realtime.RecordID(ev.New)
	if id == "" {
		id = realtime.RecordID(ev.Old)
	}
	if id != "" {
		s.cache.Remove(ctx, keyOrder+id)
	}

	tags := affectedTags(ev)
	if len(tags) == 0 {
		s.cache.InvalidateByTag(ctx, TagOrders)
		return
	}
	s.cache.InvalidateByTags(ctx, tags)
}

// InvalidateTags — ручной сброс по тегам.
func (s *OrderService) InvalidateTags(ctx context.Context, tags []string) {
	s.cache.InvalidateByTags(ctx, tags)
	s.log.Infof(ctx, "cache invalidated tags=%v", tags)
}

func (s *OrderService) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
	s.log.Infof(ctx, "cache cleared")
}

// affectedTags — теги клиента и магазина из new и old (старый владелец тоже теряет заказ).
func affectedTags(ev domain.ChangeEvent) []string {
	seen := make(map[string]struct{}, 4)
	var out []string
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, raw := range []map[string]any{ev.New, ev.Old} {
		if len(raw) == 0 {
			continue
		}
		rec, err := realtime.Normalize(raw)
		if err != nil {
			continue
		}
		if rec.CustomerID != "" {
			add(CustomerTag(rec.CustomerID))
		}
		if rec.StoreID != "" {
			add(StoreTag(rec.StoreID))
		}
	}
	return out
}

// NormalizeIDs — без пустых и повторов, по возрастанию.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NewestFirst — сортирует по created_at по убыванию; при равенстве по id.
func NewestFirst(orders []*domain.OrderRecord) []*domain.OrderRecord {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return orders
}
