package realtime

import (
	"sort"
	"strings"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

// State — состояние подписки.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateSubscribed State = "subscribed"
	StateError      State = "error"
	StateTimedOut   State = "timed_out"
	StateClosed     State = "closed"
)

// ConnectionStatus — упрощённое состояние для клиента.
func (s State) ConnectionStatus() domain.ConnectionStatus {
	switch s {
	case StateConnecting:
		return domain.ConnConnecting
	case StateSubscribed:
		return domain.ConnConnected
	case StateError, StateTimedOut:
		return domain.ConnError
	default:
		return domain.ConnDisconnected
	}
}

// Scope — чьи заказы отслеживает подписка: одного покупателя или набора магазинов.
type Scope struct {
	CustomerID string
	StoreIDs   []string
	Enabled    bool
}

// CustomerScope — подписка покупателя.
func CustomerScope(customerID string) Scope {
	return Scope{CustomerID: customerID, Enabled: true}
}

// StoreScope — подписка продавца на набор магазинов.
func StoreScope(storeIDs ...string) Scope {
	return Scope{StoreIDs: storeIDs, Enabled: true}
}

// Ready — есть идентичность и подписка включена.
func (s Scope) Ready() bool {
	return s.Enabled && (strings.TrimSpace(s.CustomerID) != "" || len(s.stores()) > 0)
}

// Key — стабильный идентификатор области; совпадает у областей с одинаковой идентичностью.
func (s Scope) Key() string {
	if id := strings.TrimSpace(s.CustomerID); id != "" {
		return "customer:" + id
	}
	if stores := s.stores(); len(stores) > 0 {
		return "stores:" + strings.Join(stores, ",")
	}
	return ""
}

func (s Scope) channelName(table string) string {
	return table + ":" + s.Key()
}

func (s Scope) eventSpec(table string) ports.EventSpec {
	spec := ports.EventSpec{Event: "*", Table: table}
	if id := strings.TrimSpace(s.CustomerID); id != "" {
		spec.Filter = "customer_id=eq." + id
		return spec
	}
	stores := s.stores()
	if len(stores) == 1 {
		spec.Filter = "store_id=eq." + stores[0]
	} else {
		spec.Filter = "store_id=in.(" + strings.Join(stores, ",") + ")"
	}
	return spec
}

// stores — отсортированный набор магазинов без пустых и повторов.
func (s Scope) stores() []string {
	seen := make(map[string]struct{}, len(s.StoreIDs))
	out := make([]string, 0, len(s.StoreIDs))
	for _, id := range s.StoreIDs {
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
