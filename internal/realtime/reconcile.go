package realtime

import (
	"fmt"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

// Исходы применения события к списку.
const (
	outcomeApplied   = "applied"
	outcomeDuplicate = "duplicate"
	outcomeUnknown   = "unknown"
	outcomeIgnored   = "ignored"
	outcomeInvalid   = "invalid"
	outcomeFailed    = "failed"
	outcomeDropped   = "dropped"
)

// change — что произошло со списком после события.
type change struct {
	kind      domain.EventType // фактическое действие: мягкое удаление в UPDATE даёт DELETE
	outcome   string
	order     *domain.OrderRecord
	prev      *domain.OrderRecord
	deletedID string
}

// reconcile — применяет событие к списку (новые сверху) и возвращает новый список.
// Исходный срез не меняется.
func reconcile(list []*domain.OrderRecord, ev domain.ChangeEvent) ([]*domain.OrderRecord, change, error) {
	switch ev.EventType {
	case domain.EventInsert:
		rec, err := Normalize(ev.New)
		if err != nil {
			return list, change{kind: ev.EventType, outcome: outcomeInvalid}, err
		}
		if rec.SoftDeleted() {
			return list, change{kind: ev.EventType, outcome: outcomeIgnored}, nil
		}
		if indexOf(list, rec.ID) >= 0 {
			return list, change{kind: ev.EventType, outcome: outcomeDuplicate}, nil
		}
		out := make([]*domain.OrderRecord, 0, len(list)+1)
		out = append(out, rec)
		out = append(out, list...)
		return out, change{kind: ev.EventType, outcome: outcomeApplied, order: rec}, nil

	case domain.EventUpdate:
		rec, err := Normalize(ev.New)
		if err != nil {
			return list, change{kind: ev.EventType, outcome: outcomeInvalid}, err
		}
		if rec.SoftDeleted() {
			return remove(list, rec.ID)
		}
		idx := indexOf(list, rec.ID)
		if idx < 0 {
			// UPDATE раньше INSERT: отбрасываем, список догонит следующая полная загрузка
			return list, change{kind: ev.EventType, outcome: outcomeUnknown}, nil
		}
		out := make([]*domain.OrderRecord, len(list))
		copy(out, list)
		out[idx] = rec
		return out, change{kind: ev.EventType, outcome: outcomeApplied, order: rec, prev: list[idx]}, nil

	case domain.EventDelete:
		id := RecordID(ev.Old)
		if id == "" {
			id = RecordID(ev.New)
		}
		if id == "" {
			return list, change{kind: ev.EventType, outcome: outcomeInvalid}, ErrMissingID
		}
		return remove(list, id)

	default:
		return list, change{kind: ev.EventType, outcome: outcomeInvalid},
			fmt.Errorf("unsupported event type %q", ev.EventType)
	}
}

func remove(list []*domain.OrderRecord, id string) ([]*domain.OrderRecord, change, error) {
	idx := indexOf(list, id)
	if idx < 0 {
		return list, change{kind: domain.EventDelete, outcome: outcomeUnknown}, nil
	}
	out := make([]*domain.OrderRecord, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return out, change{kind: domain.EventDelete, outcome: outcomeApplied, prev: list[idx], deletedID: id}, nil
}

func indexOf(list []*domain.OrderRecord, id string) int {
	for i, o := range list {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// dedupBaseline — убирает nil, записи без id и повторы (остаётся первое вхождение).
func dedupBaseline(list []*domain.OrderRecord) []*domain.OrderRecord {
	seen := make(map[string]struct{}, len(list))
	out := make([]*domain.OrderRecord, 0, len(list))
	for _, o := range list {
		if o == nil || o.ID == "" || o.SoftDeleted() {
			continue
		}
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o.Clone())
	}
	return out
}
