package push

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
)

var ErrInvalidFilter = errors.New("invalid filter")

// filter — разобранный фильтр вида "column=eq.value" или "column=in.(a,b)".
// Пустой фильтр пропускает всё.
type filter struct {
	column string
	values map[string]struct{}
}

func parseFilter(raw string) (filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return filter{}, nil
	}

	column, expr, ok := strings.Cut(raw, "=")
	if !ok || column == "" {
		return filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}

	op, arg, ok := strings.Cut(expr, ".")
	if !ok {
		return filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}

	f := filter{column: column, values: make(map[string]struct{})}
	switch op {
	case "eq":
		f.values[arg] = struct{}{}
	case "in":
		if !strings.HasPrefix(arg, "(") || !strings.HasSuffix(arg, ")") {
			return filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
		}
		for _, v := range strings.Split(arg[1:len(arg)-1], ",") {
			v = strings.Trim(strings.TrimSpace(v), `"`)
			if v != "" {
				f.values[v] = struct{}{}
			}
		}
		if len(f.values) == 0 {
			return filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
		}
	default:
		return filter{}, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilter, op)
	}
	return f, nil
}

func (f filter) match(record map[string]any) bool {
	hit, _ := f.test(record)
	return hit
}

// test — present=false, если колонки фильтра в записи нет (или она null).
func (f filter) test(record map[string]any) (hit, present bool) {
	if f.column == "" {
		return true, true
	}
	v, ok := lookup(record, f.column)
	if !ok || v == nil {
		return false, false
	}
	_, hit = f.values[fmt.Sprint(v)]
	return hit, true
}

// matchEvent — решает по первой записи события, где есть колонка фильтра:
// для DELETE сначала old, иначе сначала new.
// Если колонки нет нигде, INSERT не проходит, а UPDATE и DELETE проходят:
// подписка применит их только к id, который уже есть в её списке.
func (f filter) matchEvent(ev domain.ChangeEvent) bool {
	first, second := ev.New, ev.Old
	if ev.EventType == domain.EventDelete {
		first, second = ev.Old, ev.New
	}
	for _, rec := range [2]map[string]any{first, second} {
		if hit, present := f.test(rec); present {
			return hit
		}
	}
	return ev.EventType == domain.EventUpdate || ev.EventType == domain.EventDelete
}

// lookup — ищет колонку в записи как есть, затем в camelCase.
func lookup(record map[string]any, column string) (any, bool) {
	if v, ok := record[column]; ok {
		return v, true
	}
	v, ok := record[camel(column)]
	return v, ok
}

func camel(snake string) string {
	var b strings.Builder
	b.Grow(len(snake))
	upper := false
	for _, r := range snake {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
