package backend

import (
	"errors"

	"github.com/tidwall/gjson"
)

var errEnvelope = errors.New("unexpected response envelope")

// page — записи одной страницы списка и признак следующей страницы.
type page struct {
	items   []gjson.Result
	hasMore bool
}

// parseList — поддерживаемые формы ответа:
// голый массив, {items, pagination}, {data: [...]}, {data: {items, pagination}}.
func parseList(body []byte) (page, error) {
	if !gjson.ValidBytes(body) {
		return page{}, errEnvelope
	}
	r := gjson.ParseBytes(body)

	switch {
	case r.IsArray():
		return page{items: r.Array()}, nil
	case !r.IsObject():
		return page{}, errEnvelope
	}

	if items := r.Get("items"); items.IsArray() {
		return page{items: items.Array(), hasMore: hasMore(r.Get("pagination"))}, nil
	}
	data := r.Get("data")
	if data.IsArray() {
		return page{items: data.Array(), hasMore: hasMore(r.Get("pagination"))}, nil
	}
	if items := data.Get("items"); items.IsArray() {
		return page{items: items.Array(), hasMore: hasMore(data.Get("pagination"))}, nil
	}
	return page{}, errEnvelope
}

// parseOne — {data: {...}} либо сам объект заказа.
func parseOne(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errEnvelope
	}
	r := gjson.ParseBytes(body)
	if !r.IsObject() {
		return gjson.Result{}, errEnvelope
	}
	if data := r.Get("data"); data.IsObject() {
		return data, nil
	}
	return r, nil
}

// hasMore — has_more/hasMore или page < total_pages/totalPages.
func hasMore(p gjson.Result) bool {
	if !p.Exists() {
		return false
	}
	for _, k := range []string{"has_more", "hasMore"} {
		if v := p.Get(k); v.Exists() {
			return v.Bool()
		}
	}
	pageNo := p.Get("page").Int()
	total := p.Get("total_pages")
	if !total.Exists() {
		total = p.Get("totalPages")
	}
	return total.Exists() && pageNo > 0 && pageNo < total.Int()
}
