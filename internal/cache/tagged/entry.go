package tagged

import (
	"encoding/json"
	"errors"
	"time"
)

var errNoData = errors.New("entry has no data field")

// entry — формат записи в хранилище.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch, мс
	TTLMillis int64           `json:"ttlMillis"`
	Tags      []string        `json:"tags"`
}

// live — запись жива, пока now - timestamp < ttlMillis.
func (e entry) live(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp < e.TTLMillis
}

func decodeEntry(raw string) (entry, error) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return entry{}, err
	}
	if e.Data == nil {
		return entry{}, errNoData
	}
	return e, nil
}

// dedupTags — убирает пустые и повторяющиеся теги, сохраняя порядок.
func dedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
