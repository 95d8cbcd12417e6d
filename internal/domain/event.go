package domain

// EventType — тип изменения в канале.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Valid — тип события поддерживается.
func (t EventType) Valid() bool {
	switch t {
	case EventInsert, EventUpdate, EventDelete:
		return true
	}
	return false
}

// ChangeEvent — событие изменения строки в том виде, в каком его присылает канал.
// New/Old — сырые записи: ключи могут быть как в camelCase, так и в snake_case.
type ChangeEvent struct {
	EventType EventType      `json:"eventType"`
	Table     string         `json:"table,omitempty"`
	New       map[string]any `json:"new,omitempty"`
	Old       map[string]any `json:"old,omitempty"`
	Errors    []any          `json:"errors,omitempty"`
}

// ConnectionStatus — упрощённое состояние подписки для UI.
type ConnectionStatus string

const (
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
	ConnError        ConnectionStatus = "error"
)
