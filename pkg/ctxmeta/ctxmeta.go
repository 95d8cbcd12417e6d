// Пакет ctxmeta — метаданные запроса в context.Context: request_id,
// субъект токена и область подписки. HTTP-слой кладёт, логгер читает.
package ctxmeta

import "context"

type ctxKey string

const (
	KeyRequestID ctxKey = "request_id"
	KeySubject   ctxKey = "subject"
	KeyScope     ctxKey = "scope"
)

// WithRequestID кладёт request_id в контекст (если пусто — ничего не делает).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, KeyRequestID, requestID)
}

// RequestIDFromContext достаёт request_id из контекста.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return get(ctx, KeyRequestID)
}

// WithSubject — sub проверенного токена.
func WithSubject(ctx context.Context, subject string) context.Context {
	return with(ctx, KeySubject, subject)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	return get(ctx, KeySubject)
}

// WithScope — ключ области подписки ("customer:c1", "stores:s1,s2").
func WithScope(ctx context.Context, scope string) context.Context {
	return with(ctx, KeyScope, scope)
}

func ScopeFromContext(ctx context.Context) (string, bool) {
	return get(ctx, KeyScope)
}

func with(ctx context.Context, key ctxKey, v string) context.Context {
	if ctx == nil || v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func get(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
