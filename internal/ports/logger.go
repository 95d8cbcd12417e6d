package ports

import "context"

// Logger — логгер с полями из контекста (request_id, trace_id, subject, scope).
type Logger interface {
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
}
