package ports

import "context"

// MessageConsumer — источник change-event: Run блокирует до отмены ctx
// или фатальной ошибки, Close можно звать повторно.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
